package traycon

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/httpapi"
	"pkt.systems/traycon/internal/eventbus"
	"pkt.systems/traycon/internal/hostkeys"
	"pkt.systems/traycon/schema"
	"pkt.systems/traycon/sshconsole"
)

// Server composes the console service with its attached surfaces. The core
// dispatcher runs as a component; surface servers feed it events and render
// from its snapshots.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
	// Service exposes the console API for in-process surfaces.
	Service() core.Service
}

// ServerConfig configures the compositor.
type ServerConfig struct {
	Console    schema.ConsoleConfig
	SSH        sshconsole.Config
	HTTP       httpapi.Config
	HubHistory int
}

// ServerDeps captures dependencies required to build the server. The console
// deps carry any in-process presenter or tray affordance; the compositor
// adds the surface event sinks on top.
type ServerDeps struct {
	ConsoleDeps core.ConsoleDeps
}

// ServerOption toggles compositor components.
type ServerOption func(*serverOptions)

type serverOptions struct {
	enableHTTP bool
	enableSSH  bool
}

// WithHTTP enables the HTTP control API.
func WithHTTP() ServerOption {
	return func(o *serverOptions) { o.enableHTTP = true }
}

// WithSSH enables the SSH console surface.
func WithSSH() ServerOption {
	return func(o *serverOptions) { o.enableSSH = true }
}

// New constructs a composable traycon server.
func New(cfg ServerConfig, deps ServerDeps, opts ...ServerOption) (Server, error) {
	options := serverOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.enableHTTP && !options.enableSSH &&
		deps.ConsoleDeps.Presenter == nil && deps.ConsoleDeps.Tray == nil {
		return nil, errors.New("no surfaces enabled")
	}

	normalized, err := schema.NormalizeConsoleConfig(cfg.Console)
	if err != nil {
		return nil, err
	}
	cfg.Console = normalized

	consoleDeps := deps.ConsoleDeps
	logger := consoleDeps.Logger

	var bus *eventbus.Bus
	var hub *httpapi.Hub
	if options.enableSSH {
		bus = eventbus.New(logger)
	}
	if options.enableHTTP {
		hub = httpapi.NewHub(cfg.HubHistory)
	}

	sinks := make([]core.EventSink, 0, 3)
	if consoleDeps.EventSink != nil {
		sinks = append(sinks, consoleDeps.EventSink)
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}
	if bus != nil {
		sinks = append(sinks, bus)
	}
	switch len(sinks) {
	case 0:
		consoleDeps.EventSink = nil
	case 1:
		consoleDeps.EventSink = sinks[0]
	default:
		consoleDeps.EventSink = eventFanout{sinks: sinks}
	}

	service, err := core.NewService(cfg.Console, consoleDeps)
	if err != nil {
		return nil, err
	}

	var httpSrv *httpapi.Server
	if options.enableHTTP {
		httpSrv = httpapi.NewServer(cfg.HTTP, service, hub)
	}

	var sshSrv *sshconsole.Server
	if options.enableSSH {
		hostKeys, err := hostkeys.NewStoreWithLogger(cfg.SSH.KeyStorePath, cfg.SSH.HostKeyPath, logger)
		if err != nil {
			return nil, err
		}
		sshSrv = &sshconsole.Server{
			Addr:               cfg.SSH.Addr,
			HostKeys:           hostKeys,
			AuthorizedKeysPath: cfg.SSH.AuthorizedKeys,
			Service:            service,
			Bus:                bus,
		}
	}

	return &compositeServer{
		cfg:     cfg,
		options: options,
		service: service,
		httpSrv: httpSrv,
		sshSrv:  sshSrv,
	}, nil
}

type compositeServer struct {
	cfg     ServerConfig
	options serverOptions
	service core.Service
	httpSrv *httpapi.Server
	sshSrv  *sshconsole.Server
	logger  pslog.Logger

	mu          sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       chan error
	serviceDone chan struct{}
	started     bool
}

func (s *compositeServer) Service() core.Service { return s.service }

func (s *compositeServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 3)
	s.serviceDone = make(chan struct{})
	s.started = true
	s.logger = pslog.Ctx(s.ctx)
	s.mu.Unlock()

	log := s.logger
	log.Info(
		"server start",
		"http", s.options.enableHTTP,
		"ssh", s.options.enableSSH,
		"http_addr", s.cfg.HTTP.Addr,
		"ssh_addr", s.cfg.SSH.Addr,
	)
	go func() {
		defer close(s.serviceDone)
		err := s.service.Run(s.ctx)
		if err != nil {
			log.Error("console service failed", "err", err)
		}
		s.errCh <- err
	}()
	if s.options.enableHTTP && s.httpSrv != nil {
		go func() {
			if err := httpapi.ListenAndServe(s.ctx, s.cfg.HTTP.Addr, s.httpSrv.Handler()); err != nil {
				log.Error("http server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	if s.options.enableSSH && s.sshSrv != nil {
		go func() {
			if err := s.sshSrv.ListenAndServe(s.ctx); err != nil {
				log.Error("ssh server failed", "err", err)
				s.errCh <- err
			}
		}()
	}
	return nil
}

// Wait blocks until the console finishes, a surface fails, or the start
// context is cancelled. A clean console exit stops the surfaces too.
func (s *compositeServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			pslog.Ctx(ctx).Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		pslog.Ctx(ctx).Info("console finished")
		_ = s.Stop(context.Background())
		return nil
	}
}

func (s *compositeServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	serviceDone := s.serviceDone
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-serviceDone:
		log.Info("server stopped")
		return nil
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	}
}
