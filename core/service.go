package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// service implements the core console behavior.
type service struct {
	cfg        schema.ConsoleConfig
	transcript *transcript
	queue      *Queue
	tray       *trayState
	producer   *producer
	coord      *coordinator
	dispatcher *dispatcher
	sink       EventSink
	logger     pslog.Logger

	// mu guards the published mirror of dispatcher-owned state. The state
	// machine itself is only ever written on the dispatcher goroutine.
	mu         sync.Mutex
	visibility schema.TrayVisibility
	geometry   schema.SurfaceGeometry

	started atomic.Bool
}

// NewService constructs the core console service.
func NewService(cfg schema.ConsoleConfig, deps ConsoleDeps) (Service, error) {
	normalized, err := schema.NormalizeConsoleConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg = normalized
	if deps.Presenter == nil {
		deps.Presenter = noopPresenter{}
	}
	if deps.Tray == nil {
		deps.Tray = noopTray{}
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	s := &service{
		cfg:        cfg,
		transcript: newTranscript(cfg.TranscriptCapacity, cfg.LineEnding),
		queue:      NewQueue(cfg.QueueSize),
		tray:       newTrayState(),
		sink:       deps.EventSink,
		logger:     logger,
		visibility: schema.VisibilityVisible,
		geometry:   schema.DefaultSurfaceGeometry,
	}
	s.producer = newProducer(s.transcript, cfg, deps.Clock, logger)
	s.producer.onAppend = s.notifyAppend
	s.producer.onState = s.notifyRun
	release := append([]func(){s.queue.Close}, deps.Release...)
	s.coord = newCoordinator(s.producer, cfg.ShutdownTimeout, logger, release...)
	s.dispatcher = newDispatcher(s.queue, s.tray, s.transcript, deps.Presenter, deps.Tray, s.coord, logger)
	s.dispatcher.onAppend = s.notifyAppend
	s.dispatcher.onVisibility = s.notifyVisibility
	s.dispatcher.onGeometry = s.notifyGeometry
	return s, nil
}

// Run starts the producer and drives the dispatcher loop on the calling
// goroutine. Context cancellation is delivered as a Destroyed event so it
// takes the same ordered shutdown path as a window close.
func (s *service) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("missing context")
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("console already running")
	}
	s.logger.Info("console start",
		"capacity", s.cfg.TranscriptCapacity,
		"interval", s.cfg.ProducerInterval,
		"status", s.cfg.StatusText)
	s.producer.Start()
	go func() {
		select {
		case <-ctx.Done():
			if _, err := s.queue.Post(schema.Destroyed{}); err != nil {
				s.logger.Trace("destroy post after close", "err", err)
			}
		case <-s.coord.Finished():
		}
	}()
	err := s.dispatcher.Run(ctx)
	snap := s.transcript.Snapshot()
	s.logger.Info("console stopped",
		"run", s.producer.State().String(),
		"length", snap.Length,
		"discarded", snap.Discarded,
		"dropped_events", s.queue.Dropped())
	return err
}

func (s *service) GetTranscript(ctx context.Context, req schema.GetTranscriptRequest) (schema.GetTranscriptResponse, error) {
	if ctx == nil {
		return schema.GetTranscriptResponse{}, errors.New("missing context")
	}
	return schema.GetTranscriptResponse{Buffer: s.transcript.Snapshot()}, nil
}

func (s *service) GetStatus(ctx context.Context, req schema.GetStatusRequest) (schema.GetStatusResponse, error) {
	if ctx == nil {
		return schema.GetStatusResponse{}, errors.New("missing context")
	}
	s.mu.Lock()
	visibility := s.visibility
	geometry := s.geometry
	s.mu.Unlock()
	return schema.GetStatusResponse{Console: schema.ConsoleSnapshot{
		Buffer:        s.transcript.Snapshot(),
		Visibility:    visibility,
		Geometry:      geometry,
		Run:           s.producer.State(),
		DroppedEvents: s.queue.Dropped(),
	}}, nil
}

func (s *service) PostEvent(ctx context.Context, req schema.PostEventRequest) (schema.PostEventResponse, error) {
	if ctx == nil {
		return schema.PostEventResponse{}, errors.New("missing context")
	}
	if req.Event == nil {
		return schema.PostEventResponse{}, schema.ErrInvalidEvent
	}
	accepted, err := s.queue.Post(req.Event)
	if err != nil {
		if errors.Is(err, schema.ErrQueueClosed) {
			return schema.PostEventResponse{}, schema.ErrServiceStopped
		}
		return schema.PostEventResponse{}, err
	}
	if !accepted {
		s.logger.Trace("event dropped", "kind", req.Event.Kind(), "dropped_total", s.queue.Dropped())
	}
	return schema.PostEventResponse{Accepted: accepted}, nil
}

func (s *service) AppendLine(ctx context.Context, req schema.AppendLineRequest) (schema.AppendLineResponse, error) {
	if ctx == nil {
		return schema.AppendLineResponse{}, errors.New("missing context")
	}
	select {
	case <-s.coord.Finished():
		return schema.AppendLineResponse{}, schema.ErrServiceStopped
	default:
	}
	line := req.Line
	if line == "" {
		return schema.AppendLineResponse{}, nil
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	written, discarded := s.transcript.Append(line)
	if discarded > 0 {
		s.logger.Trace("transcript truncated", "written", written, "discarded", discarded)
	}
	if written > 0 {
		s.notifyAppend(written, discarded)
	}
	return schema.AppendLineResponse{Written: written, Discarded: discarded}, nil
}

func (s *service) notifyAppend(written, discarded int) {
	if s.sink == nil {
		return
	}
	s.sink.OnTranscript(schema.TranscriptEvent{
		Length:    s.transcript.Len(),
		Discarded: discarded,
	})
}

func (s *service) notifyVisibility(visibility schema.TrayVisibility) {
	s.mu.Lock()
	s.visibility = visibility
	s.mu.Unlock()
	s.logger.Info("visibility changed", "visibility", visibility)
	if s.sink != nil {
		s.sink.OnVisibility(schema.VisibilityEvent{Visibility: visibility})
	}
}

func (s *service) notifyGeometry(geometry schema.SurfaceGeometry) {
	s.mu.Lock()
	s.geometry = geometry
	s.mu.Unlock()
	s.logger.Debug("geometry changed", "width", geometry.Width, "height", geometry.Height)
	if s.sink != nil {
		s.sink.OnGeometry(schema.GeometryEvent{Geometry: geometry})
	}
}

func (s *service) notifyRun(run schema.RunState) {
	if s.sink != nil {
		s.sink.OnRun(schema.RunEvent{Run: run})
	}
}
