package sshconsole

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/internal/eventbus"
	"pkt.systems/traycon/internal/hostkeys"
	"pkt.systems/traycon/internal/logx"
	"pkt.systems/traycon/schema"
)

// Server exposes the console transcript over SSH. Every attached session is
// a live viewer of the one shared console: window changes feed Resize events
// into the dispatcher queue and key presses post tray events.
type Server struct {
	Addr               string
	Listener           net.Listener
	HostKeys           *hostkeys.Store
	AuthorizedKeysPath string
	Service            core.Service
	Bus                *eventbus.Bus
	logger             pslog.Logger
}

// ListenAndServe starts the SSH server and shuts down on context cancellation.
// Host key or listener failures surface as ErrSurfaceUnavailable so callers
// can distinguish a surface that never came up from one that died serving.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Service == nil {
		return errors.New("console service is required")
	}
	if s.HostKeys == nil {
		return errors.New("host key store is required")
	}

	signer, err := s.HostKeys.EnsureSigner()
	if err != nil {
		return fmt.Errorf("%w: host key: %v", schema.ErrSurfaceUnavailable, err)
	}

	server := &gliderssh.Server{
		Addr:    s.Addr,
		Handler: s.handleSession,
	}
	server.AddHostKey(signer)

	if strings.TrimSpace(s.AuthorizedKeysPath) != "" {
		authorized, err := loadAuthorizedKeys(s.AuthorizedKeysPath)
		if err != nil {
			return fmt.Errorf("%w: authorized keys: %v", schema.ErrSurfaceUnavailable, err)
		}
		s.logger.Info("ssh authorized keys loaded", "path", s.AuthorizedKeysPath, "count", len(authorized))
		server.PublicKeyHandler = func(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
			return s.handlePublicKey(ctx, key, authorized)
		}
	} else {
		s.logger.Warn("ssh running without authorized keys; any client may attach")
	}

	ln := s.Listener
	if ln == nil {
		ln, err = net.Listen("tcp", s.Addr)
		if err != nil {
			return fmt.Errorf("%w: listen %s: %v", schema.ErrSurfaceUnavailable, s.Addr, err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey, authorized []ssh.PublicKey) bool {
	log := logx.WithRemote(s.logger, remoteAddr(ctx))
	fingerprint := ssh.FingerprintSHA256(key)
	for _, candidate := range authorized {
		if gliderssh.KeysEqual(key, candidate) {
			log.Info("ssh pubkey accepted", "fingerprint", fingerprint)
			return true
		}
	}
	log.Warn("ssh pubkey rejected", "reason", "no matching key", "fingerprint", fingerprint)
	return false
}

func loadAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	keys := make([]ssh.PublicKey, 0, 4)
	rest := data
	for len(rest) > 0 {
		key, _, _, next, err := ssh.ParseAuthorizedKey(rest)
		if err != nil {
			// Tolerate comments and blank lines between entries.
			if idx := indexNewline(rest); idx >= 0 {
				rest = rest[idx+1:]
				continue
			}
			break
		}
		keys = append(keys, key)
		rest = next
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys in %s", path)
	}
	return keys, nil
}

func indexNewline(data []byte) int {
	for i, b := range data {
		if b == '\n' {
			return i
		}
	}
	return -1
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	sessionID := schema.SessionID(sess.Context().SessionID())
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	log = logx.WithRemote(log, sess.RemoteAddr().String())
	ctx := logx.ContextWithSessionLogger(sess.Context(), log, sessionID)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = fmt.Fprintln(sess, "pty required")
		_ = sess.Exit(1)
		return
	}

	log.Info("ssh session opened", "term", pty.Term)
	var events <-chan eventbus.Event
	var unsubscribe func()
	if s.Bus != nil {
		events, unsubscribe = s.Bus.Subscribe()
	}
	if unsubscribe != nil {
		defer unsubscribe()
	}
	ui := newConsoleSession(sess, sessionID, s.Service, events)
	ui.SetSize(pty.Window.Width, pty.Window.Height)
	_ = ui.Run(ctx, winCh)
	log.Info("ssh session closed", "term", pty.Term)
}
