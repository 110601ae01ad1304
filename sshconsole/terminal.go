package sshconsole

import (
	"context"
	"time"

	gliderssh "github.com/gliderlabs/ssh"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/internal/eventbus"
	"pkt.systems/traycon/internal/logx"
	"pkt.systems/traycon/schema"
)

// consoleSession renders the shared console for one SSH client. The session
// never mutates console state directly; every key press becomes an event
// posted into the dispatcher queue, and every repaint reads a fresh
// snapshot.
type consoleSession struct {
	sess      gliderssh.Session
	sessionID schema.SessionID
	service   core.Service
	events    <-chan eventbus.Event
	screen    *screen
	ctx       context.Context

	width  int
	height int

	console schema.ConsoleSnapshot
	dirty   bool
}

func newConsoleSession(sess gliderssh.Session, sessionID schema.SessionID, service core.Service, events <-chan eventbus.Event) *consoleSession {
	return &consoleSession{
		sess:      sess,
		sessionID: sessionID,
		service:   service,
		events:    events,
		screen:    newScreen(sess),
	}
}

func (c *consoleSession) log() pslog.Logger {
	ctx := c.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return logx.WithSession(ctx, c.sessionID)
}

func (c *consoleSession) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	c.width = width
	c.height = height
}

func (c *consoleSession) Run(ctx context.Context, winCh <-chan gliderssh.Window) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.ctx = ctx
	c.screen.EnterAltScreen()
	defer c.screen.ExitAltScreen()

	// Announce this surface's geometry so the dispatcher state reflects
	// the attached window, the same as a native surface reporting its
	// initial size.
	c.postEvent(schema.Resize{Width: c.width, Height: c.height})
	c.refreshState()
	c.render()
	c.log().Info("console session start", "width", c.width, "height", c.height)

	keys := make(chan key, 16)
	go readKeys(c.sess, keys)

	// The bus covers live updates; the ticker is a safety net for anything
	// missed while the subscriber channel was full.
	stateTicker := time.NewTicker(2 * time.Second)
	defer stateTicker.Stop()

	events := c.events

	for {
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			if c.handleKey(k) {
				return nil
			}
		case win, ok := <-winCh:
			if ok {
				c.SetSize(win.Width, win.Height)
				c.postEvent(schema.Resize{Width: c.width, Height: c.height})
				c.refreshState()
				c.log().Debug("console session resize", "width", c.width, "height", c.height)
			}
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			c.handleBusEvent(ev)
		case <-stateTicker.C:
			c.refreshState()
		}

		if c.dirty {
			c.render()
			c.dirty = false
		}
	}
}

func (c *consoleSession) handleBusEvent(ev eventbus.Event) {
	switch ev.Type {
	case eventbus.EventTranscript, eventbus.EventVisibility, eventbus.EventGeometry, eventbus.EventRun:
		c.refreshState()
	}
}

func (c *consoleSession) handleKey(k key) bool {
	switch k.kind {
	case keyCtrlC, keyCtrlD:
		c.log().Info("console session exit", "reason", "interrupt")
		_ = c.sess.Exit(0)
		return true
	case keyEnter:
		c.postEvent(schema.RestoreRequested{})
	case keyRune:
		switch k.r {
		case 'm':
			c.postEvent(schema.MinimizeRequested{})
		case 'r':
			c.postEvent(schema.RestoreRequested{})
		case 'Q':
			c.postEvent(schema.ExitRequested{})
		case 'q':
			c.log().Info("console session exit", "reason", "detach")
			_ = c.sess.Exit(0)
			return true
		}
	}
	c.dirty = true
	return false
}

func (c *consoleSession) postEvent(ev schema.ConsoleEvent) {
	resp, err := c.service.PostEvent(c.ctx, schema.PostEventRequest{Event: ev})
	if err != nil {
		c.log().Trace("console event post failed", "kind", ev.Kind(), "err", err)
		return
	}
	if !resp.Accepted {
		c.log().Trace("console event dropped", "kind", ev.Kind())
	}
}

func (c *consoleSession) refreshState() {
	resp, err := c.service.GetStatus(c.ctx, schema.GetStatusRequest{})
	if err != nil {
		c.log().Trace("console status refresh failed", "err", err)
		return
	}
	if resp.Console != c.console {
		c.console = resp.Console
		c.dirty = true
	}
}

func (c *consoleSession) render() {
	if err := c.screen.Render(consoleFrame(c.console, c.width, c.height)); err != nil {
		c.log().Trace("console render failed", "err", err)
	}
}
