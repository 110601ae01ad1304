// Package tray bridges the console to an OS system tray icon.
package tray

import (
	"context"
	_ "embed"
	"sync"

	"github.com/getlantern/systray"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/schema"
)

//go:embed icon.png
var iconData []byte

// Tray owns a systray icon with Open and Exit menu items. Run must occupy
// the main goroutine (Cocoa requirement); menu clicks become console events
// posted into the dispatcher queue. The dispatcher drives Activate and
// Deactivate when the surface hides or shows.
type Tray struct {
	tooltip string
	logger  pslog.Logger

	mu       sync.Mutex
	service  core.Service
	openItem *systray.MenuItem
	active   bool
}

var _ core.TrayAffordance = (*Tray)(nil)

// New constructs a tray adapter. The console service is attached with Bind
// once it exists; the adapter participates in service construction as the
// TrayAffordance, so it is built first.
func New(tooltip string, logger pslog.Logger) *Tray {
	if tooltip == "" {
		tooltip = "Console App"
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Tray{
		tooltip: tooltip,
		logger:  logger,
	}
}

// Bind attaches the console service the menu posts events to.
func (t *Tray) Bind(service core.Service) {
	t.mu.Lock()
	t.service = service
	t.mu.Unlock()
}

// Run starts the tray loop and blocks the calling goroutine until Quit.
// onReady fires once the icon is installed; onExit fires when the loop ends.
func (t *Tray) Run(ctx context.Context, onReady, onExit func()) {
	systray.Run(func() {
		t.onReady(ctx)
		if onReady != nil {
			onReady()
		}
	}, func() {
		t.logger.Info("tray exit")
		if onExit != nil {
			onExit()
		}
	})
}

// Quit removes the tray icon and ends Run. Safe to call from any goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady(ctx context.Context) {
	systray.SetTemplateIcon(iconData, iconData)
	systray.SetTooltip(t.tooltip)

	header := systray.AddMenuItem(t.tooltip, "")
	header.Disable()
	systray.AddSeparator()

	openItem := systray.AddMenuItem("Open", "Restore the console surface")
	quitItem := systray.AddMenuItem("Exit", "Shut down the console")

	t.mu.Lock()
	t.openItem = openItem
	active := t.active
	t.mu.Unlock()
	if !active {
		openItem.Disable()
	}

	t.logger.Info("tray ready", "tooltip", t.tooltip)
	go t.handleClicks(ctx, openItem, quitItem)
}

func (t *Tray) handleClicks(ctx context.Context, openItem, quitItem *systray.MenuItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-openItem.ClickedCh:
			t.logger.Info("tray open clicked")
			t.postEvent(ctx, schema.RestoreRequested{})
		case <-quitItem.ClickedCh:
			t.logger.Info("tray exit clicked")
			t.postEvent(ctx, schema.ExitRequested{})
		}
	}
}

func (t *Tray) postEvent(ctx context.Context, event schema.ConsoleEvent) {
	t.mu.Lock()
	service := t.service
	t.mu.Unlock()
	if service == nil {
		t.logger.Warn("tray event before bind", "kind", event.Kind())
		return
	}
	resp, err := service.PostEvent(ctx, schema.PostEventRequest{Event: event})
	if err != nil {
		t.logger.Warn("tray event post failed", "kind", event.Kind(), "err", err)
		return
	}
	if !resp.Accepted {
		t.logger.Warn("tray event dropped", "kind", event.Kind())
	}
}

// Activate implements core.TrayAffordance. The icon stays resident for the
// process lifetime; minimizing enables the Open item instead of installing
// a new icon.
func (t *Tray) Activate() {
	t.mu.Lock()
	t.active = true
	item := t.openItem
	t.mu.Unlock()
	if item != nil {
		item.Enable()
	}
	t.logger.Debug("tray activate")
}

// Deactivate implements core.TrayAffordance.
func (t *Tray) Deactivate() {
	t.mu.Lock()
	t.active = false
	item := t.openItem
	t.mu.Unlock()
	if item != nil {
		item.Disable()
	}
	t.logger.Debug("tray deactivate")
}
