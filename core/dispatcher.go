package core

import (
	"context"
	"errors"

	"pkt.systems/pslog"
	"pkt.systems/traycon/schema"
)

// dispatcher is the single goroutine that owns the tray state machine and
// the presenter. It pulls events strictly in arrival order and translates
// them into transitions, transcript appends, and presenter calls. Nothing
// here may block except the source pull itself.
type dispatcher struct {
	source     EventSource
	tray       *trayState
	transcript *transcript
	presenter  Presenter
	affordance TrayAffordance
	coord      *coordinator
	log        pslog.Logger

	geometry schema.SurfaceGeometry

	// observation hooks fire on the dispatcher goroutine. Any may be nil.
	onAppend     func(written, discarded int)
	onVisibility func(schema.TrayVisibility)
	onGeometry   func(schema.SurfaceGeometry)
}

func newDispatcher(src EventSource, tray *trayState, tr *transcript, pres Presenter, aff TrayAffordance, coord *coordinator, log pslog.Logger) *dispatcher {
	return &dispatcher{
		source:     src,
		tray:       tray,
		transcript: tr,
		presenter:  pres,
		affordance: aff,
		coord:      coord,
		log:        log,
		geometry:   schema.DefaultSurfaceGeometry,
	}
}

// Run pulls events until a terminal transition or until the source drains
// after close. A closed source still triggers the shutdown coordinator so
// resources are released on every exit path.
func (d *dispatcher) Run(ctx context.Context) error {
	for {
		ev, ok := d.source.Next(ctx)
		if !ok {
			if d.log != nil {
				d.log.Debug("event source closed", "visibility", d.tray.CurrentVisibility())
			}
			// A vanished source is a surface teardown. Routing it through
			// the same transition keeps tray and resource release on one
			// path.
			d.dispatch(schema.Destroyed{})
			return nil
		}
		if d.dispatch(ev) {
			return nil
		}
	}
}

// dispatch handles one event and reports whether the loop must terminate.
func (d *dispatcher) dispatch(ev schema.ConsoleEvent) (terminal bool) {
	if d.log != nil {
		d.log.Trace("dispatch event", "kind", ev.Kind())
	}

	// Geometry updates apply even while minimized; they must not force the
	// surface visible. The re-render keeps the surface content current
	// after a layout change.
	if resize, isResize := ev.(schema.Resize); isResize {
		d.geometry = schema.SurfaceGeometry{Width: resize.Width, Height: resize.Height}
		d.presenter.Resize(d.geometry)
		d.presenter.Render(d.transcript.Snapshot().Text)
		if d.onGeometry != nil {
			d.onGeometry(d.geometry)
		}
		return false
	}

	before := d.tray.CurrentVisibility()
	after, effects := d.tray.Transition(ev)
	if len(effects) == 0 {
		if d.log != nil && before == after {
			d.log.Trace("transition ignored", "kind", ev.Kind(), "visibility", before)
		}
		return false
	}
	if after != before && d.onVisibility != nil {
		d.onVisibility(after)
	}
	for _, effect := range effects {
		terminal = d.perform(effect) || terminal
	}
	return terminal
}

func (d *dispatcher) perform(effect schema.SideEffect) (terminal bool) {
	switch effect {
	case schema.EffectAppendMinimizedNotice:
		d.appendNotice(schema.MinimizedNotice)
	case schema.EffectAppendMaximizedNotice:
		d.appendNotice(schema.MaximizedNotice)
	case schema.EffectHideSurface:
		d.presenter.SetSurfaceVisible(false)
	case schema.EffectShowSurface:
		d.presenter.SetSurfaceVisible(true)
		d.presenter.Render(d.transcript.Snapshot().Text)
	case schema.EffectActivateTray:
		d.affordance.Activate()
	case schema.EffectDeactivateTray:
		d.affordance.Deactivate()
	case schema.EffectBeginShutdown:
		d.beginShutdown()
		return true
	default:
		if d.log != nil {
			d.log.Warn("unknown side effect", "effect", effect)
		}
	}
	return false
}

func (d *dispatcher) appendNotice(notice string) {
	written, discarded := d.transcript.Append(notice)
	if discarded > 0 && d.log != nil {
		d.log.Trace("transcript truncated", "written", written, "discarded", discarded)
	}
	if d.onAppend != nil && written > 0 {
		d.onAppend(written, discarded)
	}
}

func (d *dispatcher) beginShutdown() {
	if err := d.coord.Shutdown(); err != nil && !errors.Is(err, schema.ErrShutdownTimeout) {
		if d.log != nil {
			d.log.Warn("shutdown error", "err", err)
		}
	}
}
