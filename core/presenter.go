package core

import "pkt.systems/traycon/schema"

// Presenter renders transcript text on an external surface. All methods are
// called from the dispatcher goroutine only; implementations that cross a
// thread boundary must do their own handoff.
type Presenter interface {
	// Render displays the full current transcript.
	Render(text string)
	// SetSurfaceVisible shows or hides the surface. Showing also brings it
	// to the foreground.
	SetSurfaceVisible(visible bool)
	// Resize applies a new surface geometry.
	Resize(geom schema.SurfaceGeometry)
}

// TrayAffordance is the minimized-state presence that lets an operator
// restore or exit while the surface is hidden.
type TrayAffordance interface {
	Activate()
	Deactivate()
}

type noopPresenter struct{}

func (noopPresenter) Render(string)                 {}
func (noopPresenter) SetSurfaceVisible(bool)        {}
func (noopPresenter) Resize(schema.SurfaceGeometry) {}

type noopTray struct{}

func (noopTray) Activate()   {}
func (noopTray) Deactivate() {}
