package core

import "pkt.systems/pslog"

// ConsoleDeps captures optional dependencies for the console service. Nil
// fields get safe defaults: a no-op presenter and tray affordance, the
// system clock, and the ambient logger. A nil EventSink disables
// notifications.
type ConsoleDeps struct {
	Presenter Presenter
	Tray      TrayAffordance
	EventSink EventSink
	Clock     Clock
	Logger    pslog.Logger
	// Release hooks run exactly once during shutdown, after the producer
	// join and the event queue close. Surface adapters register their
	// teardown here.
	Release []func()
}
