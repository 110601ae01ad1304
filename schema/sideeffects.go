package schema

// SideEffect names an action the dispatcher performs after a tray
// transition. The state machine stays pure; effects are executed by the
// dispatcher in the order returned.
type SideEffect string

const (
	// EffectHideSurface hides the presenter surface.
	EffectHideSurface SideEffect = "hide_surface"
	// EffectShowSurface shows the presenter surface and raises it.
	EffectShowSurface SideEffect = "show_surface"
	// EffectActivateTray makes the tray affordance available for restore.
	EffectActivateTray SideEffect = "activate_tray"
	// EffectDeactivateTray retires the tray affordance.
	EffectDeactivateTray SideEffect = "deactivate_tray"
	// EffectAppendMinimizedNotice appends MinimizedNotice to the transcript.
	EffectAppendMinimizedNotice SideEffect = "append_minimized_notice"
	// EffectAppendMaximizedNotice appends MaximizedNotice to the transcript.
	EffectAppendMaximizedNotice SideEffect = "append_maximized_notice"
	// EffectBeginShutdown invokes the shutdown coordinator.
	EffectBeginShutdown SideEffect = "begin_shutdown"
)
