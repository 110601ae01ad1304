package core

import "pkt.systems/traycon/schema"

// trayState is the surface visibility state machine. It is owned by the
// dispatcher goroutine; Transition mutates nothing but the current state and
// reports the side effects the dispatcher must perform, in order. Invalid
// transitions are no-ops with no effects, never errors.
type trayState struct {
	visibility schema.TrayVisibility
}

func newTrayState() *trayState {
	return &trayState{visibility: schema.VisibilityVisible}
}

// CurrentVisibility reports the current state.
func (t *trayState) CurrentVisibility() schema.TrayVisibility {
	return t.visibility
}

// Transition applies ev to the state machine. Resize is not a visibility
// transition and always leaves the state untouched.
func (t *trayState) Transition(ev schema.ConsoleEvent) (schema.TrayVisibility, []schema.SideEffect) {
	switch ev.(type) {
	case schema.MinimizeRequested:
		if t.visibility == schema.VisibilityVisible {
			t.visibility = schema.VisibilityMinimized
			return t.visibility, []schema.SideEffect{
				schema.EffectAppendMinimizedNotice,
				schema.EffectHideSurface,
				schema.EffectActivateTray,
			}
		}
	case schema.MaximizeRequested:
		if t.visibility == schema.VisibilityVisible {
			return t.visibility, []schema.SideEffect{
				schema.EffectAppendMaximizedNotice,
			}
		}
	case schema.RestoreRequested:
		if t.visibility == schema.VisibilityMinimized {
			t.visibility = schema.VisibilityVisible
			return t.visibility, []schema.SideEffect{
				schema.EffectShowSurface,
				schema.EffectDeactivateTray,
			}
		}
	case schema.ExitRequested, schema.Destroyed:
		if t.visibility != schema.VisibilityExiting {
			t.visibility = schema.VisibilityExiting
			return t.visibility, []schema.SideEffect{
				schema.EffectDeactivateTray,
				schema.EffectBeginShutdown,
			}
		}
	}
	return t.visibility, nil
}
