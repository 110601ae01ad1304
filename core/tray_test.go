package core

import (
	"testing"

	"pkt.systems/traycon/schema"
)

func TestTrayMinimizeFromVisible(t *testing.T) {
	tray := newTrayState()
	state, effects := tray.Transition(schema.MinimizeRequested{})
	if state != schema.VisibilityMinimized {
		t.Fatalf("expected minimized, got %s", state)
	}
	want := []schema.SideEffect{
		schema.EffectAppendMinimizedNotice,
		schema.EffectHideSurface,
		schema.EffectActivateTray,
	}
	if len(effects) != len(want) {
		t.Fatalf("expected %d effects, got %v", len(want), effects)
	}
	for i := range want {
		if effects[i] != want[i] {
			t.Fatalf("effect %d: expected %s, got %s", i, want[i], effects[i])
		}
	}
}

func TestTrayMinimizeWhileMinimizedIsNoop(t *testing.T) {
	tray := newTrayState()
	tray.Transition(schema.MinimizeRequested{})
	state, effects := tray.Transition(schema.MinimizeRequested{})
	if state != schema.VisibilityMinimized || len(effects) != 0 {
		t.Fatalf("expected no-op, got %s with %v", state, effects)
	}
}

func TestTrayRestoreFromMinimized(t *testing.T) {
	tray := newTrayState()
	tray.Transition(schema.MinimizeRequested{})
	state, effects := tray.Transition(schema.RestoreRequested{})
	if state != schema.VisibilityVisible {
		t.Fatalf("expected visible, got %s", state)
	}
	want := []schema.SideEffect{
		schema.EffectShowSurface,
		schema.EffectDeactivateTray,
	}
	if len(effects) != len(want) {
		t.Fatalf("expected %d effects, got %v", len(want), effects)
	}
	for i := range want {
		if effects[i] != want[i] {
			t.Fatalf("effect %d: expected %s, got %s", i, want[i], effects[i])
		}
	}
}

func TestTrayRestoreWhileVisibleIsNoop(t *testing.T) {
	tray := newTrayState()
	state, effects := tray.Transition(schema.RestoreRequested{})
	if state != schema.VisibilityVisible || len(effects) != 0 {
		t.Fatalf("expected no-op, got %s with %v", state, effects)
	}
}

func TestTrayMaximizeAppendsNoticeOnly(t *testing.T) {
	tray := newTrayState()
	state, effects := tray.Transition(schema.MaximizeRequested{})
	if state != schema.VisibilityVisible {
		t.Fatalf("expected visible, got %s", state)
	}
	if len(effects) != 1 || effects[0] != schema.EffectAppendMaximizedNotice {
		t.Fatalf("unexpected effects %v", effects)
	}
}

func TestTrayMaximizeWhileMinimizedIsNoop(t *testing.T) {
	tray := newTrayState()
	tray.Transition(schema.MinimizeRequested{})
	if _, effects := tray.Transition(schema.MaximizeRequested{}); len(effects) != 0 {
		t.Fatalf("unexpected effects %v", effects)
	}
}

func TestTrayExitFromAnyState(t *testing.T) {
	for _, setup := range [][]schema.ConsoleEvent{
		nil,
		{schema.MinimizeRequested{}},
	} {
		tray := newTrayState()
		for _, ev := range setup {
			tray.Transition(ev)
		}
		state, effects := tray.Transition(schema.ExitRequested{})
		if state != schema.VisibilityExiting {
			t.Fatalf("expected exiting, got %s", state)
		}
		found := false
		for _, effect := range effects {
			if effect == schema.EffectBeginShutdown {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected begin shutdown effect, got %v", effects)
		}
	}
}

func TestTrayExitTwiceIsNoopSecondTime(t *testing.T) {
	tray := newTrayState()
	tray.Transition(schema.ExitRequested{})
	state, effects := tray.Transition(schema.ExitRequested{})
	if state != schema.VisibilityExiting || len(effects) != 0 {
		t.Fatalf("expected terminal no-op, got %s with %v", state, effects)
	}
}

func TestTrayDestroyedMatchesExit(t *testing.T) {
	tray := newTrayState()
	state, effects := tray.Transition(schema.Destroyed{})
	if state != schema.VisibilityExiting {
		t.Fatalf("expected exiting, got %s", state)
	}
	if len(effects) == 0 {
		t.Fatalf("expected effects")
	}
}

func TestTrayResizeNeverTransitions(t *testing.T) {
	tray := newTrayState()
	tray.Transition(schema.MinimizeRequested{})
	state, effects := tray.Transition(schema.Resize{Width: 640, Height: 480})
	if state != schema.VisibilityMinimized || len(effects) != 0 {
		t.Fatalf("resize changed state: %s %v", state, effects)
	}
}
