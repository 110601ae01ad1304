package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pkt.systems/traycon/schema"
)

type recordingSink struct {
	transcripts chan schema.TranscriptEvent
	visibility  chan schema.VisibilityEvent
	geometry    chan schema.GeometryEvent
	runs        chan schema.RunEvent
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		transcripts: make(chan schema.TranscriptEvent, 64),
		visibility:  make(chan schema.VisibilityEvent, 64),
		geometry:    make(chan schema.GeometryEvent, 64),
		runs:        make(chan schema.RunEvent, 64),
	}
}

func (s *recordingSink) OnTranscript(event schema.TranscriptEvent) { s.transcripts <- event }
func (s *recordingSink) OnVisibility(event schema.VisibilityEvent) { s.visibility <- event }
func (s *recordingSink) OnGeometry(event schema.GeometryEvent)     { s.geometry <- event }
func (s *recordingSink) OnRun(event schema.RunEvent)               { s.runs <- event }

func startTestService(t *testing.T) (Service, *recordingSink, chan error) {
	t.Helper()
	sink := newRecordingSink()
	svc, err := NewService(schema.ConsoleConfig{ShutdownTimeout: 200 * time.Millisecond}, ConsoleDeps{
		Clock:     newFakeClock(),
		EventSink: sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	awaitRun(t, sink, schema.RunRunning)
	return svc, sink, done
}

func awaitRun(t *testing.T, sink *recordingSink, want schema.RunState) {
	t.Helper()
	for {
		select {
		case ev := <-sink.runs:
			if ev.Run == want {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("run state %s never reported", want)
		}
	}
}

func awaitVisibility(t *testing.T, sink *recordingSink, want schema.TrayVisibility) {
	t.Helper()
	for {
		select {
		case ev := <-sink.visibility:
			if ev.Visibility == want {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("visibility %s never reported", want)
		}
	}
}

func TestServiceLifecycle(t *testing.T) {
	svc, sink, done := startTestService(t)
	ctx := context.Background()

	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.MinimizeRequested{}}); err != nil {
		t.Fatalf("post minimize: %v", err)
	}
	awaitVisibility(t, sink, schema.VisibilityMinimized)

	status, err := svc.GetStatus(ctx, schema.GetStatusRequest{})
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	if status.Console.Visibility != schema.VisibilityMinimized {
		t.Fatalf("expected minimized, got %s", status.Console.Visibility)
	}

	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.RestoreRequested{}}); err != nil {
		t.Fatalf("post restore: %v", err)
	}
	awaitVisibility(t, sink, schema.VisibilityVisible)

	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.ExitRequested{}}); err != nil {
		t.Fatalf("post exit: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run never returned after exit")
	}

	status, err = svc.GetStatus(ctx, schema.GetStatusRequest{})
	if err != nil {
		t.Fatalf("status after exit: %v", err)
	}
	if status.Console.Run != schema.RunStopped {
		t.Fatalf("expected stopped run state, got %s", status.Console.Run)
	}
	if status.Console.Visibility != schema.VisibilityExiting {
		t.Fatalf("expected exiting visibility, got %s", status.Console.Visibility)
	}

	transcript, err := svc.GetTranscript(ctx, schema.GetTranscriptRequest{})
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if !strings.Contains(transcript.Buffer.Text, "Minimize button clicked\r\n") {
		t.Fatalf("missing minimize notice in %q", transcript.Buffer.Text)
	}
}

func TestServiceAppendLine(t *testing.T) {
	svc, sink, done := startTestService(t)
	ctx := context.Background()

	resp, err := svc.AppendLine(ctx, schema.AppendLineRequest{Line: "hello"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if resp.Written != len("hello\r\n") {
		t.Fatalf("expected %d written, got %d", len("hello\r\n"), resp.Written)
	}
	select {
	case ev := <-sink.transcripts:
		if ev.Length != resp.Written {
			t.Fatalf("expected length %d, got %d", resp.Written, ev.Length)
		}
	case <-time.After(time.Second):
		t.Fatal("no transcript notification")
	}

	got, err := svc.GetTranscript(ctx, schema.GetTranscriptRequest{})
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if got.Buffer.Text != "hello\r\n" {
		t.Fatalf("unexpected transcript %q", got.Buffer.Text)
	}

	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.ExitRequested{}}); err != nil {
		t.Fatalf("post exit: %v", err)
	}
	<-done

	if _, err := svc.AppendLine(ctx, schema.AppendLineRequest{Line: "late"}); !errors.Is(err, schema.ErrServiceStopped) {
		t.Fatalf("expected ErrServiceStopped, got %v", err)
	}
	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.RestoreRequested{}}); !errors.Is(err, schema.ErrServiceStopped) {
		t.Fatalf("expected ErrServiceStopped for post, got %v", err)
	}
}

func TestServiceRejectsNilEvent(t *testing.T) {
	svc, _, done := startTestService(t)
	ctx := context.Background()
	if _, err := svc.PostEvent(ctx, schema.PostEventRequest{}); !errors.Is(err, schema.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	svc.PostEvent(ctx, schema.PostEventRequest{Event: schema.ExitRequested{}})
	<-done
}

func TestServiceContextCancelShutsDownCleanly(t *testing.T) {
	sink := newRecordingSink()
	svc, err := NewService(schema.ConsoleConfig{ShutdownTimeout: 200 * time.Millisecond}, ConsoleDeps{
		Clock:     newFakeClock(),
		EventSink: sink,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	awaitRun(t, sink, schema.RunRunning)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run never returned after cancel")
	}
	awaitRun(t, sink, schema.RunStopped)
}

func TestServiceRunTwiceFails(t *testing.T) {
	svc, _, done := startTestService(t)
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected error on second run")
	}
	svc.PostEvent(context.Background(), schema.PostEventRequest{Event: schema.ExitRequested{}})
	<-done
}
