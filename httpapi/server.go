package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traycon/core"
	"pkt.systems/traycon/schema"
)

// Server serves the local control API: status and transcript reads, an SSE
// notification stream, and event injection for tray-equivalent controls.
type Server struct {
	cfg     Config
	service core.Service
	hub     *Hub
}

// NewServer constructs a control API server.
func NewServer(cfg Config, service core.Service, hub *Hub) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		hub:     hub,
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/transcript", s.handleTranscript)
	mux.HandleFunc("/api/events", s.handleEvents)
	return withRequestLogging(mux)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.GetStatus(r.Context(), schema.GetStatusRequest{})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, statusPayload(resp.Console))
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	resp, err := s.service.GetTranscript(r.Context(), schema.GetTranscriptRequest{})
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, resp.Buffer.Text)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleStream(w, r)
	case http.MethodPost:
		s.handlePostEvent(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handlePostEvent(w http.ResponseWriter, r *http.Request) {
	log := pslog.Ctx(r.Context()).With("remote", clientIP(r))
	var payload struct {
		Event  string `json:"event"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		log.Warn("http event decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	event, err := eventFromPayload(payload.Event, payload.Width, payload.Height)
	if err != nil {
		log.Warn("http event rejected", "event", payload.Event, "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := s.service.PostEvent(r.Context(), schema.PostEventRequest{Event: event})
	if err != nil {
		log.Warn("http event post failed", "kind", event.Kind(), "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	if resp.Accepted {
		log.Info("http event posted", "kind", event.Kind())
	} else {
		log.Warn("http event dropped", "kind", event.Kind())
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": resp.Accepted, "kind": event.Kind()})
}

func eventFromPayload(name string, width, height int) (schema.ConsoleEvent, error) {
	kind, ok := schema.ParseEventKind(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidEvent, name)
	}
	switch kind {
	case schema.EventResize:
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("%w: resize requires positive width and height", schema.ErrInvalidEvent)
		}
		return schema.Resize{Width: width, Height: height}, nil
	case schema.EventMinimize:
		return schema.MinimizeRequested{}, nil
	case schema.EventMaximize:
		return schema.MaximizeRequested{}, nil
	case schema.EventRestore:
		return schema.RestoreRequested{}, nil
	case schema.EventExit:
		return schema.ExitRequested{}, nil
	case schema.EventDestroyed:
		return schema.Destroyed{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidEvent, name)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	log := pslog.Ctx(r.Context()).With("remote", clientIP(r))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))

	var snapshot *StatusPayload
	if resp, err := s.service.GetStatus(r.Context(), schema.GetStatusRequest{}); err == nil {
		payload := statusPayload(resp.Console)
		snapshot = &payload
	}
	_ = writeSSEvent(w, StreamEvent{
		Type:      "snapshot",
		Snapshot:  snapshot,
		Timestamp: time.Now(),
	})
	flusher.Flush()

	replayCount := 0
	if lastID > 0 {
		replay := s.hub.Replay(lastID)
		replayCount = len(replay)
		for _, event := range replay {
			_ = writeSSEvent(w, event)
		}
		flusher.Flush()
	}

	ch, unsubscribe, _, _ := s.hub.Subscribe()
	defer unsubscribe()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event := <-ch:
			_ = writeSSEvent(w, event)
			flusher.Flush()
		}
	}
}

func statusForError(err error) int {
	if errors.Is(err, schema.ErrServiceStopped) || errors.Is(err, schema.ErrQueueClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}
