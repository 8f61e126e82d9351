package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/ai-visibility/internal/pipeline"
)

var errStreamingUnsupported = errors.New("streaming not supported")

// reportStream writes a report run as Server-Sent Events. Progress callbacks
// may arrive from the runner while the final event is written, so every
// write holds mu.
type reportStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
}

func newReportStream(w http.ResponseWriter) (*reportStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &reportStream{w: w, flusher: flusher}, nil
}

func (s *reportStream) send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if _, err := fmt.Fprintf(s.w, "id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *reportStream) progress(event pipeline.ProgressEvent) error {
	return s.send("progress", event)
}

func (s *reportStream) complete(report *pipeline.Report) error {
	return s.send("complete", map[string]any{
		"run_id": report.RunID.String(),
		"status": "completed",
		"report": report,
	})
}

func (s *reportStream) fail(err error) error {
	return s.send("error", map[string]string{"error": err.Error()})
}
