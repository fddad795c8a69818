package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/socialflow-ai/socialflow/emit"
	"github.com/socialflow-ai/socialflow/pipeline"
)

// Progress event names sent over the stream, in order:
// connected, started, research, content, image, then completed or error.
const (
	sseConnected = "connected"
	sseStarted   = "started"
	sseCompleted = "completed"
	sseError     = "error"
)

// handleGenerateStream runs one generation and streams progress as
// server-sent events. The final event carries the full result.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	req, err := body.toPipelineRequest()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.log.Error("streaming not supported")
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Pin the run ID so we can subscribe before the workflow starts.
	req.RunID = uuid.NewString()
	events, cancel := s.events.Subscribe(req.RunID, 64)
	defer cancel()
	defer s.events.Clear(req.RunID)

	if err := writeSSE(w, flusher, sseConnected, map[string]string{"run_id": req.RunID}); err != nil {
		return
	}

	type outcome struct {
		result pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.workflow.Execute(r.Context(), req)
		done <- outcome{result: res, err: err}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := s.writeProgress(w, flusher, ev); err != nil {
				return
			}
		case out := <-done:
			// Flush any progress still buffered ahead of the result.
			for {
				select {
				case ev := <-events:
					if err := s.writeProgress(w, flusher, ev); err != nil {
						return
					}
					continue
				default:
				}
				break
			}
			s.writeFinal(w, flusher, out.result, out.err)
			return
		}
	}
}

// writeProgress maps workflow events to coarse progress events. Only the
// workflow start and stage starts stream live; success and failure are
// reported once by the final event.
func (s *Server) writeProgress(w http.ResponseWriter, flusher http.Flusher, ev emit.Event) error {
	switch ev.Kind {
	case emit.EventWorkflowStart:
		return writeSSE(w, flusher, sseStarted, map[string]interface{}{
			"run_id": ev.RunID,
			"topic":  ev.Meta["topic"],
		})
	case emit.EventStageStart:
		return writeSSE(w, flusher, ev.Stage, map[string]interface{}{
			"run_id":  ev.RunID,
			"message": ev.Msg,
		})
	default:
		return nil
	}
}

func (s *Server) writeFinal(w http.ResponseWriter, flusher http.Flusher, result pipeline.Result, err error) {
	if err != nil {
		s.log.Error("streamed workflow failed", "error", err)
		_ = writeSSE(w, flusher, sseError, map[string]string{"error": err.Error()})
		return
	}
	if !result.Success {
		_ = writeSSE(w, flusher, sseError, result)
		return
	}
	_ = writeSSE(w, flusher, sseCompleted, result)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
