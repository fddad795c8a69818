package emit

// Emitter receives observability events from pipeline execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files
//   - Distributed tracing: OpenTelemetry
//   - Live progress: buffered history replayed over a streaming transport
//
// Implementations must be:
//   - Non-blocking: never slow down or fail the pipeline
//   - Thread-safe: may be called concurrently from multiple runs
//   - Resilient: swallow backend failures (an event sink must never
//     terminate a workflow)
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit must not panic and must not return errors to the caller;
	// failures are handled internally.
	Emit(event Event)
}

// MultiEmitter fans one event stream out to several emitters.
//
// Used by the HTTP layer to feed both the process-wide log emitter and a
// per-request progress buffer from a single pipeline run.
type MultiEmitter struct {
	emitters []Emitter
}

// NewMultiEmitter creates an emitter that forwards each event to all of the
// given emitters in order. Nil entries are skipped.
func NewMultiEmitter(emitters ...Emitter) *MultiEmitter {
	out := make([]Emitter, 0, len(emitters))
	for _, e := range emitters {
		if e != nil {
			out = append(out, e)
		}
	}
	return &MultiEmitter{emitters: out}
}

// Emit forwards the event to every configured emitter.
func (m *MultiEmitter) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
