package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use cases:
//   - Tests that don't assert on events
//   - Disabling event emission without changing wiring
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}
