package emit

import "sync"

// BufferedEmitter implements Emitter by retaining event history in memory.
//
// Two consumers rely on it:
//   - Tests asserting on the ordered event sequence of a run
//   - The streaming progress handler, which drains per-run events as they
//     arrive and forwards them to connected clients
//
// BufferedEmitter is safe for concurrent use.
type BufferedEmitter struct {
	mu     sync.Mutex
	events map[string][]Event // runID -> ordered events
	subs   map[string][]chan Event
}

// NewBufferedEmitter creates an empty BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{
		events: make(map[string][]Event),
		subs:   make(map[string][]chan Event),
	}
}

// Emit appends the event to the run's history and forwards it to any
// subscribers. Subscribers with full channels are skipped rather than
// blocked on; progress delivery is best-effort.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events[event.RunID] = append(b.events[event.RunID], event)

	for _, ch := range b.subs[event.RunID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// History returns a copy of the ordered events recorded for a run.
func (b *BufferedEmitter) History(runID string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := b.events[runID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Subscribe registers a channel that receives every subsequent event for the
// given run. The returned cancel function removes the subscription; it is
// safe to call more than once.
func (b *BufferedEmitter) Subscribe(runID string, buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[runID] = append(b.subs[runID], ch)
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[runID]
		for i, c := range subs {
			if c == ch {
				b.subs[runID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	return ch, cancel
}

// Clear removes the recorded history and subscriptions for a run.
func (b *BufferedEmitter) Clear(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.events, runID)
	delete(b.subs, runID)
}
