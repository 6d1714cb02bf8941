package events

import (
	"sync"

	"forgechain/core/types"
)

// Payloader is implemented by module events that can render themselves into
// the generic attribute representation served over RPC.
type Payloader interface {
	Event() *types.Event
}

// Recorder retains emitted events in a bounded ring so external consumers can
// poll them back. The log is write-only from the engines' perspective; no
// module logic ever reads it.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	seq      uint64
	entries  []RecordedEvent
}

// RecordedEvent pairs an emitted event with its position in the stream.
type RecordedEvent struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

// NewRecorder constructs a recorder keeping at most capacity events.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Recorder{capacity: capacity}
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	payloader, ok := evt.(Payloader)
	if !ok {
		return
	}
	payload := payloader.Event()
	if payload == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.entries = append(r.entries, RecordedEvent{Sequence: r.seq, Event: payload})
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

// Since returns every retained event with a sequence greater than cursor.
func (r *Recorder) Since(cursor uint64) []RecordedEvent {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RecordedEvent, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Sequence > cursor {
			out = append(out, entry)
		}
	}
	return out
}
