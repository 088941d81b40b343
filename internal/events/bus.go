package events

import (
	"sync"

	"enhancer-backend/pkg/logger"
)

// Type names the notifications the widget emits toward the host page and
// toward the per-editor plugin shims.
type Type string

const (
	// ContentGenerated fires when a "use" action successfully wrote the
	// finalized text into the bound editor.
	ContentGenerated Type = "content-generated"
	// ToolAction fires when the toolbar requests a rewrite action.
	ToolAction Type = "toolaction"

	ResponseUse   Type = "responseUse"
	ResponseCopy  Type = "responseCopy"
	ResponseRetry Type = "responseRetry"
)

// Event carries the notification detail. ResponseID is set for history-row
// events; Content only for ContentGenerated.
type Event struct {
	Type       Type   `json:"type"`
	ResponseID string `json:"response_id,omitempty"`
	Action     string `json:"action,omitempty"`
	Content    string `json:"content,omitempty"`
}

// Bus fans events out to subscribers. Publishing never blocks: a subscriber
// that cannot keep up misses events (logged) rather than stalling the
// enhancement flow.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a receive channel and a cancel func that must be called
// to release it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.Warnf("events: subscriber %d full, dropping %s", id, ev.Type)
		}
	}
}
