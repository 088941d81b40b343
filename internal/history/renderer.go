package history

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"

	"enhancer-backend/pkg/logger"
)

var (
	// ErrFinalized rejects appends to a row whose text is already rendered.
	// Finalized content never mutates.
	ErrFinalized = errors.New("entry already finalized")
)

// Renderer owns the append-only response history and the per-entry streaming
// state machine: NotStarted -> Streaming (first delta) -> Finalized (one-time
// markdown render). Entries render in strict insertion order.
type Renderer struct {
	mu    sync.Mutex
	store Store
	seq   int64
}

func NewRenderer(store Store) *Renderer {
	return &Renderer{store: store}
}

// Begin creates an empty placeholder entry for an incoming stream.
func (r *Renderer) Begin(kind Kind) (*Entry, error) {
	return r.add(kind, "", nil, false)
}

// Add appends a non-streamed row (a question, info or error message) that is
// final from the start.
func (r *Renderer) Add(kind Kind, content string, img *ImageRef) (*Entry, error) {
	return r.add(kind, content, img, true)
}

func (r *Renderer) add(kind Kind, content string, img *ImageRef, final bool) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e := &Entry{
		ID:        uuid.New().String(),
		Seq:       r.seq,
		Kind:      kind,
		Content:   content,
		Image:     img,
		CreatedAt: time.Now(),
	}
	if final {
		e.HTML = renderMarkdown(content)
		e.Finalized = true
	}

	if err := r.store.Append(e); err != nil {
		return nil, err
	}
	return e.clone(), nil
}

// Append applies one stream delta to an entry. The first delta flips the
// entry into the streaming state. Deltas only ever extend the content;
// nothing already appended is retracted.
func (r *Renderer) Append(id, delta string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.store.Get(id)
	if err != nil {
		return err
	}
	if e.Finalized {
		return ErrFinalized
	}

	e.Streaming = true
	e.Content += delta
	return r.store.Update(e)
}

// Finalize performs the one-time transition from raw streamed text to
// rendered markdown HTML. Calling it again is a no-op that yields the same
// entry.
func (r *Renderer) Finalize(id string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	if e.Finalized {
		return e.clone(), nil
	}

	e.HTML = renderMarkdown(e.Content)
	e.Streaming = false
	e.Finalized = true
	if err := r.store.Update(e); err != nil {
		return nil, err
	}

	logger.Debugf("history: finalized entry %s (%s, %d bytes)", e.ID, e.Kind, len(e.Content))
	return e.clone(), nil
}

// Remove deletes an entry and its row; used when a request fails before any
// content arrived, so no half-streamed row stays visible.
func (r *Renderer) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Remove(id)
}

// Get returns a snapshot of one entry. Callers hold a copy; a stream still
// appending to the row cannot mutate it out from under them.
func (r *Renderer) Get(id string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return e.clone(), nil
}

// Entries returns a snapshot of the history in insertion order.
func (r *Renderer) Entries() ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live, err := r.store.List()
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, len(live))
	for i, e := range live {
		out[i] = e.clone()
	}
	return out, nil
}

func (r *Renderer) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Clear()
}

func renderMarkdown(content string) string {
	if content == "" {
		return ""
	}
	return string(blackfriday.Run([]byte(content)))
}
