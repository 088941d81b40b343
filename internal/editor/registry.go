package editor

import "sync"

// Document is the raw underlying editable element of an editor binding: the
// last tier of every adapter's fallback chain. For a plain textarea it is
// the element itself. Content is held verbatim; nothing is parsed as markup.
type Document struct {
	mu    sync.RWMutex
	value string
}

func NewDocument() *Document {
	return &Document{}
}

func (d *Document) Value() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

func (d *Document) SetValue(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
}

func (d *Document) Append(v string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value += v
}

// Registry holds the live editor bindings the host has attached. Editors
// initialize after the widget does, so handles and elements may appear at
// any time; adapters poll for them instead of assuming presence.
type Registry struct {
	mu       sync.RWMutex
	handles  map[string]any
	elements map[string]*Document
}

func NewRegistry() *Registry {
	return &Registry{
		handles:  make(map[string]any),
		elements: make(map[string]*Document),
	}
}

// Attach registers the native editor instance for an editor id.
func (r *Registry) Attach(id string, handle any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[id] = handle
}

// AttachElement registers the underlying editable element for an editor id.
func (r *Registry) AttachElement(id string, doc *Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[id] = doc
}

func (r *Registry) Detach(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, id)
	delete(r.elements, id)
}

// Handle resolves the native editor instance, if the host has attached one.
func (r *Registry) Handle(id string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handles[id]
	return h, ok
}

// Element resolves the underlying editable element, if attached.
func (r *Registry) Element(id string) (*Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.elements[id]
	return d, ok
}
