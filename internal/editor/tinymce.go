package editor

import "context"

// TinyMCEHandle is the native TinyMCE instance surface the host bridge
// implements. Body is the editor's editable body element, used as the
// secondary access tier when the content API fails.
type TinyMCEHandle interface {
	GetContent(format string) (string, error)
	SetContent(html string) error
	InsertContent(html string) error
	AddUndoLevel() error
	Body() (*Document, bool)
}

type TinyMCEAdapter struct {
	base
}

func (a *TinyMCEAdapter) resolve() (TinyMCEHandle, bool) {
	raw, ok := a.reg.Handle(a.id)
	if !ok {
		return nil, false
	}
	h, ok := raw.(TinyMCEHandle)
	return h, ok
}

func (a *TinyMCEAdapter) IsReady(ctx context.Context) bool {
	return a.await(ctx, func() bool {
		_, ok := a.resolve()
		return ok
	})
}

func (a *TinyMCEAdapter) GetContent(ctx context.Context) string {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		var content string
		if guard("tinymce.getContent", func() error {
			var err error
			content, err = h.GetContent("html")
			return err
		}) {
			return content
		}
		if body, ok := h.Body(); ok {
			return body.Value()
		}
	}

	if doc, ok := a.element(); ok {
		return doc.Value()
	}
	return ""
}

func (a *TinyMCEAdapter) SetContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("tinymce.setContent", func() error { return h.SetContent(html) }) {
			// Register the programmatic write with the editor's own undo
			// stack so user-visible undo keeps working.
			guard("tinymce.undoManager.add", h.AddUndoLevel)
			return true
		}
		if body, ok := h.Body(); ok {
			body.SetValue(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.SetValue(html)
		return true
	}
	return false
}

func (a *TinyMCEAdapter) InsertContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("tinymce.insertContent", func() error { return h.InsertContent(html) }) {
			guard("tinymce.undoManager.add", h.AddUndoLevel)
			return true
		}
		if body, ok := h.Body(); ok {
			body.Append(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.Append(html)
		return true
	}
	return false
}
