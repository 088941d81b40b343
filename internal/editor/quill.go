package editor

import "context"

// QuillHandle is the native Quill instance surface. Quill has no setHTML:
// writes go through the clipboard module (paste over a deleted range), which
// Quill's history module records as a single undoable change.
type QuillHandle interface {
	GetSemanticHTML() (string, error)
	ContentLength() (int, error)
	DeleteText(index, length int) error
	PasteHTML(index int, html string) error
	Root() (*Document, bool)
}

type QuillAdapter struct {
	base
}

func (a *QuillAdapter) resolve() (QuillHandle, bool) {
	raw, ok := a.reg.Handle(a.id)
	if !ok {
		return nil, false
	}
	h, ok := raw.(QuillHandle)
	return h, ok
}

func (a *QuillAdapter) IsReady(ctx context.Context) bool {
	return a.await(ctx, func() bool {
		_, ok := a.resolve()
		return ok
	})
}

func (a *QuillAdapter) GetContent(ctx context.Context) string {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		var content string
		if guard("quill.getSemanticHTML", func() error {
			var err error
			content, err = h.GetSemanticHTML()
			return err
		}) {
			return content
		}
		if root, ok := h.Root(); ok {
			return root.Value()
		}
	}

	if doc, ok := a.element(); ok {
		return doc.Value()
	}
	return ""
}

func (a *QuillAdapter) SetContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("quill.setContent", func() error {
			length, err := h.ContentLength()
			if err != nil {
				return err
			}
			if length > 0 {
				if err := h.DeleteText(0, length); err != nil {
					return err
				}
			}
			return h.PasteHTML(0, html)
		}) {
			return true
		}
		if root, ok := h.Root(); ok {
			root.SetValue(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.SetValue(html)
		return true
	}
	return false
}

func (a *QuillAdapter) InsertContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("quill.insertContent", func() error {
			length, err := h.ContentLength()
			if err != nil {
				return err
			}
			return h.PasteHTML(length, html)
		}) {
			return true
		}
		if root, ok := h.Root(); ok {
			root.Append(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.Append(html)
		return true
	}
	return false
}
