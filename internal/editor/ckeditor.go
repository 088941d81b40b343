package editor

import "context"

// CKEditorHandle is the native CKEditor 5 instance surface. Writes through
// SetData/InsertHTML run inside the editor's model, so they land on its
// undo stack without an explicit snapshot call.
type CKEditorHandle interface {
	GetData() (string, error)
	SetData(html string) error
	InsertHTML(html string) error
	Editable() (*Document, bool)
}

type CKEditorAdapter struct {
	base
}

func (a *CKEditorAdapter) resolve() (CKEditorHandle, bool) {
	raw, ok := a.reg.Handle(a.id)
	if !ok {
		return nil, false
	}
	h, ok := raw.(CKEditorHandle)
	return h, ok
}

func (a *CKEditorAdapter) IsReady(ctx context.Context) bool {
	return a.await(ctx, func() bool {
		_, ok := a.resolve()
		return ok
	})
}

func (a *CKEditorAdapter) GetContent(ctx context.Context) string {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		var content string
		if guard("ckeditor.getData", func() error {
			var err error
			content, err = h.GetData()
			return err
		}) {
			return content
		}
		if ed, ok := h.Editable(); ok {
			return ed.Value()
		}
	}

	if doc, ok := a.element(); ok {
		return doc.Value()
	}
	return ""
}

func (a *CKEditorAdapter) SetContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("ckeditor.setData", func() error { return h.SetData(html) }) {
			return true
		}
		if ed, ok := h.Editable(); ok {
			ed.SetValue(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.SetValue(html)
		return true
	}
	return false
}

func (a *CKEditorAdapter) InsertContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("ckeditor.insertHtml", func() error { return h.InsertHTML(html) }) {
			return true
		}
		if ed, ok := h.Editable(); ok {
			ed.Append(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.Append(html)
		return true
	}
	return false
}
