package editor

import "context"

// FroalaHandle is the native Froala instance surface (the html.* and undo.*
// command groups).
type FroalaHandle interface {
	HTMLGet() (string, error)
	HTMLSet(html string) error
	HTMLInsert(html string) error
	SaveUndoStep() error
	Element() (*Document, bool)
}

type FroalaAdapter struct {
	base
}

func (a *FroalaAdapter) resolve() (FroalaHandle, bool) {
	raw, ok := a.reg.Handle(a.id)
	if !ok {
		return nil, false
	}
	h, ok := raw.(FroalaHandle)
	return h, ok
}

func (a *FroalaAdapter) IsReady(ctx context.Context) bool {
	return a.await(ctx, func() bool {
		_, ok := a.resolve()
		return ok
	})
}

func (a *FroalaAdapter) GetContent(ctx context.Context) string {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		var content string
		if guard("froala.html.get", func() error {
			var err error
			content, err = h.HTMLGet()
			return err
		}) {
			return content
		}
		if el, ok := h.Element(); ok {
			return el.Value()
		}
	}

	if doc, ok := a.element(); ok {
		return doc.Value()
	}
	return ""
}

func (a *FroalaAdapter) SetContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("froala.html.set", func() error { return h.HTMLSet(html) }) {
			guard("froala.undo.saveStep", h.SaveUndoStep)
			return true
		}
		if el, ok := h.Element(); ok {
			el.SetValue(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.SetValue(html)
		return true
	}
	return false
}

func (a *FroalaAdapter) InsertContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)

	if h, ok := a.resolve(); ok {
		if guard("froala.html.insert", func() error { return h.HTMLInsert(html) }) {
			guard("froala.undo.saveStep", h.SaveUndoStep)
			return true
		}
		if el, ok := h.Element(); ok {
			el.Append(html)
			return true
		}
	}

	if doc, ok := a.element(); ok {
		doc.Append(html)
		return true
	}
	return false
}
