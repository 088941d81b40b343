package editor

import "context"

// TextAreaAdapter binds a plain form field. There is no native editor API:
// content is the element's literal value, never interpreted as markup.
type TextAreaAdapter struct {
	base
}

func (a *TextAreaAdapter) IsReady(ctx context.Context) bool {
	return a.await(ctx, func() bool {
		_, ok := a.element()
		return ok
	})
}

func (a *TextAreaAdapter) GetContent(ctx context.Context) string {
	a.IsReady(ctx)
	doc, ok := a.element()
	if !ok {
		return ""
	}
	return doc.Value()
}

func (a *TextAreaAdapter) SetContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)
	doc, ok := a.element()
	if !ok {
		return false
	}
	doc.SetValue(html)
	return true
}

func (a *TextAreaAdapter) InsertContent(ctx context.Context, html string) bool {
	a.IsReady(ctx)
	doc, ok := a.element()
	if !ok {
		return false
	}
	doc.Append(html)
	return true
}
