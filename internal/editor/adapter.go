package editor

import (
	"context"
	"fmt"
	"time"

	"enhancer-backend/pkg/logger"
)

// Kind discriminates the supported editor integrations.
type Kind string

const (
	KindTextarea Kind = "textarea"
	KindTinyMCE  Kind = "tinymce"
	KindCKEditor Kind = "ckeditor"
	KindQuill    Kind = "quill"
	KindFroala   Kind = "froala"
)

// Adapter normalizes a third-party editor's content API. Implementations
// never propagate native failures: a failed get returns "", a failed
// set/insert returns false, and every operation awaits readiness first.
type Adapter interface {
	IsReady(ctx context.Context) bool
	GetContent(ctx context.Context) string
	SetContent(ctx context.Context, html string) bool
	InsertContent(ctx context.Context, html string) bool
}

// Options bound the readiness poll. Zero values take the defaults.
type Options struct {
	PollInterval time.Duration
	ReadyWithin  time.Duration
}

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultReadyWithin  = 2 * time.Second
)

// New selects the adapter variant once, at construction time. Callers never
// branch on editor type again.
func New(kind Kind, id string, reg *Registry, opts Options) (Adapter, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.ReadyWithin <= 0 {
		opts.ReadyWithin = defaultReadyWithin
	}
	b := base{id: id, reg: reg, opts: opts}

	switch kind {
	case KindTextarea:
		return &TextAreaAdapter{base: b}, nil
	case KindTinyMCE:
		return &TinyMCEAdapter{base: b}, nil
	case KindCKEditor:
		return &CKEditorAdapter{base: b}, nil
	case KindQuill:
		return &QuillAdapter{base: b}, nil
	case KindFroala:
		return &FroalaAdapter{base: b}, nil
	default:
		return nil, fmt.Errorf("unknown editor type %q", kind)
	}
}

type base struct {
	id   string
	reg  *Registry
	opts Options
}

// await polls cond until it holds or the bounded wait elapses. It returns
// false on timeout, never an error.
func (b *base) await(ctx context.Context, cond func() bool) bool {
	if cond() {
		return true
	}

	deadline := time.After(b.opts.ReadyWithin)
	tick := time.NewTicker(b.opts.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline:
			return false
		case <-tick.C:
			if cond() {
				return true
			}
		}
	}
}

// element is the terminal tier of every fallback chain: the raw underlying
// editable element.
func (b *base) element() (*Document, bool) {
	return b.reg.Element(b.id)
}

// guard runs one native-API call, converting panics and errors into a
// logged false so the fallback chain can continue.
func guard(op string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("editor: %s panicked: %v", op, r)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		logger.Warnf("editor: %s failed: %v", op, err)
		return false
	}
	return true
}
