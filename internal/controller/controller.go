package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"enhancer-backend/internal/cache"
	"enhancer-backend/internal/client"
	"enhancer-backend/internal/editor"
	"enhancer-backend/internal/events"
	"enhancer-backend/internal/history"
	"enhancer-backend/internal/prompt"
	"enhancer-backend/pkg/logger"
)

// Transport is the streaming request surface the controller drives.
// *client.Client implements it; tests substitute a fake.
type Transport interface {
	Enhance(ctx context.Context, action prompt.Action, text, contextText string, onDelta client.ProgressFunc) (string, error)
	Chat(ctx context.Context, conv *client.Conversation, message string, img *client.Image, onDelta client.ProgressFunc) (string, error)
}

var (
	ErrNotFinalized = errors.New("response is still streaming")
	ErrNoOrigin     = errors.New("response has no recorded request to retry")
	ErrEditorWrite  = errors.New("could not write into the editor")
)

// Controller orchestrates one widget instance: pick action, check cache,
// stream the request into a history entry, then reconcile the finished text
// into the bound editor on the user's "use" action. Concurrent actions run
// as independent entry/stream pairs; only "use" touches the editor binding.
type Controller struct {
	transport   Transport
	renderer    *history.Renderer
	adapter     editor.Adapter
	cache       *cache.Cache
	bus         *events.Bus
	contextText string

	mu        sync.Mutex
	conv      *client.Conversation
	originals map[string]origin
}

// origin is what "retry" needs to re-run a response from scratch.
type origin struct {
	action prompt.Action
	input  string
}

func New(transport Transport, renderer *history.Renderer, adapter editor.Adapter, store *cache.Cache, bus *events.Bus, contextText string) *Controller {
	return &Controller{
		transport:   transport,
		renderer:    renderer,
		adapter:     adapter,
		cache:       store,
		bus:         bus,
		contextText: contextText,
		originals:   make(map[string]origin),
	}
}

// RunAction executes one rewrite action over text. A cache hit
// short-circuits to a finalized entry with no network call. onDelta, when
// non-nil, observes each streamed delta in order (a cache hit produces
// none).
func (c *Controller) RunAction(ctx context.Context, action prompt.Action, text string, onDelta client.ProgressFunc) (*history.Entry, error) {
	if !prompt.IsTool(action) {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	c.bus.Publish(events.Event{Type: events.ToolAction, Action: string(action)})

	if cached, ok := c.cache.Get(string(action), text); ok {
		logger.Debugf("controller: cache hit for %s", action)
		entry, err := c.renderer.Add(history.Kind(action), cached, nil)
		if err != nil {
			return nil, err
		}
		c.recordOrigin(entry.ID, action, text)
		return entry, nil
	}

	return c.request(ctx, action, text, onDelta)
}

func (c *Controller) request(ctx context.Context, action prompt.Action, text string, onDelta client.ProgressFunc) (*history.Entry, error) {
	placeholder, err := c.renderer.Begin(history.Kind(action))
	if err != nil {
		return nil, err
	}

	result, err := c.transport.Enhance(ctx, action, text, c.contextText, func(delta string) {
		if appendErr := c.renderer.Append(placeholder.ID, delta); appendErr != nil {
			logger.Warnf("controller: dropped delta for %s: %v", placeholder.ID, appendErr)
		}
		if onDelta != nil {
			onDelta(delta)
		}
	})
	if err != nil {
		// Never leave a half-streamed row visible.
		if rmErr := c.renderer.Remove(placeholder.ID); rmErr != nil {
			logger.Warnf("controller: failed to remove placeholder %s: %v", placeholder.ID, rmErr)
		}
		entry, addErr := c.renderer.Add(history.KindError, userMessage(err), nil)
		if addErr != nil {
			return nil, addErr
		}
		return entry, err
	}

	entry, err := c.renderer.Finalize(placeholder.ID)
	if err != nil {
		return nil, err
	}

	c.cache.Set(string(action), text, result)
	c.recordOrigin(entry.ID, action, text)
	return entry, nil
}

// StartConversation opens a fresh chat exchange seeded with the editor's
// current content. The first-turn context latch resets here and nowhere
// else.
func (c *Controller) StartConversation(ctx context.Context) {
	editorText := c.adapter.GetContent(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conv = client.NewConversation(editorText, c.contextText)
}

// Chat submits one conversation turn, optionally with an attached image,
// and streams the answer into a chat-response entry.
func (c *Controller) Chat(ctx context.Context, message string, img *client.Image, onDelta client.ProgressFunc) (*history.Entry, error) {
	conv := c.conversation(ctx)

	var imgRef *history.ImageRef
	if img != nil {
		imgRef = &history.ImageRef{URL: img.URL, MIME: img.MIME, Data: img.Data}
	}
	if _, err := c.renderer.Add(history.KindChatQuestion, message, imgRef); err != nil {
		return nil, err
	}

	placeholder, err := c.renderer.Begin(history.KindChatResponse)
	if err != nil {
		return nil, err
	}

	if _, err := c.transport.Chat(ctx, conv, message, img, func(delta string) {
		if appendErr := c.renderer.Append(placeholder.ID, delta); appendErr != nil {
			logger.Warnf("controller: dropped chat delta for %s: %v", placeholder.ID, appendErr)
		}
		if onDelta != nil {
			onDelta(delta)
		}
	}); err != nil {
		if rmErr := c.renderer.Remove(placeholder.ID); rmErr != nil {
			logger.Warnf("controller: failed to remove placeholder %s: %v", placeholder.ID, rmErr)
		}
		entry, addErr := c.renderer.Add(history.KindChatError, userMessage(err), nil)
		if addErr != nil {
			return nil, addErr
		}
		return entry, err
	}

	return c.renderer.Finalize(placeholder.ID)
}

// conversation returns the open exchange, seeding one from the editor's
// current content on first use. Reading the editor happens outside the lock
// because readiness polling may take up to its bounded timeout.
func (c *Controller) conversation(ctx context.Context) *client.Conversation {
	c.mu.Lock()
	conv := c.conv
	c.mu.Unlock()
	if conv != nil {
		return conv
	}

	editorText := c.adapter.GetContent(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv == nil {
		c.conv = client.NewConversation(editorText, c.contextText)
	}
	return c.conv
}

// Use writes a finalized response into the bound editor, replacing its
// content, or inserting when insert is set. On success it emits
// content-generated; on failure the response entry is kept and a
// recoverable error returned.
func (c *Controller) Use(ctx context.Context, id string, insert bool) error {
	entry, err := c.renderer.Get(id)
	if err != nil {
		return err
	}
	if !entry.Finalized {
		return ErrNotFinalized
	}
	c.bus.Publish(events.Event{Type: events.ResponseUse, ResponseID: id})

	content := entry.HTML
	if content == "" {
		content = entry.Content
	}

	var ok bool
	if insert {
		ok = c.adapter.InsertContent(ctx, content)
	} else {
		ok = c.adapter.SetContent(ctx, content)
	}
	if !ok {
		return ErrEditorWrite
	}

	c.bus.Publish(events.Event{Type: events.ContentGenerated, ResponseID: id, Content: content})
	return nil
}

// Retry re-runs the action behind an existing response as a brand-new
// entry. The old entry is untouched and the cache is bypassed so the user
// actually gets a fresh result.
func (c *Controller) Retry(ctx context.Context, id string, onDelta client.ProgressFunc) (*history.Entry, error) {
	c.mu.Lock()
	orig, ok := c.originals[id]
	c.mu.Unlock()
	if !ok {
		return nil, ErrNoOrigin
	}

	c.bus.Publish(events.Event{Type: events.ResponseRetry, ResponseID: id})
	return c.request(ctx, orig.action, orig.input, onDelta)
}

// Copy returns the raw text of a response for the clipboard.
func (c *Controller) Copy(id string) (string, error) {
	entry, err := c.renderer.Get(id)
	if err != nil {
		return "", err
	}
	c.bus.Publish(events.Event{Type: events.ResponseCopy, ResponseID: id})
	return entry.Content, nil
}

func (c *Controller) recordOrigin(entryID string, action prompt.Action, input string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.originals[entryID] = origin{action: action, input: input}
}

// userMessage turns a typed transport failure into the human-readable text
// shown in the error history entry.
func userMessage(err error) string {
	var herr *client.HTTPError
	switch {
	case errors.As(err, &herr):
		if herr.Message != "" {
			return herr.Message
		}
		return fmt.Sprintf("The enhancement service rejected the request (status %d).", herr.Status)
	case errors.Is(err, client.ErrNetwork):
		return "Could not reach the enhancement service. Check your connection and the endpoint's CORS configuration."
	case errors.Is(err, client.ErrStream):
		return "The response stream was interrupted before completing."
	default:
		return "The request failed: " + err.Error()
	}
}
