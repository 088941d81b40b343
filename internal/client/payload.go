package client

import (
	"encoding/base64"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// request is the envelope the proxy expects. The messages array carries
// provider-shaped content, so its element type is left open.
type request struct {
	Messages    []message `json:"messages"`
	Temperature float32   `json:"temperature"`
	Stream      bool      `json:"stream"`
	TenantID    string    `json:"tenantId"`
	UserID      string    `json:"userId"`
	ButtonID    string    `json:"buttonId"`
	HasImage    bool      `json:"hasImage,omitempty"`
}

// message is one chat turn. Content is either a plain string or a slice of
// provider-specific parts when an image is attached.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Image is an attachment for a chat question: either raw bytes with a MIME
// type, or an external URL reference.
type Image struct {
	Data []byte
	MIME string
	URL  string
}

// anthropicImagePart is the structured image-source encoding. go-openai has
// no type for it, so the shape is spelled out here.
type anthropicImagePart struct {
	Type   string              `json:"type"`
	Text   string              `json:"text,omitempty"`
	Source *anthropicImgSource `json:"source,omitempty"`
}

type anthropicImgSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// imageContent shapes (text, image) into exactly one of the three accepted
// part encodings, selected by the configured provider:
// inline base64 data URI (openai), structured image-source object
// (anthropic), or externally-referenced URL (mistral).
func imageContent(provider, text string, img *Image) (any, error) {
	switch provider {
	case "anthropic":
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("anthropic image encoding requires inline data")
		}
		return []anthropicImagePart{
			{Type: "text", Text: text},
			{Type: "image", Source: &anthropicImgSource{
				Type:      "base64",
				MediaType: img.MIME,
				Data:      base64.StdEncoding.EncodeToString(img.Data),
			}},
		}, nil

	case "mistral":
		if img.URL == "" {
			return nil, fmt.Errorf("mistral image encoding requires an external URL")
		}
		return []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: img.URL}},
		}, nil

	default: // openai
		uri := img.URL
		if len(img.Data) > 0 {
			uri = fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data))
		}
		if uri == "" {
			return nil, fmt.Errorf("image has neither data nor URL")
		}
		return []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: text},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: uri}},
		}, nil
	}
}

// Conversation is one open chat exchange. The prior editor content and
// context text are sent exactly once, on the first turn; the latch resets
// only when a new Conversation starts.
type Conversation struct {
	mu          sync.Mutex
	editorText  string
	contextText string
	contextSent bool
	turns       []message
}

// NewConversation opens a chat exchange seeded with the editor's current
// content and the host-page context text.
func NewConversation(editorText, contextText string) *Conversation {
	return &Conversation{
		editorText:  editorText,
		contextText: contextText,
	}
}

// buildMessages assembles the full message list for the next turn. The
// caller commits the turn with commit() only after the request succeeds, so
// a failed first turn still re-sends the context on retry.
func (cv *Conversation) buildMessages(userContent any) []message {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	msgs := []message{{
		Role:    "system",
		Content: "You are a helpful writing assistant embedded in a text editor. Answer the user's questions about their text.",
	}}

	if !cv.contextSent && (cv.editorText != "" || cv.contextText != "") {
		seed := "Current editor content:\n" + cv.editorText
		if cv.contextText != "" {
			seed += "\n\nAdditional context:\n" + cv.contextText
		}
		msgs = append(msgs, message{Role: "user", Content: seed})
		msgs = append(msgs, message{Role: "assistant", Content: "Understood. I have the editor content and context."})
	}

	msgs = append(msgs, cv.turns...)
	return append(msgs, message{Role: "user", Content: userContent})
}

// commit records a completed turn and latches the context as sent.
func (cv *Conversation) commit(userContent any, assistantText string) {
	cv.mu.Lock()
	defer cv.mu.Unlock()

	cv.contextSent = true
	cv.turns = append(cv.turns,
		message{Role: "user", Content: userContent},
		message{Role: "assistant", Content: assistantText},
	)
}
