package history

import "time"

// Kind classifies one row of the visible response history.
type Kind string

const (
	KindImprove      Kind = "improve"
	KindSummarize    Kind = "summarize"
	KindExpand       Kind = "expand"
	KindParaphrase   Kind = "paraphrase"
	KindMoreFormal   Kind = "more-formal"
	KindMoreCasual   Kind = "more-casual"
	KindChatQuestion Kind = "chat-question"
	KindChatResponse Kind = "chat-response"
	KindChatError    Kind = "chat-error"
	KindInfo         Kind = "info"
	KindError        Kind = "error"
	KindImageUpload  Kind = "image-upload"
)

// ImageRef is an attachment on a chat question: inline bytes or an external
// URL.
type ImageRef struct {
	URL  string `json:"url,omitempty"`
	MIME string `json:"mime,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// Entry is one row in the response history. Content accumulates raw streamed
// text; HTML is produced exactly once, by the finalize transition. While
// Streaming is set the front end appends plain text only and suppresses
// selection and transitions on the row.
type Entry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Kind      Kind      `json:"kind"`
	Content   string    `json:"content"`
	HTML      string    `json:"html,omitempty"`
	Image     *ImageRef `json:"image,omitempty"`
	Streaming bool      `json:"streaming"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"created_at"`
}

// clone returns an independent copy. The attachment bytes are shared; they
// never mutate after creation.
func (e *Entry) clone() *Entry {
	out := *e
	if e.Image != nil {
		img := *e.Image
		out.Image = &img
	}
	return &out
}
