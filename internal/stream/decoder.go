package stream

import (
	"encoding/json"
	"regexp"
	"strings"

	"enhancer-backend/pkg/logger"
)

const (
	dataMarker   = "data:"
	doneSentinel = "[DONE]"

	// Streams have been observed to open with a truncated first frame.
	// Anything this short is logged for diagnosis but still emitted as-is.
	shortFirstFrame = 5
)

// contentPattern recovers `"content":"..."` payloads from frames that never
// became valid JSON (e.g. a stream cut off mid-token).
var contentPattern = regexp.MustCompile(`"content"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// Decoder turns a chunked text stream of `data:`-prefixed frames into an
// ordered sequence of content deltas. Chunks may split frames at arbitrary
// byte boundaries; the unterminated tail is carried over to the next Write.
// Emitted deltas are never retracted: their concatenation is the full text.
type Decoder struct {
	buf    string
	frames int
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// framePayload mirrors the known upstream chunk shapes. Extraction priority:
// choices[].delta.content, then a plain text field, then the nested
// choices[].message.content shape. First non-empty extraction wins.
type framePayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Text    string `json:"text"`
	Content string `json:"content"`
}

// Write appends a raw chunk to the internal buffer and returns the content
// deltas completed by it, in order.
func (d *Decoder) Write(chunk string) []string {
	d.buf += chunk

	lines := strings.Split(d.buf, "\n")
	d.buf = lines[len(lines)-1]

	var deltas []string
	for _, line := range lines[:len(lines)-1] {
		if delta, ok := d.decodeLine(line); ok {
			d.emitDelta(delta, &deltas)
		}
	}
	return deltas
}

// Flush performs a final best-effort decode of whatever remains buffered.
// Call it exactly once, when the transport reports the stream is done.
func (d *Decoder) Flush() string {
	line := strings.TrimRight(d.buf, "\r")
	d.buf = ""
	if line == "" {
		return ""
	}

	payload := line
	if rest, ok := stripMarker(line); ok {
		payload = rest
	}
	if payload == "" || payload == doneSentinel {
		return ""
	}

	if content, ok := extract([]byte(payload)); ok {
		var out []string
		d.emitDelta(content, &out)
		return content
	}

	// The trailing frame never became valid JSON; recover the content field
	// by pattern before falling back to the literal text.
	if m := contentPattern.FindStringSubmatch(payload); m != nil {
		if unquoted, err := unescapeJSONString(m[1]); err == nil {
			var out []string
			d.emitDelta(unquoted, &out)
			return unquoted
		}
	}

	logger.Debugf("stream: flushing unparseable trailing frame as literal text (%d bytes)", len(payload))
	var out []string
	d.emitDelta(payload, &out)
	return payload
}

// EmittedFrames reports how many deltas have been produced so far.
func (d *Decoder) EmittedFrames() int {
	return d.frames
}

func (d *Decoder) decodeLine(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")

	payload, ok := stripMarker(line)
	if !ok {
		// Not an event frame (comment, blank line, unrelated field): ignore.
		return "", false
	}
	if payload == "" || payload == doneSentinel {
		// End is signaled separately by stream completion.
		return "", false
	}

	if content, ok := extract([]byte(payload)); ok {
		if content == "" {
			return "", false
		}
		return content, true
	}

	// Malformed frame. Never drop user-visible data silently: treat the raw
	// payload as literal content. One bad frame must not poison the next.
	logger.Debugf("stream: frame %d failed JSON decode, emitting literal payload", d.frames)
	return payload, true
}

func (d *Decoder) emitDelta(delta string, deltas *[]string) {
	if delta == "" {
		return
	}
	if d.frames == 0 && len(delta) < shortFirstFrame {
		logger.Warnf("stream: first frame is only %d bytes, possible upstream truncation", len(delta))
	}
	d.frames++
	*deltas = append(*deltas, delta)
}

func stripMarker(line string) (string, bool) {
	if !strings.HasPrefix(line, dataMarker) {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(line, dataMarker), " "), true
}

func extract(payload []byte) (string, bool) {
	var frame framePayload
	if err := json.Unmarshal(payload, &frame); err != nil {
		return "", false
	}

	for _, choice := range frame.Choices {
		if choice.Delta.Content != "" {
			return choice.Delta.Content, true
		}
		if choice.Text != "" {
			return choice.Text, true
		}
		if choice.Message.Content != "" {
			return choice.Message.Content, true
		}
	}
	if frame.Text != "" {
		return frame.Text, true
	}
	if frame.Content != "" {
		return frame.Content, true
	}

	// Valid JSON with no content anywhere (role-only delta, usage frame).
	return "", true
}

func unescapeJSONString(s string) (string, error) {
	var out string
	err := json.Unmarshal([]byte(`"`+s+`"`), &out)
	return out, err
}
