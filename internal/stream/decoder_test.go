package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoderEmitsDeltasInOrder(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write("data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n")
	assert.Equal(t, []string{"Hel"}, deltas)

	deltas = d.Write("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\ndata: [DONE]\n")
	assert.Equal(t, []string{"lo"}, deltas)

	assert.Equal(t, "", d.Flush())
	assert.Equal(t, 2, d.EmittedFrames())
}

func TestDecoderSplitAtArbitraryBoundaries(t *testing.T) {
	full := "data: {\"choices\":[{\"delta\":{\"content\":\"Hello, \"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"wide \\u4e16\\u754c\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"!\"}}]}\n" +
		"data: [DONE]\n"

	whole := NewDecoder()
	want := strings.Join(whole.Write(full), "")
	want += whole.Flush()
	assert.Equal(t, "Hello, wide 世界!", want)

	// Any split point, including mid-JSON-token, must yield the same text.
	for cut := 0; cut <= len(full); cut++ {
		d := NewDecoder()
		var got strings.Builder
		for _, delta := range d.Write(full[:cut]) {
			got.WriteString(delta)
		}
		for _, delta := range d.Write(full[cut:]) {
			got.WriteString(delta)
		}
		got.WriteString(d.Flush())
		assert.Equalf(t, want, got.String(), "split at byte %d", cut)
	}
}

func TestDecoderIgnoresNonDataLines(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write(": keep-alive\n\nevent: message\ndata: {\"content\":\"x\"}\n")
	assert.Equal(t, []string{"x"}, deltas)
}

func TestDecoderExtractionPriority(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
	}{
		{"delta content", `data: {"choices":[{"delta":{"content":"a"}}]}`, "a"},
		{"plain text field", `data: {"choices":[{"text":"b"}]}`, "b"},
		{"nested message content", `data: {"choices":[{"message":{"content":"c"}}]}`, "c"},
		{"top-level text", `data: {"text":"d"}`, "d"},
		{"top-level content", `data: {"content":"e"}`, "e"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDecoder()
			deltas := d.Write(tc.line + "\n")
			assert.Equal(t, []string{tc.want}, deltas)
		})
	}
}

func TestDecoderSkipsContentlessFrames(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\ndata: {\"usage\":{\"total_tokens\":3}}\n")
	assert.Empty(t, deltas)
	assert.Equal(t, 0, d.EmittedFrames())
}

func TestDecoderMalformedCompleteLineFallsBackToLiteral(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write("data: not json at all\ndata: {\"content\":\"ok\"}\n")
	// The bad frame is recovered as literal text and does not poison the next.
	assert.Equal(t, []string{"not json at all", "ok"}, deltas)
}

func TestDecoderFlushRecoversTruncatedJSON(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write(`data: {"choices":[{"delta":{"content":"Hi`)
	assert.Empty(t, deltas)

	// Best-effort recovery must yield non-empty text, not silently drop it.
	got := d.Flush()
	assert.NotEmpty(t, got)
}

func TestDecoderFlushExtractsContentPattern(t *testing.T) {
	d := NewDecoder()

	d.Write(`data: {"choices":[{"delta":{"content":"tail text"}}]`)
	assert.Equal(t, "tail text", d.Flush())
}

func TestDecoderFlushIgnoresDoneSentinel(t *testing.T) {
	d := NewDecoder()

	d.Write("data: [DONE]")
	assert.Equal(t, "", d.Flush())
}

func TestDecoderFlushDecodesCompleteTrailingFrame(t *testing.T) {
	d := NewDecoder()

	d.Write(`data: {"choices":[{"delta":{"content":"end"}}]}`)
	assert.Equal(t, "end", d.Flush())
}

func TestDecoderNoRetraction(t *testing.T) {
	d := NewDecoder()
	var acc strings.Builder
	prevLen := 0

	chunks := []string{
		"data: {\"choices\":[{\"delta\":{\"content\":\"one \"}}]}\n",
		"data: broken {{{\n",
		"data: {\"choices\":[{\"delta\":{\"content\":\"two\"}}]}\n",
	}
	for _, chunk := range chunks {
		for _, delta := range d.Write(chunk) {
			acc.WriteString(delta)
		}
		if acc.Len() < prevLen {
			t.Fatalf("accumulated text shrank from %d to %d", prevLen, acc.Len())
		}
		prevLen = acc.Len()
	}
	assert.Contains(t, acc.String(), "one ")
	assert.Contains(t, acc.String(), "two")
}

func TestDecoderCRLFLines(t *testing.T) {
	d := NewDecoder()

	deltas := d.Write("data: {\"content\":\"a\"}\r\ndata: {\"content\":\"b\"}\r\n")
	assert.Equal(t, []string{"a", "b"}, deltas)
}
