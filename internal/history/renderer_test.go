package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererStreamingLifecycle(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, err := r.Begin(KindImprove)
	require.NoError(t, err)
	assert.False(t, e.Streaming)
	assert.Empty(t, e.Content)

	require.NoError(t, r.Append(e.ID, "# Hel"))
	got, err := r.Get(e.ID)
	require.NoError(t, err)
	assert.True(t, got.Streaming, "first delta must flip the entry into streaming")

	require.NoError(t, r.Append(e.ID, "lo"))
	got, _ = r.Get(e.ID)
	assert.Equal(t, "# Hello", got.Content)
	assert.Empty(t, got.HTML, "no markup rendering while streaming")

	final, err := r.Finalize(e.ID)
	require.NoError(t, err)
	assert.False(t, final.Streaming)
	assert.True(t, final.Finalized)
	assert.Contains(t, final.HTML, "<h1")
	assert.Contains(t, final.HTML, "Hello")
}

func TestFinalizeIsIdempotent(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, _ := r.Begin(KindSummarize)
	require.NoError(t, r.Append(e.ID, "*text*"))

	first, err := r.Finalize(e.ID)
	require.NoError(t, err)
	second, err := r.Finalize(e.ID)
	require.NoError(t, err)

	assert.Equal(t, first.HTML, second.HTML)
	assert.Equal(t, first.Content, second.Content)
}

func TestAppendAfterFinalizeIsRejected(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, _ := r.Begin(KindExpand)
	require.NoError(t, r.Append(e.ID, "done"))
	_, err := r.Finalize(e.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, r.Append(e.ID, "more"), ErrFinalized)
}

func TestEntriesKeepInsertionOrder(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	q, _ := r.Add(KindChatQuestion, "what is this?", nil)
	a, _ := r.Begin(KindChatResponse)
	i, _ := r.Add(KindInfo, "welcome", nil)

	entries, err := r.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []string{q.ID, a.ID, i.ID}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
	assert.Less(t, entries[0].Seq, entries[1].Seq)
}

func TestRemoveLeavesNoOrphan(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, _ := r.Begin(KindParaphrase)
	require.NoError(t, r.Append(e.ID, "par"))
	require.NoError(t, r.Remove(e.ID))

	_, err := r.Get(e.ID)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	entries, _ := r.Entries()
	assert.Empty(t, entries)

	assert.ErrorIs(t, r.Append(e.ID, "tial"), ErrEntryNotFound)
}

func TestAddIsFinalFromTheStart(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, err := r.Add(KindChatQuestion, "hello **there**", &ImageRef{URL: "https://example.com/a.png"})
	require.NoError(t, err)
	assert.True(t, e.Finalized)
	assert.Contains(t, e.HTML, "<strong>there</strong>")
	require.NotNil(t, e.Image)
	assert.Equal(t, "https://example.com/a.png", e.Image.URL)
}

func TestGetAndEntriesReturnSnapshots(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, _ := r.Begin(KindImprove)
	require.NoError(t, r.Append(e.ID, "first"))

	snap, err := r.Get(e.ID)
	require.NoError(t, err)
	list, err := r.Entries()
	require.NoError(t, err)

	require.NoError(t, r.Append(e.ID, " second"))

	assert.Equal(t, "first", snap.Content, "a held snapshot must not move with the stream")
	assert.Equal(t, "first", list[0].Content)

	got, _ := r.Get(e.ID)
	assert.Equal(t, "first second", got.Content)
}

func TestEntriesSafeDuringActiveStream(t *testing.T) {
	r := NewRenderer(NewMemoryStore())

	e, _ := r.Begin(KindSummarize)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = r.Append(e.ID, "x")
		}
		_, _ = r.Finalize(e.ID)
	}()

	// Readers poll the history like the list endpoint does while the
	// stream above keeps appending.
	for i := 0; i < 200; i++ {
		entries, err := r.Entries()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		_ = entries[0].Content
		_ = entries[0].Streaming
	}
	<-done

	got, _ := r.Get(e.ID)
	assert.Len(t, got.Content, 200)
	assert.True(t, got.Finalized)
}

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s := NewDiskStore(dir)
	require.NoError(t, s.Init())

	r := NewRenderer(s)
	e, _ := r.Begin(KindImprove)
	require.NoError(t, r.Append(e.ID, "persisted"))
	_, err := r.Finalize(e.ID)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reloaded := NewDiskStore(dir)
	require.NoError(t, reloaded.Init())
	entries, err := reloaded.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persisted", entries[0].Content)
	assert.True(t, entries[0].Finalized)
}

func TestDiskStoreDegradesWhenDirVanishes(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)
	require.NoError(t, s.Init())

	// Simulate storage becoming unavailable mid-run.
	require.NoError(t, os.RemoveAll(filepath.Join(dir)))

	r := NewRenderer(s)
	e, err := r.Add(KindInfo, "still works", nil)
	require.NoError(t, err, "persistence failure must not block the primary flow")

	got, err := r.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "still works", got.Content)
}
