package fsmedia

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/omnicast/internal/dirindex"
	"github.com/vmunix/omnicast/internal/media"
)

func newTestAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()
	root := t.TempDir()
	mkdirs := []string{
		"audio/music",
		"music/ambient",
		"movies",
	}
	for _, d := range mkdirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	files := map[string]string{
		"audio/music/song~remix.mp3": "beat",
		"audio/music/track1.mp3":     "track",
		"music/ambient/rain.mp3":     "rain",
		"music/ambient/wind.mp3":     "wind",
		"music/ambient/cover.jpg":    "jpg",
		"movies/Heat (1995).mkv":     "film",
		"movies/notes.txt":           "not media",
	}
	for rel, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}

	ix, err := dirindex.New(root, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return New(root, ix, nil), root
}

func TestGetItemRoundTrip(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	item, err := a.GetItem(ctx, "music/ambient/rain.mp3")
	require.NoError(t, err)
	assert.Equal(t, "media:music/ambient/rain.mp3", item.ID)
	assert.Equal(t, "rain", item.Title)
	require.NotNil(t, item.Play)
	assert.Equal(t, media.MediaAudio, item.Play.MediaType)
	assert.True(t, item.Play.Resumable)
	assert.True(t, item.IsLeaf())
	assert.Equal(t, "/proxy/media/stream/music/ambient/rain.mp3", item.Play.MediaURL)
	assert.Equal(t, "/proxy/media/thumb/music/ambient/rain.mp3", item.Thumb)
}

func TestGetItemContainer(t *testing.T) {
	a, _ := newTestAdapter(t)

	item, err := a.GetItem(context.Background(), "music/ambient")
	require.NoError(t, err)
	require.NotNil(t, item.List)
	assert.Equal(t, media.TypeContainer, item.List.Type)
	assert.Equal(t, 2, item.List.ChildCount) // cover.jpg is not a child item
	require.NotNil(t, item.Queue)
	assert.True(t, item.Queue.IsContainer)
	assert.Nil(t, item.Play)
}

func TestGetItemRootContainer(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	item, err := a.GetItem(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "media:.", item.ID)
	assert.Equal(t, ".", item.LocalID)
	assert.Equal(t, "media", item.Title)

	// The root id must round-trip through the compound-id form.
	source, localID, err := media.SplitID(item.ID)
	require.NoError(t, err)
	assert.Equal(t, "media", source)

	again, err := a.GetItem(ctx, localID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
}

func TestGetItemVideo(t *testing.T) {
	a, _ := newTestAdapter(t)

	item, err := a.GetItem(context.Background(), "movies/Heat (1995).mkv")
	require.NoError(t, err)
	require.NotNil(t, item.Play)
	assert.Equal(t, media.MediaVideo, item.Play.MediaType)
	assert.Equal(t, "Heat (1995)", item.Title)
}

func TestGetItemErrors(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.GetItem(ctx, "no/such/file.mp3")
	assert.ErrorIs(t, err, media.ErrNotFound)
	assert.Equal(t, "media", media.ErrSource(err))

	_, err = a.GetItem(ctx, "../outside")
	assert.ErrorIs(t, err, media.ErrInvalidReference)

	_, err = a.GetItem(ctx, "music/%2e%2e/%2e%2e/etc/passwd")
	assert.ErrorIs(t, err, media.ErrInvalidReference)
}

func TestFlattenedIDResolution(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	// audio/ and audio/music/ exist as directories, so the greedy walk
	// consumes them and the rest is the filename with '~' restored.
	item, err := a.GetItem(ctx, "audio~music~song~remix.mp3")
	require.NoError(t, err)
	assert.Equal(t, "audio/music/song~remix.mp3", item.LocalID)
	assert.Equal(t, "media:audio/music/song~remix.mp3", item.ID)
}

func TestGetListOrderAndFiltering(t *testing.T) {
	a, _ := newTestAdapter(t)

	items, err := a.GetList(context.Background(), "")
	require.NoError(t, err)
	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Equal(t, []string{"audio", "movies", "music"}, titles)

	items, err = a.GetList(context.Background(), "movies")
	require.NoError(t, err)
	require.Len(t, items, 1) // notes.txt filtered out
	assert.Equal(t, "Heat (1995)", items[0].Title)
}

func TestResolvePlayables(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	leaves, err := a.ResolvePlayables(ctx, "music")
	require.NoError(t, err)
	require.Len(t, leaves, 2)
	assert.Equal(t, "music/ambient/rain.mp3", leaves[0].LocalID)
	assert.Equal(t, "music/ambient/wind.mp3", leaves[1].LocalID)

	// A leaf resolves to itself.
	leaves, err = a.ResolvePlayables(ctx, "movies/Heat (1995).mkv")
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, "movies/Heat (1995).mkv", leaves[0].LocalID)
}

func TestStorageKey(t *testing.T) {
	a, _ := newTestAdapter(t)

	assert.Equal(t, "media/music", a.StorageKey("music/ambient/rain.mp3"))
	assert.Equal(t, "media/audio", a.StorageKey("audio~music~track1.mp3"))
	assert.Equal(t, "media", a.StorageKey("top.mp3"))
}

func TestOpenStream(t *testing.T) {
	a, _ := newTestAdapter(t)

	rc, info, err := a.OpenStream(context.Background(), "music/ambient/rain.mp3")
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, int64(4), info.Size)
	assert.Contains(t, info.ContentType, "audio")
	_, seekable := rc.(io.ReadSeeker)
	assert.True(t, seekable)

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "rain", string(data))
}

func TestOpenThumb(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	rc, ct, err := a.OpenThumb(ctx, "music/ambient")
	require.NoError(t, err)
	rc.Close()
	assert.Contains(t, ct, "image")

	_, _, err = a.OpenThumb(ctx, "movies")
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func TestResolveFolder(t *testing.T) {
	a, _ := newTestAdapter(t)

	got, ok := a.ResolveFolder("music")
	require.True(t, ok)
	assert.Equal(t, "music", got)

	// Word-order independent two-level match.
	got, ok = a.ResolveFolder("ambient music")
	require.True(t, ok)
	assert.Equal(t, "music/ambient", got)

	// Fuzzy match tolerates small typos.
	got, ok = a.ResolveFolder("moviez")
	require.True(t, ok)
	assert.Equal(t, "movies", got)

	_, ok = a.ResolveFolder("podcasts")
	assert.False(t, ok)
}
