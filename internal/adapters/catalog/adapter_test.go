package catalog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/omnicast/internal/media"
)

const morningManifest = `
title = "Morning Shows"
description = "Weekday rotation"
mode = "heuristic"
thumb = "cover.jpg"

[[items]]
id = "news"
title = "Daily News"
file = "news.mp4"
media = "video"
days = ["weekdays"]
duration = "25m"
priority = 2

[[items]]
id = "cartoons"
title = "Saturday Cartoons"
file = "cartoons.mp4"
days = ["weekend"]
hold = true

[[items]]
id = "radio"
title = "Morning Radio"
url = "http://radio.example/live"
media = "live"

[[items]]
id = "recipes"
title = "Recipe Site"
url = "https://recipes.example"
open = "external"
`

const musicManifest = `
title = "Focus Music"
mode = "shuffle"

[[items]]
id = "lofi"
title = "Lofi Mix"
file = "lofi.mp3"
media = "audio"
resumable = false
`

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	root := t.TempDir()
	write := func(rel, content string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, rel)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644))
	}
	write("morning/catalog.toml", morningManifest)
	write("morning/news.mp4", "news-bytes")
	write("morning/cartoons.mp4", "toons")
	write("morning/cover.jpg", "jpg")
	write("music/catalog.toml", musicManifest)
	write("music/lofi.mp3", "lofi")
	// A directory without a manifest is not a collection.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scratch"), 0o755))
	return New(root, nil)
}

func TestRootListing(t *testing.T) {
	a := newTestAdapter(t)

	items, err := a.GetList(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Morning Shows", items[0].Title)
	assert.Equal(t, "catalog:morning", items[0].ID)
	assert.Equal(t, media.TraversalHeuristic, items[0].Queue.Mode)
	assert.Equal(t, media.TraversalShuffle, items[1].Queue.Mode)
}

func TestEntryCapabilities(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	item, err := a.GetItem(ctx, "morning/news")
	require.NoError(t, err)
	assert.Equal(t, "catalog:morning/news", item.ID)
	assert.Equal(t, "Daily News", item.Title)
	require.NotNil(t, item.Play)
	assert.Equal(t, media.MediaVideo, item.Play.MediaType)
	assert.Equal(t, 25*time.Minute, item.Play.Duration)
	assert.True(t, item.Play.Resumable)
	assert.Equal(t, []string{"weekdays"}, item.Props.GetList("days"))
	v, _ := item.Props.Get("priority")
	assert.Equal(t, "2", v)

	held, err := a.GetItem(ctx, "morning/cartoons")
	require.NoError(t, err)
	assert.True(t, held.Props.Bool("hold"))

	live, err := a.GetItem(ctx, "morning/radio")
	require.NoError(t, err)
	require.NotNil(t, live.Play)
	assert.Equal(t, media.MediaLive, live.Play.MediaType)
	assert.False(t, live.Play.Resumable)

	link, err := a.GetItem(ctx, "morning/recipes")
	require.NoError(t, err)
	assert.Nil(t, link.Play)
	require.NotNil(t, link.Open)
	assert.Equal(t, media.OpenExternal, link.Open.Type)
	assert.Equal(t, "https://recipes.example", link.Open.URL)

	nonResumable, err := a.GetItem(ctx, "music/lofi")
	require.NoError(t, err)
	assert.False(t, nonResumable.Play.Resumable)
}

func TestResolvePlayablesSkipsOpenables(t *testing.T) {
	a := newTestAdapter(t)

	leaves, err := a.ResolvePlayables(context.Background(), "morning")
	require.NoError(t, err)
	var ids []string
	for _, l := range leaves {
		ids = append(ids, l.LocalID)
	}
	// recipes is openable-only and stays out of the playable set.
	assert.Equal(t, []string{"morning/news", "morning/cartoons", "morning/radio"}, ids)
}

func TestNotFound(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	_, err := a.GetItem(ctx, "morning/nope")
	assert.ErrorIs(t, err, media.ErrNotFound)

	_, err = a.GetItem(ctx, "scratch")
	assert.ErrorIs(t, err, media.ErrNotFound)

	_, err = a.GetItem(ctx, "../outside")
	assert.ErrorIs(t, err, media.ErrInvalidReference)
}

func TestStorageKey(t *testing.T) {
	a := newTestAdapter(t)
	assert.Equal(t, "catalog/morning", a.StorageKey("morning/news"))
	assert.Equal(t, "catalog/music", a.StorageKey("music"))
}

func TestOpenStreamAndThumb(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	rc, info, err := a.OpenStream(ctx, "morning/news")
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "news-bytes", string(data))
	assert.Equal(t, int64(len("news-bytes")), info.Size)
	assert.Contains(t, info.ContentType, "video")

	// URL-backed entries have no local bytes.
	_, _, err = a.OpenStream(ctx, "morning/recipes")
	assert.ErrorIs(t, err, media.ErrNotFound)

	rc, ct, err := a.OpenThumb(ctx, "morning")
	require.NoError(t, err)
	rc.Close()
	assert.Contains(t, ct, "image")
}

func TestSlugPrefix(t *testing.T) {
	a := newTestAdapter(t)
	var p media.Prefix
	for _, pre := range a.Prefixes() {
		if pre.Name == "cat" {
			p = pre
		}
	}
	require.NotNil(t, p.Transform)
	assert.Equal(t, "morning-shows", p.Transform("Morning Shows"))
}
