package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/migrations"
	"github.com/vmunix/omnicast/internal/queue"
	"github.com/vmunix/omnicast/internal/refparse"
	"github.com/vmunix/omnicast/internal/registry"
	"github.com/vmunix/omnicast/internal/watchstate"
)

// stubAdapter serves a fixed tree: one "shows" container with two audio
// leaves.
type stubAdapter struct {
	name  string
	items map[string]*media.Item
	lists map[string][]*media.Item
}

func (a *stubAdapter) Name() string             { return a.name }
func (a *stubAdapter) Prefixes() []media.Prefix { return []media.Prefix{{Name: a.name}} }
func (a *stubAdapter) StorageKey(string) string { return a.name }

func (a *stubAdapter) GetItem(_ context.Context, localID string) (*media.Item, error) {
	it, ok := a.items[localID]
	if !ok {
		return nil, media.NotFound(a.name, localID)
	}
	return it, nil
}

func (a *stubAdapter) GetList(_ context.Context, localID string) ([]*media.Item, error) {
	children, ok := a.lists[localID]
	if !ok {
		return nil, media.NotFound(a.name, localID)
	}
	return children, nil
}

func (a *stubAdapter) ResolvePlayables(_ context.Context, localID string) ([]*media.Item, error) {
	if it, ok := a.items[localID]; ok && it.IsLeaf() {
		return []*media.Item{it}, nil
	}
	children, ok := a.lists[localID]
	if !ok {
		return nil, media.NotFound(a.name, localID)
	}
	var out []*media.Item
	for _, c := range children {
		if c.Play != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func leaf(source, localID string) *media.Item {
	return &media.Item{
		ID:      media.JoinID(source, localID),
		Source:  source,
		LocalID: localID,
		Title:   localID,
		List:    &media.Listable{Type: media.TypeLeaf},
		Play: &media.Playable{
			MediaType: media.MediaAudio,
			MediaURL:  media.ProxyPath(source, "stream", localID),
			Duration:  30 * time.Minute,
			Resumable: true,
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	a, b := leaf("media", "shows/a.mp3"), leaf("media", "shows/b.mp3")
	container := &media.Item{
		ID:      "media:shows",
		Source:  "media",
		LocalID: "shows",
		Title:   "shows",
		List:    &media.Listable{Type: media.TypeContainer, ChildCount: 2},
		Queue:   &media.Queueable{Mode: media.TraversalSequential, IsContainer: true},
	}
	adapter := &stubAdapter{
		name: "media",
		items: map[string]*media.Item{
			"shows":       container,
			"shows/a.mp3": a,
			"shows/b.mp3": b,
		},
		lists: map[string][]*media.Item{
			"shows": {a, b},
		},
	}

	reg := registry.New()
	require.NoError(t, reg.Register(adapter))

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := queue.New(reg, watchstate.NewStore(db), logger)
	parser := refparse.New(reg, "media", nil, logger)

	mux := http.NewServeMux()
	New(reg, parser, q).RegisterRoutes(mux)
	srv := httptest.NewServer(RequestID(mux))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, into any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp
}

func TestListEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var got itemsResponse
	resp := getJSON(t, srv.URL+"/api/v1/list/media:shows", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "media:shows/a.mp3", got.Items[0].ID)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestListPlayableSuffix(t *testing.T) {
	srv := newTestServer(t)

	// The container itself has no Play capability, so the filter would
	// drop it from a listing of the root.
	var got itemsResponse
	resp := getJSON(t, srv.URL+"/api/v1/list/media:shows,playable", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Items, 2)
	for _, it := range got.Items {
		assert.NotNil(t, it.Play)
	}
}

func TestOpenEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var got media.Item
	resp := getJSON(t, srv.URL+"/api/v1/open/media:shows/a.mp3", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "media:shows/a.mp3", got.ID)
}

func TestPlayAndProgressRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	// First play: nothing watched, container order wins.
	var first media.Item
	resp := getJSON(t, srv.URL+"/api/v1/play/media:shows", &first)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "media:shows/a.mp3", first.ID)

	// Report partial progress on it.
	body := `{"itemId":"media:shows/a.mp3","playheadMs":600000,"durationMs":1800000}`
	post, err := http.Post(srv.URL+"/api/v1/progress", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusNoContent, post.StatusCode)

	// Next play resumes the in-progress item with its position stamped.
	var second media.Item
	getJSON(t, srv.URL+"/api/v1/play/media:shows", &second)
	assert.Equal(t, "media:shows/a.mp3", second.ID)
	require.NotNil(t, second.Play)
	assert.Equal(t, 10*time.Minute, second.Play.ResumePosition)
}

func TestQueueEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var got itemsResponse
	resp := getJSON(t, srv.URL+"/api/v1/queue/media:shows", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, got.Items, 2)
}

func TestInvalidReference(t *testing.T) {
	srv := newTestServer(t)

	var er errorResponse
	resp := getJSON(t, srv.URL+"/api/v1/list/bogus:thing", &er)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REFERENCE", er.Code)
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t)

	var er errorResponse
	resp := getJSON(t, srv.URL+"/api/v1/open/media:nope", &er)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", er.Code)
	assert.Equal(t, "media", er.Source)
}

func TestProgressValidation(t *testing.T) {
	srv := newTestServer(t)

	post, err := http.Post(srv.URL+"/api/v1/progress", "application/json",
		strings.NewReader(`{"playheadMs":10}`))
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusBadRequest, post.StatusCode)
	var er errorResponse
	require.NoError(t, json.NewDecoder(post.Body).Decode(&er))
	assert.Equal(t, "MISSING_FIELD", er.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var got statusResponse
	resp := getJSON(t, srv.URL+"/api/v1/status", &got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, Version, got.Version)
	assert.Equal(t, []string{"media"}, got.Sources)
}
