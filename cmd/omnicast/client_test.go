package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":"0.1.0","uptime":"5s","sources":["media","plex"]}`))
	})
	mux.HandleFunc("GET /api/v1/list/{ref...}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("ref") != "media:music/ambient" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"media:music/ambient/rain.mp3","source":"media","localId":"music/ambient/rain.mp3","title":"rain.mp3","play":{"mediaType":"audio","mediaUrl":"/proxy/media/stream/music/ambient/rain.mp3","resumable":true}}]}`))
	})
	mux.HandleFunc("POST /api/v1/progress", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, NewClient(srv.URL)
}

func TestClientStatus(t *testing.T) {
	_, client := newFakeServer(t)

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, "0.1.0", status.Version)
	assert.Equal(t, []string{"media", "plex"}, status.Sources)
}

func TestClientList(t *testing.T) {
	_, client := newFakeServer(t)

	resp, err := client.List("media:music/ambient")
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "media:music/ambient/rain.mp3", resp.Items[0].ID)
	require.NotNil(t, resp.Items[0].Play)
	assert.Equal(t, "audio", resp.Items[0].Play.MediaType)
}

func TestClientProgress(t *testing.T) {
	_, client := newFakeServer(t)

	err := client.Progress("media:x.mp3", 4*time.Minute, 30*time.Minute)
	assert.NoError(t, err)
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope","code":"NOT_FOUND"}`, http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL).Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestEscapeRef(t *testing.T) {
	tests := []struct{ in, want string }{
		{"media:music/ambient", "media:music/ambient"},
		{"catalog:morning; shuffle", "catalog:morning%3B%20shuffle"},
		{"ambient+music", "ambient+music"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeRef(tt.in))
	}
}
