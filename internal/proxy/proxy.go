// Package proxy streams media bytes and thumbnails on an adapter's behalf.
// Full streams are proxied live and never cached; thumbnails are small,
// immutable and disk-cached without expiry.
package proxy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/registry"
)

// Router serves /proxy/{source}/{kind}/{id...}.
type Router struct {
	reg      *registry.Registry
	cacheDir string
	logger   *slog.Logger
}

// New creates a proxy router. cacheDir holds the thumbnail cache; empty
// disables caching.
func New(reg *registry.Registry, cacheDir string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		reg:      reg,
		cacheDir: cacheDir,
		logger:   logger.With("component", "proxy"),
	}
}

// RegisterRoutes registers proxy routes on the given mux.
func (p *Router) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /proxy/{source}/{kind}/{id...}", p.handle)
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Source string `json:"source,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message, source string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: code, Source: source})
}

func (p *Router) handle(w http.ResponseWriter, r *http.Request) {
	source := r.PathValue("source")
	kind := r.PathValue("kind")
	localID := r.PathValue("id")

	adapter := p.reg.Get(source)
	if adapter == nil {
		writeError(w, http.StatusNotFound, "UNKNOWN_SOURCE", fmt.Sprintf("no source %q", source), "")
		return
	}
	streamer, ok := adapter.(media.Streamer)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_STREAMABLE", fmt.Sprintf("source %q cannot stream", source), source)
		return
	}

	switch kind {
	case "stream":
		p.serveStream(w, r, streamer, source, localID)
	case "thumb":
		p.serveThumb(w, r, streamer, source, localID)
	default:
		writeError(w, http.StatusNotFound, "UNKNOWN_KIND", fmt.Sprintf("no kind %q", kind), source)
	}
}

func (p *Router) serveStream(w http.ResponseWriter, r *http.Request, streamer media.Streamer, source, localID string) {
	rc, info, err := streamer.OpenStream(r.Context(), localID)
	if err != nil {
		p.writeAdapterError(w, err, source)
		return
	}
	defer rc.Close()

	if info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.Header().Set("Accept-Ranges", acceptRanges(rc))

	rangeHeader := r.Header.Get("Range")
	seeker, seekable := rc.(io.ReadSeeker)
	if rangeHeader != "" && seekable && info.Size >= 0 {
		p.servePartial(w, seeker, info.Size, rangeHeader, source)
		return
	}

	if info.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		p.logger.Debug("stream copy aborted", "source", source, "id", localID, "error", err)
	}
}

// servePartial answers a single-range request with 206 Partial Content.
func (p *Router) servePartial(w http.ResponseWriter, rs io.ReadSeeker, size int64, rangeHeader, source string) {
	start, end, ok := parseRange(rangeHeader, size)
	if !ok {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		writeError(w, http.StatusRequestedRangeNotSatisfiable, "BAD_RANGE", "unsatisfiable range", source)
		return
	}
	if _, err := rs.Seek(start, io.SeekStart); err != nil {
		writeError(w, http.StatusBadGateway, "SEEK_FAILED", err.Error(), source)
		return
	}
	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if _, err := io.CopyN(w, rs, length); err != nil {
		p.logger.Debug("partial copy aborted", "source", source, "error", err)
	}
}

// parseRange handles the single-range "bytes=start-end" forms, including
// open ("bytes=start-") and suffix ("bytes=-n") ranges.
func parseRange(header string, size int64) (start, end int64, ok bool) {
	val, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(val, ",") {
		return 0, 0, false
	}
	first, last, found := strings.Cut(val, "-")
	if !found {
		return 0, 0, false
	}
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	if first == "" {
		// Suffix range: last n bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return 0, 0, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 || start >= size {
		return 0, 0, false
	}
	end = size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, false
		}
		if end >= size {
			end = size - 1
		}
	}
	return start, end, true
}

func (p *Router) serveThumb(w http.ResponseWriter, r *http.Request, streamer media.Streamer, source, localID string) {
	if p.cacheDir != "" {
		if path, ok := p.cachedThumb(source, localID); ok {
			http.ServeFile(w, r, path)
			return
		}
	}

	rc, contentType, err := streamer.OpenThumb(r.Context(), localID)
	if err != nil {
		p.writeAdapterError(w, err, source)
		return
	}
	defer rc.Close()

	var body io.Reader = rc
	if p.cacheDir != "" {
		if cached, err := p.storeThumb(source, localID, rc); err == nil {
			body = cached
			defer cached.Close()
		} else {
			p.logger.Warn("thumbnail cache write failed", "source", source, "error", err)
		}
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

// thumbPath keys cache entries by adapter and id.
func (p *Router) thumbPath(source, localID string) string {
	sum := sha256.Sum256([]byte(source + media.IDSeparator + localID))
	return filepath.Join(p.cacheDir, "thumbs", hex.EncodeToString(sum[:]))
}

func (p *Router) cachedThumb(source, localID string) (string, bool) {
	path := p.thumbPath(source, localID)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// storeThumb drains rc into the cache and reopens the cached copy for the
// response. The write is tmp-then-rename so a crashed write never leaves a
// partial entry.
func (p *Router) storeThumb(source, localID string, rc io.Reader) (*os.File, error) {
	dir := filepath.Join(p.cacheDir, "thumbs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "thumb-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	path := p.thumbPath(source, localID)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return os.Open(path)
}

func (p *Router) writeAdapterError(w http.ResponseWriter, err error, source string) {
	switch {
	case errors.Is(err, media.ErrUnavailable):
		if src := media.ErrSource(err); src != "" {
			source = src
		}
		writeError(w, http.StatusBadGateway, "SOURCE_UNAVAILABLE", err.Error(), source)
	case errors.Is(err, media.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), source)
	case errors.Is(err, media.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, "INVALID_REFERENCE", err.Error(), source)
	case errors.Is(err, media.ErrUnauthorized):
		writeError(w, http.StatusBadGateway, "SOURCE_UNAUTHORIZED", err.Error(), source)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), source)
	}
}

func acceptRanges(rc io.ReadCloser) string {
	if _, ok := rc.(io.ReadSeeker); ok {
		return "bytes"
	}
	return "none"
}
