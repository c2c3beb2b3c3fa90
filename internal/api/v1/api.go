// Package v1 implements the native REST API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/queue"
	"github.com/vmunix/omnicast/internal/refparse"
	"github.com/vmunix/omnicast/internal/registry"
)

// Version is reported by the status endpoint.
const Version = "0.1.0"

// Server is the v1 API server.
type Server struct {
	reg     *registry.Registry
	parser  *refparse.Parser
	queue   *queue.Service
	started time.Time
}

// New creates a new v1 API server.
func New(reg *registry.Registry, parser *refparse.Parser, q *queue.Service) *Server {
	return &Server{
		reg:     reg,
		parser:  parser,
		queue:   q,
		started: time.Now(),
	}
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Content resolution. The reference lives in the path and may span
	// multiple segments.
	mux.HandleFunc("GET /api/v1/list/{ref...}", s.list)
	mux.HandleFunc("GET /api/v1/open/{ref...}", s.open)
	mux.HandleFunc("GET /api/v1/play/{ref...}", s.play)
	mux.HandleFunc("GET /api/v1/queue/{ref...}", s.queueItems)

	// Watch state
	mux.HandleFunc("POST /api/v1/progress", s.progress)

	// System
	mux.HandleFunc("GET /api/v1/status", s.status)
}

// Error response
type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Source string `json:"source,omitempty"`
}

func writeError(w http.ResponseWriter, code int, errCode, message, source string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode, Source: source})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	source := media.ErrSource(err)
	switch {
	case errors.Is(err, media.ErrInvalidReference):
		writeError(w, http.StatusBadRequest, "INVALID_REFERENCE", err.Error(), source)
	case errors.Is(err, media.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), source)
	case errors.Is(err, media.ErrResolutionFailed):
		writeError(w, http.StatusNotFound, "RESOLUTION_FAILED", err.Error(), source)
	case errors.Is(err, media.ErrUnauthorized):
		writeError(w, http.StatusBadGateway, "SOURCE_UNAUTHORIZED", err.Error(), source)
	case errors.Is(err, media.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "SOURCE_UNAVAILABLE", err.Error(), source)
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), source)
	}
}

// parseRef splits the raw path reference into a parsed reference plus the
// trailing comma-joined keyword suffix ("music/ambient,shuffle"). Suffix
// keywords merge into the same modifier map the ';' grammar produces.
func (s *Server) parseRef(raw string) (*refparse.Result, error) {
	head, rest, hasMods := strings.Cut(raw, ";")
	refStr := head
	var suffix string
	if ref, sfx, ok := strings.Cut(head, ","); ok {
		refStr, suffix = ref, sfx
	}
	if hasMods {
		refStr += ";" + rest
	}

	res, err := s.parser.Parse(refStr)
	if err != nil {
		return nil, err
	}
	if suffix != "" {
		res.Modifiers.Merge(refparse.ParseSuffix(suffix), true)
	}
	return res, nil
}

// Handlers

type itemsResponse struct {
	Items []*media.Item `json:"items"`
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRef(r.PathValue("ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items, err := s.listAll(r.Context(), res.Sources)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if res.Modifiers.Bool("playable") {
		filtered := items[:0]
		for _, it := range items {
			if it.Play != nil {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

// listAll concatenates each source's children in reference order. Inside a
// composite a failed source is skipped; a single-source failure is the
// caller's error.
func (s *Server) listAll(ctx context.Context, refs []media.SourceReference) ([]*media.Item, error) {
	items := make([]*media.Item, 0)
	var firstErr error
	for _, ref := range refs {
		adapter := s.reg.Get(ref.Source)
		if adapter == nil {
			firstErr = fmt.Errorf("%w: unknown source %q", media.ErrNotFound, ref.Source)
			continue
		}
		children, err := adapter.GetList(ctx, ref.LocalID)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		items = append(items, children...)
	}
	if len(refs) == 1 && firstErr != nil {
		return nil, firstErr
	}
	return items, nil
}

func (s *Server) open(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRef(r.PathValue("ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Open targets a single item; the first resolvable source wins.
	var lastErr error
	for _, ref := range res.Sources {
		adapter := s.reg.Get(ref.Source)
		if adapter == nil {
			lastErr = fmt.Errorf("%w: unknown source %q", media.ErrNotFound, ref.Source)
			continue
		}
		item, err := adapter.GetItem(r.Context(), ref.LocalID)
		if err != nil {
			lastErr = err
			continue
		}
		writeJSON(w, http.StatusOK, item)
		return
	}
	writeDomainError(w, lastErr)
}

func (s *Server) play(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRef(r.PathValue("ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	item, err := s.queue.Play(r.Context(), res.Sources, res.Modifiers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) queueItems(w http.ResponseWriter, r *http.Request) {
	res, err := s.parseRef(r.PathValue("ref"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	items, err := s.queue.Queue(r.Context(), res.Sources, res.Modifiers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items})
}

type progressRequest struct {
	ItemID     string `json:"itemId"`
	PlayheadMS int64  `json:"playheadMs"`
	DurationMS int64  `json:"durationMs"`
}

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error(), "")
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELD", "itemId is required", "")
		return
	}
	if req.PlayheadMS < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_FIELD", "playheadMs must be >= 0", "")
		return
	}

	err := s.queue.UpdateProgress(r.Context(), req.ItemID,
		time.Duration(req.PlayheadMS)*time.Millisecond,
		time.Duration(req.DurationMS)*time.Millisecond)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statusResponse struct {
	Version string   `json:"version"`
	Uptime  string   `json:"uptime"`
	Sources []string `json:"sources"`
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Version: Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Sources: s.reg.Sources(),
	})
}
