// Package plex adapts a Plex Media Server as a content source. All calls
// go over the Plex HTTP API; failures surface as typed errors carrying the
// source name so composite resolution can skip an unreachable server.
package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vmunix/omnicast/internal/media"
)

// SourceName is the compound-id source name for the Plex adapter.
const SourceName = "plex"

const defaultTimeout = 15 * time.Second

// maxResolveDepth bounds recursive playable resolution (show -> season ->
// episode is depth 2; artist -> album -> track likewise).
const maxResolveDepth = 4

// Adapter talks to one Plex server.
type Adapter struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithHTTPClient sets a custom HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(a *Adapter) { a.httpClient = hc }
}

// New creates a Plex adapter.
func New(baseURL, token string, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("component", "plex"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the source name.
func (a *Adapter) Name() string { return SourceName }

// Prefixes declares the reference prefixes this adapter owns.
func (a *Adapter) Prefixes() []media.Prefix {
	return []media.Prefix{
		{Name: "plex"},
		// Full metadata keys ("/library/metadata/123") reduce to the
		// bare rating key.
		{Name: "plexkey", Transform: func(v string) string {
			return strings.TrimPrefix(strings.TrimSuffix(v, "/"), "/library/metadata/")
		}},
	}
}

// StorageKey keeps all of a server's items in one partition; rating keys
// are opaque and the per-server record count is modest.
func (a *Adapter) StorageKey(localID string) string { return SourceName }

// mediaContainer is the envelope every Plex response uses.
type mediaContainer struct {
	XMLName     xml.Name        `xml:"MediaContainer"`
	Size        int             `xml:"size,attr"`
	Directories []plexDirectory `xml:"Directory"`
	Videos      []plexVideo     `xml:"Video"`
	Tracks      []plexVideo     `xml:"Track"`
}

type plexDirectory struct {
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
	Summary   string `xml:"summary,attr"`
	Thumb     string `xml:"thumb,attr"`
	LeafCount int    `xml:"leafCount,attr"`
	Type      string `xml:"type,attr"`
}

type plexVideo struct {
	RatingKey  string      `xml:"ratingKey,attr"`
	Title      string      `xml:"title,attr"`
	Summary    string      `xml:"summary,attr"`
	Thumb      string      `xml:"thumb,attr"`
	Type       string      `xml:"type,attr"`
	Duration   int64       `xml:"duration,attr"` // milliseconds
	ViewOffset int64       `xml:"viewOffset,attr"`
	Live       int         `xml:"live,attr"`
	Media      []plexMedia `xml:"Media"`
}

type plexMedia struct {
	Parts []plexPart `xml:"Part"`
}

type plexPart struct {
	Key  string `xml:"key,attr"`
	Size int64  `xml:"size,attr"`
}

// GetItem fetches one item by rating key.
func (a *Adapter) GetItem(ctx context.Context, localID string) (*media.Item, error) {
	mc, err := a.fetch(ctx, "/library/metadata/"+localID)
	if err != nil {
		return nil, err
	}
	if len(mc.Directories) > 0 {
		return a.dirItem(&mc.Directories[0]), nil
	}
	if len(mc.Videos) > 0 {
		return a.leafItem(&mc.Videos[0]), nil
	}
	if len(mc.Tracks) > 0 {
		return a.leafItem(&mc.Tracks[0]), nil
	}
	return nil, media.NotFound(SourceName, localID)
}

// GetList fetches a container's children.
func (a *Adapter) GetList(ctx context.Context, localID string) ([]*media.Item, error) {
	mc, err := a.fetch(ctx, "/library/metadata/"+localID+"/children")
	if err != nil {
		return nil, err
	}
	items := make([]*media.Item, 0, mc.Size)
	for i := range mc.Directories {
		items = append(items, a.dirItem(&mc.Directories[i]))
	}
	for i := range mc.Videos {
		items = append(items, a.leafItem(&mc.Videos[i]))
	}
	for i := range mc.Tracks {
		items = append(items, a.leafItem(&mc.Tracks[i]))
	}
	for i, it := range items {
		if it.List != nil {
			it.List.SortOrder = i
		}
	}
	return items, nil
}

// ResolvePlayables flattens a container into playable leaves in server
// order.
func (a *Adapter) ResolvePlayables(ctx context.Context, localID string) ([]*media.Item, error) {
	item, err := a.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item.IsLeaf() {
		return []*media.Item{item}, nil
	}
	var out []*media.Item
	if err := a.collect(ctx, localID, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) collect(ctx context.Context, localID string, depth int, out *[]*media.Item) error {
	if depth > maxResolveDepth {
		a.logger.Warn("resolve depth exceeded", "key", localID)
		return nil
	}
	children, err := a.GetList(ctx, localID)
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.IsLeaf() {
			*out = append(*out, c)
			continue
		}
		if err := a.collect(ctx, c.LocalID, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) dirItem(d *plexDirectory) *media.Item {
	item := &media.Item{
		ID:          media.JoinID(SourceName, d.RatingKey),
		Source:      SourceName,
		LocalID:     d.RatingKey,
		Title:       d.Title,
		Description: d.Summary,
		List:        &media.Listable{Type: media.TypeContainer, ChildCount: d.LeafCount},
		Queue:       &media.Queueable{Mode: media.TraversalSequential, IsContainer: true},
	}
	if d.Thumb != "" {
		item.Thumb = media.ProxyPath(SourceName, "thumb", d.RatingKey)
	}
	return item
}

func (a *Adapter) leafItem(v *plexVideo) *media.Item {
	mt := media.MediaVideo
	switch {
	case v.Live == 1:
		mt = media.MediaLive
	case v.Type == "track":
		mt = media.MediaAudio
	}
	p := &media.Playable{
		MediaType: mt,
		MediaURL:  media.ProxyPath(SourceName, "stream", v.RatingKey),
		Resumable: mt != media.MediaLive,
	}
	if mt != media.MediaLive {
		p.Duration = time.Duration(v.Duration) * time.Millisecond
	}
	if p.Resumable && v.ViewOffset > 0 {
		p.ResumePosition = time.Duration(v.ViewOffset) * time.Millisecond
	}
	item := &media.Item{
		ID:          media.JoinID(SourceName, v.RatingKey),
		Source:      SourceName,
		LocalID:     v.RatingKey,
		Title:       v.Title,
		Description: v.Summary,
		List:        &media.Listable{Type: media.TypeLeaf},
		Play:        p,
	}
	if v.Thumb != "" {
		item.Thumb = media.ProxyPath(SourceName, "thumb", v.RatingKey)
	}
	return item
}

// fetch GETs path and decodes the MediaContainer envelope.
func (a *Adapter) fetch(ctx context.Context, path string) (*mediaContainer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, media.Unavailable(SourceName, err)
	}
	req.Header.Set("X-Plex-Token", a.token)
	req.Header.Set("Accept", "text/xml")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, media.Unavailable(SourceName, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, media.NotFound(SourceName, path)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: plex rejected token", media.ErrUnauthorized)}
	default:
		return nil, media.Unavailable(SourceName, fmt.Errorf("plex returned %s", resp.Status))
	}

	var mc mediaContainer
	if err := xml.NewDecoder(resp.Body).Decode(&mc); err != nil {
		return nil, media.Unavailable(SourceName, fmt.Errorf("decode response: %w", err))
	}
	return &mc, nil
}
