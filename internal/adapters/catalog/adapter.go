// Package catalog adapts a directory of richly annotated local content.
// Each collection is a subdirectory with a catalog.toml manifest declaring
// its entries: media files plus per-item scheduling properties (day
// filters, wait-until/skip-after windows, hold flags) that feed queue
// selection.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/pathsafe"
)

// SourceName is the compound-id source name for the catalog adapter.
const SourceName = "catalog"

// ManifestName is the per-collection manifest filename.
const ManifestName = "catalog.toml"

// Adapter serves annotated items from a catalog root.
type Adapter struct {
	root   string
	logger *slog.Logger
}

// New creates the catalog adapter over root.
func New(root string, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		root:   filepath.Clean(root),
		logger: logger.With("component", "catalog"),
	}
}

// Name returns the source name.
func (a *Adapter) Name() string { return SourceName }

// Prefixes declares the reference prefixes this adapter owns.
func (a *Adapter) Prefixes() []media.Prefix {
	return []media.Prefix{
		{Name: "catalog"},
		// Collection names are slugs; a human-typed reference like
		// "cat: Morning Shows" reduces to "morning-shows".
		{Name: "cat", Transform: slug},
	}
}

// StorageKey partitions watch state per collection.
func (a *Adapter) StorageKey(localID string) string {
	col, _, _ := strings.Cut(localID, "/")
	if col == "" {
		return SourceName
	}
	return SourceName + "/" + col
}

// GetItem resolves "" (root), "<collection>" or "<collection>/<entry>".
func (a *Adapter) GetItem(ctx context.Context, localID string) (*media.Item, error) {
	localID = strings.Trim(localID, "/")
	if localID == "" {
		return a.rootItem()
	}
	col, entry, hasEntry := strings.Cut(localID, "/")
	m, err := a.loadManifest(col)
	if err != nil {
		return nil, err
	}
	if !hasEntry {
		return a.collectionItem(col, m), nil
	}
	for i := range m.Items {
		if m.Items[i].ID == entry {
			return a.entryItem(col, &m.Items[i]), nil
		}
	}
	return nil, media.NotFound(SourceName, localID)
}

// GetList lists collections at the root, or a collection's entries.
func (a *Adapter) GetList(ctx context.Context, localID string) ([]*media.Item, error) {
	localID = strings.Trim(localID, "/")
	if localID == "" {
		cols, err := a.collections()
		if err != nil {
			return nil, err
		}
		items := make([]*media.Item, 0, len(cols))
		for _, col := range cols {
			m, err := a.loadManifest(col)
			if err != nil {
				a.logger.Warn("skipping unreadable collection", "collection", col, "error", err)
				continue
			}
			items = append(items, a.collectionItem(col, m))
		}
		return items, nil
	}

	col := localID
	m, err := a.loadManifest(col)
	if err != nil {
		return nil, err
	}
	items := make([]*media.Item, 0, len(m.Items))
	for i := range m.Items {
		item := a.entryItem(col, &m.Items[i])
		item.List.SortOrder = i
		items = append(items, item)
	}
	return items, nil
}

// ResolvePlayables returns a collection's playable entries in manifest
// order. Openable-only entries are skipped.
func (a *Adapter) ResolvePlayables(ctx context.Context, localID string) ([]*media.Item, error) {
	item, err := a.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item.IsLeaf() {
		return []*media.Item{item}, nil
	}
	children, err := a.GetList(ctx, item.LocalID)
	if err != nil {
		return nil, err
	}
	var out []*media.Item
	for _, c := range children {
		if c.IsLeaf() {
			out = append(out, c)
			continue
		}
		if c.List != nil && c.List.Type == media.TypeContainer {
			leaves, err := a.ResolvePlayables(ctx, c.LocalID)
			if err != nil {
				return nil, err
			}
			out = append(out, leaves...)
		}
	}
	return out, nil
}

func (a *Adapter) rootItem() (*media.Item, error) {
	cols, err := a.collections()
	if err != nil {
		return nil, err
	}
	return &media.Item{
		ID:      media.JoinID(SourceName, "."),
		Source:  SourceName,
		LocalID: ".",
		Title:   "catalog",
		List:    &media.Listable{Type: media.TypeContainer, ChildCount: len(cols)},
		Queue:   &media.Queueable{Mode: media.TraversalHeuristic, IsContainer: true},
	}, nil
}

func (a *Adapter) collectionItem(col string, m *manifest) *media.Item {
	title := m.Title
	if title == "" {
		title = col
	}
	item := &media.Item{
		ID:          media.JoinID(SourceName, col),
		Source:      SourceName,
		LocalID:     col,
		Title:       title,
		Description: m.Description,
		List:        &media.Listable{Type: media.TypeContainer, ChildCount: len(m.Items)},
		Queue:       &media.Queueable{Mode: m.traversalMode(), IsContainer: true},
	}
	if m.Thumb != "" {
		item.Thumb = media.ProxyPath(SourceName, "thumb", col)
	}
	return item
}

func (a *Adapter) entryItem(col string, e *manifestItem) *media.Item {
	localID := col + "/" + e.ID
	item := &media.Item{
		ID:          media.JoinID(SourceName, localID),
		Source:      SourceName,
		LocalID:     localID,
		Title:       e.Title,
		Description: e.Description,
		Meta:        e.Meta,
		Props:       e.props(),
		List:        &media.Listable{Type: media.TypeLeaf},
	}
	if item.Title == "" {
		item.Title = e.ID
	}
	if e.Thumb != "" {
		item.Thumb = media.ProxyPath(SourceName, "thumb", localID)
	}

	switch {
	case e.File != "":
		item.Play = &media.Playable{
			MediaType: e.mediaType(),
			MediaURL:  media.ProxyPath(SourceName, "stream", localID),
			Resumable: e.resumable(),
			Duration:  e.duration(),
			Rate:      e.Rate,
		}
	case e.URL != "":
		if e.mediaType() == media.MediaLive {
			item.Play = &media.Playable{
				MediaType: media.MediaLive,
				MediaURL:  e.URL,
				Resumable: false,
			}
		} else {
			item.Open = &media.Openable{Type: e.openType(), URL: e.URL}
		}
	}
	return item
}

// collections lists subdirectories carrying a manifest.
func (a *Adapter) collections() ([]string, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, media.Unavailable(SourceName, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.root, e.Name(), ManifestName)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

func (a *Adapter) loadManifest(col string) (*manifest, error) {
	dir, err := pathsafe.Resolve(a.root, col)
	if err != nil {
		return nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	var m manifest
	if _, err := toml.DecodeFile(filepath.Join(dir, ManifestName), &m); err != nil {
		if os.IsNotExist(err) {
			return nil, media.NotFound(SourceName, col)
		}
		return nil, media.Unavailable(SourceName, fmt.Errorf("manifest %s: %w", col, err))
	}
	return &m, nil
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
