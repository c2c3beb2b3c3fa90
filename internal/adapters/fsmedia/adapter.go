// Package fsmedia adapts a local directory tree of raw media files. It is
// the default source for unprefixed references. Every path it touches goes
// through pathsafe; existence checks go through the directory index so the
// common case never blocks on disk probing.
package fsmedia

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmunix/omnicast/internal/dirindex"
	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/pathsafe"
)

// SourceName is the compound-id source name for the filesystem adapter.
const SourceName = "media"

// FlattenSeparator is the reserved character that encodes path separators
// inside a single-segment local id.
const FlattenSeparator = '~'

// maxResolveDepth bounds recursive playable resolution.
const maxResolveDepth = 8

// Adapter serves items from a media root directory.
type Adapter struct {
	root   string
	index  *dirindex.Index
	logger *slog.Logger
}

// New creates the filesystem adapter over root, backed by the given index.
func New(root string, index *dirindex.Index, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		root:   filepath.Clean(root),
		index:  index,
		logger: logger.With("component", "fsmedia"),
	}
}

// Name returns the source name.
func (a *Adapter) Name() string { return SourceName }

// Prefixes declares the reference prefixes this adapter owns.
func (a *Adapter) Prefixes() []media.Prefix {
	return []media.Prefix{
		{Name: "media"},
		{Name: "files"},
	}
}

// StorageKey partitions watch state by top-level directory, which bounds
// partition size to one library section.
func (a *Adapter) StorageKey(localID string) string {
	rel := a.localToRel(localID)
	if i := strings.IndexRune(rel, '/'); i > 0 {
		return SourceName + "/" + rel[:i]
	}
	return SourceName
}

// GetItem resolves a local id to one item.
func (a *Adapter) GetItem(ctx context.Context, localID string) (*media.Item, error) {
	rel := a.localToRel(localID)
	abs, err := pathsafe.Resolve(a.root, rel)
	if err != nil {
		return nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, media.NotFound(SourceName, localID)
		}
		return nil, media.Unavailable(SourceName, err)
	}
	return a.buildItem(rel, info.IsDir()), nil
}

// GetList returns a container's children, directories first, each group in
// name order.
func (a *Adapter) GetList(ctx context.Context, localID string) ([]*media.Item, error) {
	rel := a.localToRel(localID)
	abs, err := pathsafe.Resolve(a.root, rel)
	if err != nil {
		return nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, media.NotFound(SourceName, localID)
		}
		return nil, media.Unavailable(SourceName, err)
	}

	var dirs, files []*media.Item
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		childRel := path.Join(rel, e.Name())
		if e.IsDir() {
			dirs = append(dirs, a.buildItem(childRel, true))
			continue
		}
		if mediaTypeFor(e.Name()) != "" {
			files = append(files, a.buildItem(childRel, false))
		}
	}
	sortByTitle(dirs)
	sortByTitle(files)
	out := append(dirs, files...)
	for i, it := range out {
		if it.List != nil {
			it.List.SortOrder = i
		}
	}
	return out, nil
}

// ResolvePlayables flattens a container into playable leaves in container
// order. A playable file id resolves to itself.
func (a *Adapter) ResolvePlayables(ctx context.Context, localID string) ([]*media.Item, error) {
	item, err := a.GetItem(ctx, localID)
	if err != nil {
		return nil, err
	}
	if item.IsLeaf() {
		return []*media.Item{item}, nil
	}
	var out []*media.Item
	if err := a.collectPlayables(ctx, item.LocalID, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) collectPlayables(ctx context.Context, localID string, depth int, out *[]*media.Item) error {
	if depth > maxResolveDepth {
		a.logger.Warn("resolve depth exceeded", "id", localID)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return media.Unavailable(SourceName, err)
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
		if c.List != nil && c.List.Type == media.TypeContainer {
			if err := a.collectPlayables(ctx, c.LocalID, depth+1, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *Adapter) buildItem(rel string, isDir bool) *media.Item {
	// The root's relative path is empty; "." keeps the compound id
	// well-formed and resolves back to the root.
	localID := rel
	if localID == "" {
		localID = "."
	}
	item := &media.Item{
		ID:      media.JoinID(SourceName, localID),
		Source:  SourceName,
		LocalID: localID,
	}
	if isDir {
		item.Title = path.Base(rel)
		if rel == "" || rel == "." {
			item.Title = "media"
		}
		item.List = &media.Listable{Type: media.TypeContainer, ChildCount: a.childCount(rel)}
		item.Queue = &media.Queueable{Mode: media.TraversalSequential, IsContainer: true}
		if thumb := a.thumbRel(rel, true); thumb != "" {
			item.Thumb = media.ProxyPath(SourceName, "thumb", localID)
		}
		return item
	}

	base := path.Base(rel)
	item.Title = strings.TrimSuffix(base, path.Ext(base))
	item.List = &media.Listable{Type: media.TypeLeaf}
	if mt := mediaTypeFor(base); mt != "" {
		item.Play = &media.Playable{
			MediaType: mt,
			MediaURL:  media.ProxyPath(SourceName, "stream", rel),
			Resumable: mt != media.MediaLive,
		}
	}
	if thumb := a.thumbRel(rel, false); thumb != "" {
		item.Thumb = media.ProxyPath(SourceName, "thumb", rel)
	}
	return item
}

func (a *Adapter) childCount(rel string) int {
	abs := filepath.Join(a.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(abs)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() || mediaTypeFor(e.Name()) != "" {
			n++
		}
	}
	return n
}

func sortByTitle(items []*media.Item) {
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })
}

var audioExts = map[string]bool{
	".mp3": true, ".flac": true, ".m4a": true, ".ogg": true,
	".opus": true, ".wav": true, ".aac": true,
}

var videoExts = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".mov": true,
	".webm": true, ".m4v": true, ".ts": true, ".mpg": true,
}

// mediaTypeFor classifies a filename by extension, or "" for non-media.
func mediaTypeFor(name string) media.MediaType {
	ext := strings.ToLower(path.Ext(name))
	switch {
	case audioExts[ext]:
		return media.MediaAudio
	case videoExts[ext]:
		return media.MediaVideo
	default:
		return ""
	}
}
