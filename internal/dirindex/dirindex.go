// Package dirindex maintains an in-memory mirror of a filesystem subtree's
// existence and type, updated incrementally from change notifications so
// path resolution doesn't block on synchronous disk probing in the common
// case. The mirror is eventually consistent, bounded by notification
// latency.
package dirindex

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Index mirrors existence/type for all entries under a root directory.
type Index struct {
	root    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	entries map[string]bool // relative path -> isDir
}

// New builds the initial mirror with one full walk and sets up watches on
// every directory. Call Watch to start consuming change notifications.
func New(root string, logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ix := &Index{
		root:    filepath.Clean(root),
		logger:  logger.With("component", "dirindex"),
		watcher: w,
		entries: make(map[string]bool),
	}
	if err := ix.rescan(""); err != nil {
		w.Close()
		return nil, err
	}
	return ix, nil
}

// Watch consumes filesystem notifications until ctx is canceled.
func (ix *Index) Watch(ctx context.Context) error {
	defer ix.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ix.watcher.Events:
			if !ok {
				return nil
			}
			ix.apply(ev)
		case err, ok := <-ix.watcher.Errors:
			if !ok {
				return nil
			}
			ix.logger.Warn("watcher error", "error", err)
		}
	}
}

// Close releases the underlying watcher. Only needed when Watch was never
// started.
func (ix *Index) Close() error { return ix.watcher.Close() }

func (ix *Index) apply(ev fsnotify.Event) {
	rel, err := filepath.Rel(ix.root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	switch {
	case ev.Op.Has(fsnotify.Create):
		info, err := os.Lstat(ev.Name)
		if err != nil {
			return
		}
		ix.set(rel, info.IsDir())
		if info.IsDir() {
			// A directory can appear fully populated (rename into the
			// tree), so walk it rather than trust a single event.
			if err := ix.rescan(rel); err != nil {
				ix.logger.Warn("rescan after create", "path", rel, "error", err)
			}
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		ix.remove(rel)
	}
}

func (ix *Index) set(rel string, isDir bool) {
	ix.mu.Lock()
	ix.entries[rel] = isDir
	ix.mu.Unlock()
}

func (ix *Index) remove(rel string) {
	prefix := rel + string(filepath.Separator)
	ix.mu.Lock()
	delete(ix.entries, rel)
	for k := range ix.entries {
		if strings.HasPrefix(k, prefix) {
			delete(ix.entries, k)
		}
	}
	ix.mu.Unlock()
}

// rescan walks the subtree at rel, recording entries and adding watches on
// directories. fsnotify watches are per-directory, not recursive.
func (ix *Index) rescan(rel string) error {
	start := filepath.Join(ix.root, rel)
	return filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			ix.logger.Warn("walk", "path", path, "error", err)
			return fs.SkipDir
		}
		r, err := filepath.Rel(ix.root, path)
		if err != nil {
			return nil
		}
		if r != "." {
			ix.set(r, d.IsDir())
		}
		if d.IsDir() {
			if err := ix.watcher.Add(path); err != nil {
				ix.logger.Warn("add watch", "path", path, "error", err)
			}
		}
		return nil
	})
}

// IsDir reports whether rel exists as a directory. Cache misses fall back
// to one Lstat and repair the mirror, so a stale miss costs a single probe.
func (ix *Index) IsDir(rel string) bool {
	ix.mu.RLock()
	isDir, ok := ix.entries[rel]
	ix.mu.RUnlock()
	if ok {
		return isDir
	}
	info, err := os.Lstat(filepath.Join(ix.root, rel))
	if err != nil {
		return false
	}
	ix.set(rel, info.IsDir())
	return info.IsDir()
}

// Exists reports whether rel is present in the mirror.
func (ix *Index) Exists(rel string) bool {
	ix.mu.RLock()
	_, ok := ix.entries[rel]
	ix.mu.RUnlock()
	if ok {
		return true
	}
	_, err := os.Lstat(filepath.Join(ix.root, rel))
	return err == nil
}

// TopLevelDirs returns the sorted names of directories directly under the
// root. Folder references resolve against this set.
func (ix *Index) TopLevelDirs() []string {
	ix.mu.RLock()
	var out []string
	for rel, isDir := range ix.entries {
		if isDir && !strings.ContainsRune(rel, filepath.Separator) {
			out = append(out, rel)
		}
	}
	ix.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Subdirs returns the sorted names of directories directly under rel.
func (ix *Index) Subdirs(rel string) []string {
	prefix := rel + string(filepath.Separator)
	ix.mu.RLock()
	var out []string
	for k, isDir := range ix.entries {
		if !isDir || !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if !strings.ContainsRune(rest, filepath.Separator) {
			out = append(out, rest)
		}
	}
	ix.mu.RUnlock()
	sort.Strings(out)
	return out
}
