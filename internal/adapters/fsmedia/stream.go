package fsmedia

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/pathsafe"
)

// thumbNames are the sidecar thumbnails recognized for a directory.
var thumbNames = []string{"cover.jpg", "folder.jpg", "cover.png", "poster.jpg"}

// OpenStream opens a media file for proxying. The returned *os.File is
// seekable, so the proxy can serve partial content.
func (a *Adapter) OpenStream(ctx context.Context, localID string) (io.ReadCloser, *media.StreamInfo, error) {
	rel := a.localToRel(localID)
	abs, err := pathsafe.Resolve(a.root, rel)
	if err != nil {
		return nil, nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, media.NotFound(SourceName, localID)
		}
		return nil, nil, media.Unavailable(SourceName, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, media.Unavailable(SourceName, err)
	}
	return f, &media.StreamInfo{
		ContentType: contentTypeFor(rel),
		Size:        info.Size(),
	}, nil
}

// OpenThumb opens the thumbnail for a file or directory.
func (a *Adapter) OpenThumb(ctx context.Context, localID string) (io.ReadCloser, string, error) {
	rel := a.localToRel(localID)
	abs, err := pathsafe.Resolve(a.root, rel)
	if err != nil {
		return nil, "", &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, "", media.NotFound(SourceName, localID)
	}
	thumb := a.thumbRel(rel, info.IsDir())
	if thumb == "" {
		return nil, "", media.NotFound(SourceName, localID)
	}
	f, err := os.Open(filepath.Join(a.root, filepath.FromSlash(thumb)))
	if err != nil {
		return nil, "", media.NotFound(SourceName, localID)
	}
	return f, contentTypeFor(thumb), nil
}

// thumbRel locates the thumbnail path for rel, or "". For a file it tries
// "<name>.jpg" beside it, then the directory sidecars; for a directory just
// the sidecars.
func (a *Adapter) thumbRel(rel string, isDir bool) string {
	dir := rel
	if !isDir {
		dir = path.Dir(rel)
		if dir == "." {
			dir = ""
		}
		base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
		own := path.Join(dir, base+".jpg")
		if a.index.Exists(own) {
			return own
		}
	}
	for _, name := range thumbNames {
		candidate := path.Join(dir, name)
		if a.index.Exists(candidate) {
			return candidate
		}
	}
	return ""
}

func contentTypeFor(rel string) string {
	if ct := mime.TypeByExtension(path.Ext(rel)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
