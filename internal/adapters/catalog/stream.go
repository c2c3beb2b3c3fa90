package catalog

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/pathsafe"
)

// OpenStream opens a file-backed entry for proxying. Manifest file paths
// are relative to their collection directory and pathsafe-guarded, so a
// manifest cannot point the proxy outside the catalog root.
func (a *Adapter) OpenStream(ctx context.Context, localID string) (io.ReadCloser, *media.StreamInfo, error) {
	col, e, err := a.findEntry(localID)
	if err != nil {
		return nil, nil, err
	}
	if e.File == "" {
		return nil, nil, media.NotFound(SourceName, localID)
	}
	abs, err := pathsafe.Resolve(a.root, col+"/"+e.File)
	if err != nil {
		return nil, nil, &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, nil, media.NotFound(SourceName, localID)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, media.Unavailable(SourceName, err)
	}
	return f, &media.StreamInfo{
		ContentType: typeByName(e.File),
		Size:        info.Size(),
	}, nil
}

// OpenThumb opens a collection's or entry's thumbnail image.
func (a *Adapter) OpenThumb(ctx context.Context, localID string) (io.ReadCloser, string, error) {
	localID = strings.Trim(localID, "/")
	col, _, hasEntry := strings.Cut(localID, "/")

	var thumb string
	if hasEntry {
		_, e, err := a.findEntry(localID)
		if err != nil {
			return nil, "", err
		}
		thumb = e.Thumb
	} else {
		m, err := a.loadManifest(col)
		if err != nil {
			return nil, "", err
		}
		thumb = m.Thumb
	}
	if thumb == "" {
		return nil, "", media.NotFound(SourceName, localID)
	}
	abs, err := pathsafe.Resolve(a.root, col+"/"+thumb)
	if err != nil {
		return nil, "", &media.SourceError{Source: SourceName, Err: fmt.Errorf("%w: %v", media.ErrInvalidReference, err)}
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, "", media.NotFound(SourceName, localID)
	}
	return f, typeByName(thumb), nil
}

func (a *Adapter) findEntry(localID string) (string, *manifestItem, error) {
	localID = strings.Trim(localID, "/")
	col, entry, ok := strings.Cut(localID, "/")
	if !ok {
		return "", nil, media.NotFound(SourceName, localID)
	}
	m, err := a.loadManifest(col)
	if err != nil {
		return "", nil, err
	}
	for i := range m.Items {
		if m.Items[i].ID == entry {
			return col, &m.Items[i], nil
		}
	}
	return "", nil, media.NotFound(SourceName, localID)
}

func typeByName(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
