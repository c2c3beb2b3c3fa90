package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/vmunix/omnicast/internal/media"
)

// OpenStream proxies the first media part of an item. The body is not
// seekable, so range requests fall back to full streams at the proxy.
func (a *Adapter) OpenStream(ctx context.Context, localID string) (io.ReadCloser, *media.StreamInfo, error) {
	mc, err := a.fetch(ctx, "/library/metadata/"+localID)
	if err != nil {
		return nil, nil, err
	}
	leaf := firstLeaf(mc)
	if leaf == nil {
		return nil, nil, media.NotFound(SourceName, localID)
	}
	partKey := ""
	for _, m := range leaf.Media {
		if len(m.Parts) > 0 {
			partKey = m.Parts[0].Key
			break
		}
	}
	if partKey == "" {
		return nil, nil, media.NotFound(SourceName, localID)
	}

	resp, err := a.rawGet(ctx, partKey)
	if err != nil {
		return nil, nil, err
	}
	return resp.Body, &media.StreamInfo{
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}, nil
}

// OpenThumb proxies an item's poster image.
func (a *Adapter) OpenThumb(ctx context.Context, localID string) (io.ReadCloser, string, error) {
	mc, err := a.fetch(ctx, "/library/metadata/"+localID)
	if err != nil {
		return nil, "", err
	}
	thumb := ""
	if leaf := firstLeaf(mc); leaf != nil {
		thumb = leaf.Thumb
	} else if len(mc.Directories) > 0 {
		thumb = mc.Directories[0].Thumb
	}
	if thumb == "" {
		return nil, "", media.NotFound(SourceName, localID)
	}

	resp, err := a.rawGet(ctx, thumb)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func firstLeaf(mc *mediaContainer) *plexVideo {
	if len(mc.Videos) > 0 {
		return &mc.Videos[0]
	}
	if len(mc.Tracks) > 0 {
		return &mc.Tracks[0]
	}
	return nil
}

// rawGet fetches an unparsed resource (media part or image) by server path.
func (a *Adapter) rawGet(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return nil, media.Unavailable(SourceName, err)
	}
	req.Header.Set("X-Plex-Token", a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, media.Unavailable(SourceName, err)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
		return resp, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, media.NotFound(SourceName, path)
	default:
		resp.Body.Close()
		return nil, media.Unavailable(SourceName, fmt.Errorf("plex returned %s", resp.Status))
	}
}
