package media

import (
	"context"
	"io"
)

//go:generate mockgen -destination=mocks/adapter_mock.go -package=mocks github.com/vmunix/omnicast/internal/media Adapter

// Prefix declares a reference prefix an adapter owns, with an optional
// transform applied to the raw value before it becomes a local id.
type Prefix struct {
	Name      string
	Transform func(value string) string
}

// Adapter turns adapter-local ids into capability-tagged Items for one
// backing source. Implementations self-declare the prefixes they own; the
// registry aggregates them without any central dispatch table.
type Adapter interface {
	// Name is the source name used in compound ids.
	Name() string

	// Prefixes returns the reference prefixes this adapter claims.
	Prefixes() []Prefix

	// StorageKey returns the watch-state partition token for a local id.
	// Keys bound partition size; unrelated sources never contend.
	StorageKey(localID string) string

	// GetItem resolves a local id to a single item.
	GetItem(ctx context.Context, localID string) (*Item, error)

	// GetList returns the children of a container.
	GetList(ctx context.Context, localID string) ([]*Item, error)

	// ResolvePlayables flattens a container (recursively) into playable
	// leaves, in container order.
	ResolvePlayables(ctx context.Context, localID string) ([]*Item, error)
}

// StreamInfo describes an opened media stream.
type StreamInfo struct {
	ContentType string
	Size        int64 // -1 when unknown
}

// Streamer is implemented by adapters that can serve media bytes through
// the proxy. If the returned ReadCloser also implements io.ReadSeeker the
// proxy honors range requests with partial content.
type Streamer interface {
	OpenStream(ctx context.Context, localID string) (io.ReadCloser, *StreamInfo, error)

	// OpenThumb returns thumbnail bytes and their content type.
	OpenThumb(ctx context.Context, localID string) (io.ReadCloser, string, error)
}
