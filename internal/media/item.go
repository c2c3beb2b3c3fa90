// Package media defines the capability-based content model shared by all
// source adapters: an Item plus optional Listable, Playable, Openable and
// Queueable capability groups.
package media

import (
	"fmt"
	"strings"
	"time"
)

// IDSeparator joins a source name and an adapter-local id into a compound id.
const IDSeparator = ":"

// ItemType classifies a Listable item.
type ItemType string

const (
	TypeContainer ItemType = "container"
	TypeLeaf      ItemType = "leaf"
)

// MediaType classifies a Playable item.
type MediaType string

const (
	MediaAudio     MediaType = "audio"
	MediaVideo     MediaType = "video"
	MediaLive      MediaType = "live"
	MediaComposite MediaType = "composite"
)

// OpenType classifies how an Openable item should be presented.
type OpenType string

const (
	OpenEmbedded OpenType = "embedded"
	OpenNative   OpenType = "native"
	OpenExternal OpenType = "external"
)

// TraversalMode controls the order a Queueable container resolves in.
type TraversalMode string

const (
	TraversalSequential TraversalMode = "sequential"
	TraversalShuffle    TraversalMode = "shuffle"
	TraversalHeuristic  TraversalMode = "heuristic"
)

// Item is one piece of content from any source. Identity is the compound
// ID; everything else is presentation or capability data. Any subset of the
// capability pointers may be set.
type Item struct {
	ID          string            `json:"id"` // "source:localId"
	Source      string            `json:"source"`
	LocalID     string            `json:"localId"`
	Title       string            `json:"title"`
	Thumb       string            `json:"thumb,omitempty"`
	Description string            `json:"description,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`

	// Props carries per-item declarative properties (scheduling hints,
	// day filters) that merge into the reference modifier map during
	// selection. Structured props win over inline modifiers.
	Props Modifiers `json:"props,omitempty"`

	List  *Listable  `json:"list,omitempty"`
	Play  *Playable  `json:"play,omitempty"`
	Open  *Openable  `json:"open,omitempty"`
	Queue *Queueable `json:"queue,omitempty"`
}

// Listable marks an item that can appear in directory-style listings.
type Listable struct {
	Type       ItemType `json:"type"`
	ChildCount int      `json:"childCount,omitempty"`
	SortOrder  int      `json:"sortOrder,omitempty"`
}

// Playable marks an item whose bytes can be streamed.
type Playable struct {
	MediaType MediaType     `json:"mediaType"`
	MediaURL  string        `json:"mediaUrl"`
	Duration  time.Duration `json:"duration,omitempty"` // zero for live
	Resumable bool          `json:"resumable"`
	// ResumePosition is set only when Resumable and playback is in progress.
	ResumePosition time.Duration `json:"resumePosition,omitempty"`
	Rate           float64       `json:"rate,omitempty"`
}

// Openable marks an item that opens in a view rather than streaming.
type Openable struct {
	Type OpenType `json:"type"`
	URL  string   `json:"url"`
}

// Queueable marks a container (or composite) that Play/Queue operate on.
type Queueable struct {
	Mode TraversalMode `json:"mode"`
	// IsContainer means the item must resolve to leaves before playback.
	IsContainer bool `json:"isContainer"`
}

// IsLeaf reports whether the item is a playable leaf (no children).
func (i *Item) IsLeaf() bool {
	return i.Play != nil && (i.List == nil || i.List.Type == TypeLeaf)
}

// SourceReference pairs an adapter name with an adapter-local id. It is
// transient: produced by the reference parser or by splitting a compound id,
// never persisted.
type SourceReference struct {
	Source  string
	LocalID string
}

func (r SourceReference) String() string {
	return r.Source + IDSeparator + r.LocalID
}

// ProxyPath builds the gateway-relative proxy URL for an item's bytes.
// kind is "stream" or "thumb".
func ProxyPath(source, kind, localID string) string {
	return "/proxy/" + source + "/" + kind + "/" + localID
}

// JoinID builds a compound id from a source name and local id.
func JoinID(source, localID string) string {
	return source + IDSeparator + localID
}

// SplitID splits a compound id into source name and local id.
func SplitID(id string) (source, localID string, err error) {
	source, localID, ok := strings.Cut(id, IDSeparator)
	if !ok || source == "" || localID == "" {
		return "", "", fmt.Errorf("%w: malformed compound id %q", ErrInvalidReference, id)
	}
	return source, localID, nil
}
