package catalog

import (
	"strconv"
	"time"

	"github.com/vmunix/omnicast/internal/media"
)

// manifest is the catalog.toml shape for one collection.
type manifest struct {
	Title       string         `toml:"title"`
	Description string         `toml:"description"`
	Mode        string         `toml:"mode"` // sequential | shuffle | heuristic
	Thumb       string         `toml:"thumb"`
	Items       []manifestItem `toml:"items"`
}

// manifestItem is one annotated entry. Exactly one of file/url should be
// set; scheduling fields feed queue selection through Item.Props.
type manifestItem struct {
	ID          string            `toml:"id"`
	Title       string            `toml:"title"`
	Description string            `toml:"description"`
	File        string            `toml:"file"`
	URL         string            `toml:"url"`
	Media       string            `toml:"media"` // audio | video | live | composite
	Open        string            `toml:"open"`  // embedded | native | external
	Thumb       string            `toml:"thumb"`
	Meta        map[string]string `toml:"meta"`

	Days      []string `toml:"days"`
	WaitUntil string   `toml:"wait_until"`
	SkipAfter string   `toml:"skip_after"`
	Hold      bool     `toml:"hold"`
	Priority  int      `toml:"priority"`
	Rate      float64  `toml:"rate"`
	Resumable *bool    `toml:"resumable"`
	Duration  string   `toml:"duration"` // Go duration, e.g. "25m"
}

func (m *manifest) traversalMode() media.TraversalMode {
	switch m.Mode {
	case "sequential":
		return media.TraversalSequential
	case "shuffle":
		return media.TraversalShuffle
	default:
		return media.TraversalHeuristic
	}
}

func (e *manifestItem) mediaType() media.MediaType {
	switch e.Media {
	case "audio":
		return media.MediaAudio
	case "live":
		return media.MediaLive
	case "composite":
		return media.MediaComposite
	default:
		return media.MediaVideo
	}
}

func (e *manifestItem) openType() media.OpenType {
	switch e.Open {
	case "embedded":
		return media.OpenEmbedded
	case "native":
		return media.OpenNative
	default:
		return media.OpenExternal
	}
}

func (e *manifestItem) resumable() bool {
	if e.Resumable != nil {
		return *e.Resumable
	}
	return e.mediaType() != media.MediaLive
}

func (e *manifestItem) duration() time.Duration {
	if e.Duration == "" {
		return 0
	}
	d, err := time.ParseDuration(e.Duration)
	if err != nil {
		return 0
	}
	return d
}

// props exposes the scheduling annotations as structured modifiers. These
// merge over inline-string modifiers for the same key during selection.
func (e *manifestItem) props() media.Modifiers {
	p := make(media.Modifiers)
	if len(e.Days) > 0 {
		p["days"] = media.List(e.Days...)
	}
	if e.WaitUntil != "" {
		p["wait_until"] = media.Scalar(e.WaitUntil)
	}
	if e.SkipAfter != "" {
		p["skip_after"] = media.Scalar(e.SkipAfter)
	}
	if e.Hold {
		p["hold"] = media.Flag()
	}
	if e.Priority != 0 {
		p["priority"] = media.Scalar(strconv.Itoa(e.Priority))
	}
	if len(p) == 0 {
		return nil
	}
	return p
}
