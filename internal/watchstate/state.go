// Package watchstate persists per-item playback position, partitioned by
// adapter-supplied storage keys.
package watchstate

import "time"

// WatchedPercent is the completion threshold above which an item counts as
// fully watched.
const WatchedPercent = 90.0

// State is one item's playback record. Only resumable playables ever get a
// row; ephemeral content never accumulates state.
type State struct {
	ItemID     string        `json:"itemId"`
	Playhead   time.Duration `json:"playhead"`
	Duration   time.Duration `json:"duration"`
	PlayCount  int           `json:"playCount"`
	LastPlayed time.Time     `json:"lastPlayed"`
	WatchTime  time.Duration `json:"watchTime"`
}

// Percent returns playback completion in [0,100].
func (s *State) Percent() float64 {
	if s.Duration <= 0 {
		return 0
	}
	p := float64(s.Playhead) / float64(s.Duration) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Watched reports whether the item is fully watched.
func (s *State) Watched() bool {
	return s.Percent() >= WatchedPercent
}

// InProgress reports whether playback started but hasn't finished.
func (s *State) InProgress() bool {
	return s.Playhead > 0 && !s.Watched()
}
