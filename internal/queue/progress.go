package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmunix/omnicast/internal/watchstate"
)

// UpdateProgress records a playback progress report for a compound item
// id. It is an explicit no-op when the target isn't resumable, so
// ephemeral content never accumulates state.
func (s *Service) UpdateProgress(ctx context.Context, itemID string, playhead, duration time.Duration) error {
	adapter, localID, err := s.reg.Resolve(itemID)
	if err != nil {
		return err
	}
	item, err := adapter.GetItem(ctx, localID)
	if err != nil {
		return err
	}
	if item.Play == nil || !item.Play.Resumable {
		s.logger.Debug("ignoring progress for non-resumable item", "id", itemID)
		return nil
	}
	if duration <= 0 {
		duration = item.Play.Duration
	}

	prev, err := s.states.Get(ctx, itemID)
	if err != nil && !errors.Is(err, watchstate.ErrNotFound) {
		return fmt.Errorf("update progress: %w", err)
	}

	st := &watchstate.State{ItemID: itemID, Playhead: playhead, Duration: duration, LastPlayed: s.now()}
	if prev != nil {
		st.PlayCount = prev.PlayCount
		st.WatchTime = prev.WatchTime
		if playhead > prev.Playhead {
			st.WatchTime += playhead - prev.Playhead
		}
	} else if playhead > 0 {
		st.WatchTime = playhead
	}
	// Count a play the first time a report crosses the watched threshold.
	if st.Watched() && (prev == nil || !prev.Watched()) {
		st.PlayCount++
	}

	bucket := adapter.StorageKey(localID)
	if err := s.states.Set(ctx, bucket, st); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}
