package watchstate

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/omnicast/internal/migrations"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(db))
	return NewStore(db)
}

func TestGetSetDelete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "media:music/rain.mp3")
	assert.ErrorIs(t, err, ErrNotFound)

	st := &State{
		ItemID:     "media:music/rain.mp3",
		Playhead:   90 * time.Second,
		Duration:   300 * time.Second,
		PlayCount:  1,
		LastPlayed: time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC),
		WatchTime:  90 * time.Second,
	}
	require.NoError(t, s.Set(ctx, "media", st))

	got, err := s.Get(ctx, st.ItemID)
	require.NoError(t, err)
	assert.Equal(t, st.Playhead, got.Playhead)
	assert.Equal(t, st.Duration, got.Duration)
	assert.Equal(t, 1, got.PlayCount)
	assert.True(t, st.LastPlayed.Equal(got.LastPlayed))
	assert.InDelta(t, 30.0, got.Percent(), 0.01)
	assert.True(t, got.InProgress())
	assert.False(t, got.Watched())

	// Upsert overwrites.
	st.Playhead = 295 * time.Second
	st.PlayCount = 2
	require.NoError(t, s.Set(ctx, "media", st))
	got, err = s.Get(ctx, st.ItemID)
	require.NoError(t, err)
	assert.True(t, got.Watched())
	assert.Equal(t, 2, got.PlayCount)

	require.NoError(t, s.Delete(ctx, "media", st.ItemID))
	_, err = s.Get(ctx, st.ItemID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting again is fine.
	require.NoError(t, s.Delete(ctx, "media", st.ItemID))
}

func TestBulkVariants(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	ids := []string{"media:a.mp3", "media:b.mp3", "media:c.mp3"}
	for i, id := range ids {
		require.NoError(t, s.Set(ctx, "media", &State{
			ItemID:   id,
			Playhead: time.Duration(i+1) * time.Minute,
			Duration: 10 * time.Minute,
		}))
	}

	got, err := s.GetAll(ctx, append(ids, "media:missing.mp3"))
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.NotContains(t, got, "media:missing.mp3")
	assert.Equal(t, 2*time.Minute, got["media:b.mp3"].Playhead)

	require.NoError(t, s.DeleteAll(ctx, "media", ids))
	got, err = s.GetAll(ctx, ids)
	require.NoError(t, err)
	assert.Empty(t, got)

	// Empty slices are no-ops.
	require.NoError(t, s.DeleteAll(ctx, "media", nil))
	got, err = s.GetAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentWritesSameBucket(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, "media", &State{
				ItemID:   "media:contended.mp3",
				Playhead: time.Duration(i) * time.Second,
				Duration: time.Hour,
			})
		}()
	}
	wg.Wait()

	// Whatever order won, the row is complete and readable.
	got, err := s.Get(ctx, "media:contended.mp3")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got.Duration)
	assert.Less(t, got.Playhead, time.Duration(n)*time.Second)
}
