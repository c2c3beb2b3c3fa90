package watchstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrNotFound indicates no watch state exists for the item.
var ErrNotFound = errors.New("watch state not found")

// Store is the SQLite-backed watch-state store. Callers depend only on the
// get/set/delete contract plus bulk variants; nothing else leaks out.
//
// Writes to the same bucket are serialized through a per-bucket lock so
// overlapping progress reports apply in submission order. SQLite's own
// transactionality keeps partial writes invisible; the lock adds ordering.
// Reads are not serialized and may observe either side of an in-flight
// write.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex // bucket -> write lock
}

// NewStore creates a store on an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) bucketLock(bucket string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[bucket]
	if !ok {
		l = &sync.Mutex{}
		s.locks[bucket] = l
	}
	return l
}

// Get retrieves one item's state. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, itemID string) (*State, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, playhead_ms, duration_ms, play_count, last_played, watch_time_ms
		FROM watch_state WHERE item_id = ?`, itemID)
	st, err := scanState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get %s: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s: %w", itemID, err)
	}
	return st, nil
}

// GetAll returns states for the given ids, keyed by id. Missing ids are
// simply absent from the map.
func (s *Store) GetAll(ctx context.Context, itemIDs []string) (map[string]*State, error) {
	out := make(map[string]*State, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, playhead_ms, duration_ms, play_count, last_played, watch_time_ms
		FROM watch_state WHERE item_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get all: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("get all: %w", err)
		}
		out[st.ItemID] = st
	}
	return out, rows.Err()
}

// Set upserts one item's state in the given bucket.
func (s *Store) Set(ctx context.Context, bucket string, st *State) error {
	l := s.bucketLock(bucket)
	l.Lock()
	defer l.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO watch_state (item_id, bucket, playhead_ms, duration_ms, play_count, last_played, watch_time_ms, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			bucket = excluded.bucket,
			playhead_ms = excluded.playhead_ms,
			duration_ms = excluded.duration_ms,
			play_count = excluded.play_count,
			last_played = excluded.last_played,
			watch_time_ms = excluded.watch_time_ms,
			updated_at = excluded.updated_at`,
		st.ItemID, bucket,
		st.Playhead.Milliseconds(), st.Duration.Milliseconds(),
		st.PlayCount, nullTime(st.LastPlayed), st.WatchTime.Milliseconds(),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", st.ItemID, err)
	}
	return nil
}

// Delete removes one item's state. Deleting absent state is not an error.
func (s *Store) Delete(ctx context.Context, bucket, itemID string) error {
	l := s.bucketLock(bucket)
	l.Lock()
	defer l.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM watch_state WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("delete %s: %w", itemID, err)
	}
	return nil
}

// DeleteAll removes state for all given ids in one statement. Used by the
// exhaustion reset, which must clear a whole container at once.
func (s *Store) DeleteAll(ctx context.Context, bucket string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	l := s.bucketLock(bucket)
	l.Lock()
	defer l.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM watch_state WHERE item_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanState(row scannable) (*State, error) {
	var (
		st          State
		playheadMS  int64
		durationMS  int64
		watchTimeMS int64
		lastPlayed  sql.NullTime
	)
	if err := row.Scan(&st.ItemID, &playheadMS, &durationMS, &st.PlayCount, &lastPlayed, &watchTimeMS); err != nil {
		return nil, err
	}
	st.Playhead = time.Duration(playheadMS) * time.Millisecond
	st.Duration = time.Duration(durationMS) * time.Millisecond
	st.WatchTime = time.Duration(watchTimeMS) * time.Millisecond
	if lastPlayed.Valid {
		st.LastPlayed = lastPlayed.Time
	}
	return &st, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
