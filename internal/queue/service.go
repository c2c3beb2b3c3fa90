// Package queue resolves queueable containers into playback decisions: one
// "next" item (Play) or the full ordered set (Queue), applying watch state
// and scheduling heuristics.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/omnicast/internal/media"
	"github.com/vmunix/omnicast/internal/refparse"
	"github.com/vmunix/omnicast/internal/registry"
	"github.com/vmunix/omnicast/internal/watchstate"
)

// defaultSourceTimeout bounds each source's resolution inside a composite,
// so an unreachable integration adds bounded latency, never a multiplied
// delay.
const defaultSourceTimeout = 10 * time.Second

// Service selects playables from resolved containers.
type Service struct {
	reg     *registry.Registry
	states  *watchstate.Store
	logger  *slog.Logger
	now     func() time.Time
	intn    func(n int) int
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand overrides the shuffle source (tests).
func WithRand(intn func(n int) int) Option {
	return func(s *Service) { s.intn = intn }
}

// WithSourceTimeout overrides the per-source resolution timeout.
func WithSourceTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a queue service.
func New(reg *registry.Registry, states *watchstate.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		reg:     reg,
		states:  states,
		logger:  logger.With("component", "queue"),
		now:     time.Now,
		intn:    rand.Intn,
		timeout: defaultSourceTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// candidate is one playable leaf with its effective modifiers and state.
type candidate struct {
	item  *media.Item
	mods  media.Modifiers // reference modifiers overlaid with item props
	state *watchstate.State
	order int // container order
}

// Play returns exactly one next playable for the referenced containers, or
// ErrResolutionFailed when nothing is eligible.
//
// Selection: resume the most recently played in-progress leaf; else the
// first (or random, under shuffle) unwatched leaf; else clear the watch
// state of every fully watched leaf and restart rotation.
func (s *Service) Play(ctx context.Context, refs []media.SourceReference, mods media.Modifiers) (*media.Item, error) {
	cands, mode, err := s.gather(ctx, refs, mods)
	if err != nil {
		return nil, err
	}
	shuffle := mode == media.TraversalShuffle
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no eligible playable", media.ErrResolutionFailed)
	}

	var inProgress, unwatched, watched []*candidate
	for _, c := range cands {
		switch {
		case c.state != nil && c.state.InProgress():
			inProgress = append(inProgress, c)
		case c.state != nil && c.state.Watched():
			watched = append(watched, c)
		default:
			unwatched = append(unwatched, c)
		}
	}

	// Resume-first: most recent lastPlayed, ties broken by container order
	// (the slice is already in container order, so strictly-later wins).
	if len(inProgress) > 0 {
		best := inProgress[0]
		for _, c := range inProgress[1:] {
			if c.state.LastPlayed.After(best.state.LastPlayed) {
				best = c
			}
		}
		return s.withResume(best), nil
	}

	if len(unwatched) > 0 {
		if shuffle {
			return s.withResume(unwatched[s.intn(len(unwatched))]), nil
		}
		sortByPriority(unwatched)
		return s.withResume(unwatched[0]), nil
	}

	// Exhaustion reset: every eligible leaf is fully watched. Clear their
	// state so the container rotates instead of dead-ending.
	if err := s.resetWatched(ctx, watched); err != nil {
		return nil, err
	}
	for _, c := range watched {
		c.state = nil
	}
	if shuffle {
		return s.withResume(watched[s.intn(len(watched))]), nil
	}
	sortByPriority(watched)
	return s.withResume(watched[0]), nil
}

// Queue returns the full ordered set for the referenced containers per
// their traversal mode.
func (s *Service) Queue(ctx context.Context, refs []media.SourceReference, mods media.Modifiers) ([]*media.Item, error) {
	cands, mode, err := s.gather(ctx, refs, mods)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no eligible playable", media.ErrResolutionFailed)
	}

	switch {
	case mode == media.TraversalShuffle:
		perm := make([]*candidate, len(cands))
		copy(perm, cands)
		for i := len(perm) - 1; i > 0; i-- {
			j := s.intn(i + 1)
			perm[i], perm[j] = perm[j], perm[i]
		}
		cands = perm
	case mods.Bool("recent_on_top"):
		sort.SliceStable(cands, func(i, j int) bool {
			return lastPlayed(cands[i]).After(lastPlayed(cands[j]))
		})
	case mode == media.TraversalHeuristic:
		// Heuristic order: in-progress first (most recent leading), then
		// unwatched by priority, then watched; stable on container order.
		sort.SliceStable(cands, func(i, j int) bool {
			ri, rj := rank(cands[i]), rank(cands[j])
			if ri != rj {
				return ri < rj
			}
			switch ri {
			case 0:
				return lastPlayed(cands[i]).After(lastPlayed(cands[j]))
			case 1:
				return priorityOf(cands[i]) > priorityOf(cands[j])
			default:
				return false
			}
		})
	default:
		// Sequential containers keep their container order untouched.
	}

	items := make([]*media.Item, len(cands))
	for i, c := range cands {
		items[i] = s.withResume(c)
	}
	return items, nil
}

// gather resolves all referenced containers into filtered candidates plus
// the effective traversal mode. An inline shuffle modifier overrides the
// containers' own mode.
func (s *Service) gather(ctx context.Context, refs []media.SourceReference, mods media.Modifiers) ([]*candidate, media.TraversalMode, error) {
	if mods == nil {
		mods = make(media.Modifiers)
	}
	leaves, mode, err := s.resolveAll(ctx, refs)
	if err != nil {
		return nil, mode, err
	}
	if mods.Bool("shuffle") {
		mode = media.TraversalShuffle
	}

	now := s.now()
	cands := make([]*candidate, 0, len(leaves))
	ids := make([]string, 0, len(leaves))
	for i, leaf := range leaves {
		if leaf.Play == nil {
			continue
		}
		eff := mods.Clone()
		if leaf.Props != nil {
			// Structured per-item properties beat inline modifiers.
			eff.Merge(leaf.Props, true)
		}
		if !eligible(eff, now) {
			continue
		}
		cands = append(cands, &candidate{item: leaf, mods: eff, order: i})
		ids = append(ids, leaf.ID)
	}

	states, err := s.states.GetAll(ctx, ids)
	if err != nil {
		return nil, mode, fmt.Errorf("load watch state: %w", err)
	}
	for _, c := range cands {
		c.state = states[c.item.ID]
	}
	return cands, mode, nil
}

// resolveAll fans out per-source resolution concurrently and assembles the
// results in reference order, along with the combined traversal mode
// (shuffle beats heuristic beats sequential across a composite). Inside a
// composite an unavailable source is demoted to "skip, continue"; a
// single-source failure stays a typed error the caller can branch on.
func (s *Service) resolveAll(ctx context.Context, refs []media.SourceReference) ([]*media.Item, media.TraversalMode, error) {
	if len(refs) == 0 {
		return nil, media.TraversalSequential, fmt.Errorf("%w: no sources", media.ErrInvalidReference)
	}

	results := make([][]*media.Item, len(refs))
	modes := make([]media.TraversalMode, len(refs))
	errs := make([]error, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.timeout)
			defer cancel()

			modes[i] = media.TraversalSequential
			adapter := s.reg.Get(ref.Source)
			if adapter == nil {
				errs[i] = fmt.Errorf("%w: unknown source %q", media.ErrNotFound, ref.Source)
				return nil
			}
			if item, err := adapter.GetItem(cctx, ref.LocalID); err == nil {
				if item.Queue != nil && item.Queue.Mode != "" {
					modes[i] = item.Queue.Mode
				}
			}
			leaves, err := adapter.ResolvePlayables(cctx, ref.LocalID)
			if err != nil {
				if cctx.Err() != nil && gctx.Err() == nil {
					// Timed-out sources count as unavailable; a late
					// result is discarded with the context.
					err = media.Unavailable(ref.Source, cctx.Err())
				}
				errs[i] = err
				return nil
			}
			results[i] = leaves
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, media.TraversalSequential, err
	}

	if len(refs) == 1 && errs[0] != nil {
		if errors.Is(errs[0], media.ErrUnavailable) {
			// One unreachable source must never surface as a hard
			// failure; the container is just empty right now.
			s.logger.Warn("source unavailable", "source", refs[0].Source, "error", errs[0])
			return nil, media.TraversalSequential, nil
		}
		return nil, media.TraversalSequential, errs[0]
	}

	var out []*media.Item
	mode := media.TraversalSequential
	for i := range refs {
		if errs[i] != nil {
			s.logger.Warn("skipping failed source in composite",
				"source", refs[i].Source, "error", errs[i])
			continue
		}
		out = append(out, results[i]...)
		switch modes[i] {
		case media.TraversalShuffle:
			mode = media.TraversalShuffle
		case media.TraversalHeuristic:
			if mode != media.TraversalShuffle {
				mode = media.TraversalHeuristic
			}
		}
	}
	return out, mode, nil
}

// resetWatched clears watch state for the exhausted leaves, grouped into
// their adapter-supplied partitions.
func (s *Service) resetWatched(ctx context.Context, watched []*candidate) error {
	buckets := make(map[string][]string)
	for _, c := range watched {
		adapter := s.reg.Get(c.item.Source)
		if adapter == nil {
			continue
		}
		key := adapter.StorageKey(c.item.LocalID)
		buckets[key] = append(buckets[key], c.item.ID)
	}
	for bucket, ids := range buckets {
		if err := s.states.DeleteAll(ctx, bucket, ids); err != nil {
			return fmt.Errorf("exhaustion reset: %w", err)
		}
	}
	s.logger.Info("exhaustion reset", "cleared", len(watched))
	return nil
}

// withResume stamps the resume position onto the returned item.
func (s *Service) withResume(c *candidate) *media.Item {
	if c.item.Play != nil && c.item.Play.Resumable && c.state != nil && c.state.InProgress() {
		c.item.Play.ResumePosition = c.state.Playhead
	}
	return c.item
}

// eligible applies the scheduling filters: hold flag, wait-until in the
// future, skip-after in the past, and day-of-week exclusion. A leaf
// excluded for today is out of candidacy entirely, not deprioritized.
func eligible(mods media.Modifiers, now time.Time) bool {
	if mods.Bool("hold") {
		return false
	}
	if v, ok := mods.Get("wait_until"); ok {
		if t, err := parseWhen(v); err == nil && now.Before(t) {
			return false
		}
	}
	if v, ok := mods.Get("skip_after"); ok {
		if t, err := parseWhen(v); err == nil && now.After(t) {
			return false
		}
	}
	return refparse.DayAllowed(mods.GetList("days"), now)
}

// parseWhen accepts RFC 3339 or bare dates.
func parseWhen(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func priorityOf(c *candidate) int {
	if v, ok := c.mods.Get("priority"); ok {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

// sortByPriority orders by priority descending, stable on container order.
func sortByPriority(cands []*candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return priorityOf(cands[i]) > priorityOf(cands[j])
	})
}

func lastPlayed(c *candidate) time.Time {
	if c.state == nil {
		return time.Time{}
	}
	return c.state.LastPlayed
}

// rank buckets candidates for the heuristic queue order.
func rank(c *candidate) int {
	switch {
	case c.state != nil && c.state.InProgress():
		return 0
	case c.state == nil || !c.state.Watched():
		return 1
	default:
		return 2
	}
}
