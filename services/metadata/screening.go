package metadata

import (
	"context"
	"log"
	"sync"
	"time"
)

// Clock supplies the current time so TTL behavior is testable.
type Clock func() time.Time

const (
	// screeningTTL bounds staleness of the now-playing/upcoming id sets.
	screeningTTL = 30 * time.Minute
	// screeningMaxPages caps pagination per list. TMDB pages hold 20 rows;
	// five pages cover every KR theater listing with room to spare.
	screeningMaxPages = 5
)

// ScreeningSets holds the TMDB ids currently flagged now-playing or upcoming
// in the configured region. Sets are best-effort: a failed rebuild yields
// empty sets and the classifier falls back to date heuristics.
type ScreeningSets struct {
	NowPlaying map[int64]struct{}
	Upcoming   map[int64]struct{}
	FetchedAt  time.Time
}

// InNowPlaying reports set membership, treating nil sets as empty.
func (s *ScreeningSets) InNowPlaying(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.NowPlaying[id]
	return ok
}

// InUpcoming reports set membership, treating nil sets as empty.
func (s *ScreeningSets) InUpcoming(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.Upcoming[id]
	return ok
}

// screeningCache lazily builds ScreeningSets and rebuilds them wholesale
// once the TTL lapses. There is no partial-update path.
type screeningCache struct {
	tmdb *tmdbClient
	now  Clock
	ttl  time.Duration

	mu   sync.Mutex
	sets *ScreeningSets
}

func newScreeningCache(tmdb *tmdbClient, now Clock) *screeningCache {
	if now == nil {
		now = time.Now
	}
	return &screeningCache{tmdb: tmdb, now: now, ttl: screeningTTL}
}

// Sets returns the current screening sets, rebuilding them if stale. The
// previous sets are kept until a rebuild completes, so concurrent readers
// never observe a half-built state.
func (c *screeningCache) Sets(ctx context.Context) *ScreeningSets {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sets != nil && c.now().Sub(c.sets.FetchedAt) < c.ttl {
		return c.sets
	}

	rebuilt := &ScreeningSets{
		NowPlaying: c.fetchIDSet(ctx, "now_playing"),
		Upcoming:   c.fetchIDSet(ctx, "upcoming"),
		FetchedAt:  c.now(),
	}
	c.sets = rebuilt
	return c.sets
}

// fetchIDSet unions the ids of all pages of the named movie list. A failed
// page is skipped; whatever was gathered still counts.
func (c *screeningCache) fetchIDSet(ctx context.Context, list string) map[int64]struct{} {
	ids := make(map[int64]struct{})
	totalPages := screeningMaxPages
	for page := 1; page <= totalPages; page++ {
		resp, err := c.tmdb.movieList(ctx, list, page)
		if err != nil {
			log.Printf("[metadata] %s page %d fetch failed: %v; skipping page", list, page, err)
			continue
		}
		for _, item := range resp.Results {
			ids[item.ID] = struct{}{}
		}
		if resp.TotalPages > 0 && resp.TotalPages < totalPages {
			totalPages = resp.TotalPages
		}
	}
	return ids
}
