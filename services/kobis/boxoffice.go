package kobis

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"reelfeed/models"
)

// Clock supplies the current time so cache TTLs are testable.
type Clock func() time.Time

// BoxOfficeCacheTTL is how long a fetched box-office window stays fresh.
// Daily box-office numbers only change once a day, so 6 hours is generous.
const BoxOfficeCacheTTL = 6 * time.Hour

const maxConcurrentDayFetches = 5

type windowEntry struct {
	codes     map[string]struct{}
	fetchedAt time.Time
}

type dailyEntry struct {
	trends    []models.BoxOfficeTrend
	fetchedAt time.Time
}

// BoxOfficeCache memoizes daily box-office scans. Windows are keyed by the
// requested day-window size; each window holds the union of movie codes seen
// across those days.
type BoxOfficeCache struct {
	client *Client
	now    Clock
	ttl    time.Duration

	mu      sync.Mutex
	windows map[int]windowEntry
	daily   *dailyEntry
}

// NewBoxOfficeCache creates a cache around the given client. A nil clock
// defaults to time.Now.
func NewBoxOfficeCache(client *Client, now Clock) *BoxOfficeCache {
	if now == nil {
		now = time.Now
	}
	return &BoxOfficeCache{
		client:  client,
		now:     now,
		ttl:     BoxOfficeCacheTTL,
		windows: make(map[int]windowEntry),
	}
}

// MovieCodes returns the set of KOBIS movie codes that appeared in the daily
// box office during the trailing `days` days. Individual day fetches that
// fail are skipped; partial data is safer than none for a "now playing"
// heuristic, so the union of whatever succeeded is cached and returned.
func (c *BoxOfficeCache) MovieCodes(ctx context.Context, days int) map[string]struct{} {
	if days <= 0 {
		return map[string]struct{}{}
	}

	c.mu.Lock()
	if entry, ok := c.windows[days]; ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return entry.codes
	}
	c.mu.Unlock()

	codes := make(map[string]struct{})
	var codesMu sync.Mutex

	sem := make(chan struct{}, maxConcurrentDayFetches)
	var wg sync.WaitGroup
	today := c.now()
	for i := 1; i <= days; i++ {
		wg.Add(1)
		go func(daysAgo int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			target := today.AddDate(0, 0, -daysAgo)
			entries, err := c.client.DailyBoxOffice(ctx, target)
			if err != nil {
				log.Printf("[kobis] daily box office fetch failed date=%s err=%v; skipping day", target.Format(isoDateLayout), err)
				return
			}
			codesMu.Lock()
			for _, e := range entries {
				if e.MovieCode != "" {
					codes[e.MovieCode] = struct{}{}
				}
			}
			codesMu.Unlock()
		}(i)
	}
	wg.Wait()

	c.mu.Lock()
	c.windows[days] = windowEntry{codes: codes, fetchedAt: c.now()}
	c.mu.Unlock()
	return codes
}

// Latest returns yesterday's box-office top list, cached. KOBIS publishes a
// day's numbers the following morning, so "yesterday" is the newest complete
// list.
func (c *BoxOfficeCache) Latest(ctx context.Context) ([]models.BoxOfficeTrend, error) {
	c.mu.Lock()
	if c.daily != nil && c.now().Sub(c.daily.fetchedAt) < c.ttl {
		trends := c.daily.trends
		c.mu.Unlock()
		return trends, nil
	}
	c.mu.Unlock()

	target := c.now().AddDate(0, 0, -1)
	entries, err := c.client.DailyBoxOffice(ctx, target)
	if err != nil {
		return nil, err
	}

	trends := make([]models.BoxOfficeTrend, 0, len(entries))
	for _, e := range entries {
		rank, _ := strconv.Atoi(e.Rank)
		audience, _ := strconv.ParseInt(e.AudienceAccum, 10, 64)
		trends = append(trends, models.BoxOfficeTrend{
			Rank:      rank,
			MovieCode: e.MovieCode,
			Title:     e.Title,
			OpenDate:  ToISODate(e.OpenDate),
			Audience:  audience,
		})
	}

	c.mu.Lock()
	c.daily = &dailyEntry{trends: trends, fetchedAt: c.now()}
	c.mu.Unlock()
	return trends, nil
}
