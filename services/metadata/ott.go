package metadata

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// maxConcurrentOTTLookups caps parallel release-date fetches when annotating
// a whole list row-by-row.
const maxConcurrentOTTLookups = 4

// ottDetector answers "is this movie digital-only in a region", memoized per
// (id, region). Lookups that fail resolve to false so a transient error never
// suppresses a theatrical badge.
type ottDetector struct {
	tmdb *tmdbClient

	mu   sync.Mutex
	memo map[string]bool
}

func newOTTDetector(tmdb *tmdbClient) *ottDetector {
	return &ottDetector{tmdb: tmdb, memo: make(map[string]bool)}
}

// IsOTTOnly reports whether the movie has no theatrical release entry and at
// least one digital entry in the region's release_dates bucket. Fetch errors
// are logged and resolve to false; only successful lookups are memoized so a
// transient failure is not pinned for the process lifetime.
func (d *ottDetector) IsOTTOnly(ctx context.Context, id int64, region string) bool {
	key := fmt.Sprintf("%d:%s", id, region)

	d.mu.Lock()
	if v, ok := d.memo[key]; ok {
		d.mu.Unlock()
		return v
	}
	d.mu.Unlock()

	resp, err := d.tmdb.releaseDates(ctx, id)
	if err != nil {
		log.Printf("[metadata] release_dates fetch failed id=%d: %v; assuming theatrical", id, err)
		return false
	}
	result := ottOnlyFromReleaseDates(resp, region)

	d.mu.Lock()
	d.memo[key] = result
	d.mu.Unlock()
	return result
}

// Batch resolves OTT-only flags for many ids with bounded parallelism.
func (d *ottDetector) Batch(ctx context.Context, ids []int64, region string) map[int64]bool {
	results := make(map[int64]bool, len(ids))
	var resultsMu sync.Mutex

	p := pool.New().WithMaxGoroutines(maxConcurrentOTTLookups)
	for _, id := range ids {
		id := id
		p.Go(func() {
			v := d.IsOTTOnly(ctx, id, region)
			resultsMu.Lock()
			results[id] = v
			resultsMu.Unlock()
		})
	}
	p.Wait()
	return results
}

// ottOnlyFromReleaseDates applies the classification rule to a fetched
// payload: true only when the region bucket has no theatrical-type entry and
// at least one digital entry. A missing bucket is false — absence of data is
// not evidence of a digital-only release.
func ottOnlyFromReleaseDates(resp *ReleaseDatesResponse, region string) bool {
	for _, bucket := range resp.Results {
		if bucket.Region != region {
			continue
		}
		hasTheatrical := false
		hasDigital := false
		for _, entry := range bucket.ReleaseDates {
			switch entry.Type {
			case releaseTypeTheatricalLimited, releaseTypeTheatrical:
				hasTheatrical = true
			case releaseTypeDigital:
				hasDigital = true
			}
		}
		return !hasTheatrical && hasDigital
	}
	return false
}

// theatricalDates extracts the theatrical release dates (ISO
// YYYY-MM-DD) for the region, for rerun qualification.
func theatricalDates(resp *ReleaseDatesResponse, region string) []string {
	var dates []string
	for _, bucket := range resp.Results {
		if bucket.Region != region {
			continue
		}
		for _, entry := range bucket.ReleaseDates {
			if entry.Type != releaseTypeTheatricalLimited && entry.Type != releaseTypeTheatrical {
				continue
			}
			if len(entry.ReleaseDate) >= 10 {
				dates = append(dates, entry.ReleaseDate[:10])
			}
		}
	}
	return dates
}
