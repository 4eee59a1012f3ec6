package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"reelfeed/models"
	"reelfeed/services/kobis"
)

// boxOfficeWindowDays is how far back the KOBIS daily box office is scanned
// when corroborating that a matched movie is actually showing in KR theaters.
const boxOfficeWindowDays = 14

const defaultCacheTTLHours = 24

// Config holds the metadata service construction parameters.
type Config struct {
	TMDBAPIKey    string
	Language      string
	Region        string
	CacheDir      string
	CacheTTLHours int
	HTTPClient    *http.Client
	Clock         Clock
}

// Service is the metadata facade the handlers talk to. It owns the TMDB
// client, the screening-set and OTT caches, and the KOBIS reconciliation
// pieces. The matcher and box-office cache are optional; without a KOBIS key
// the status bundle simply omits the KOBIS fields.
type Service struct {
	tmdb      *tmdbClient
	screening *screeningCache
	ott       *ottDetector
	matcher   *kobis.Matcher
	boxoffice *kobis.BoxOfficeCache
	region    string
	clock     Clock
}

// NewService wires up the metadata service. matcher and boxoffice may be nil.
func NewService(cfg Config, matcher *kobis.Matcher, boxoffice *kobis.BoxOfficeCache) *Service {
	ttl := cfg.CacheTTLHours
	if ttl <= 0 {
		ttl = defaultCacheTTLHours
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	cache := newFileCache(filepath.Join(cfg.CacheDir, "metadata"), ttl)
	tmdb := newTMDBClient(cfg.TMDBAPIKey, cfg.Language, cfg.Region, cfg.HTTPClient, cache)
	return &Service{
		tmdb:      tmdb,
		screening: newScreeningCache(tmdb, clock),
		ott:       newOTTDetector(tmdb),
		matcher:   matcher,
		boxoffice: boxoffice,
		region:    tmdb.region,
		clock:     clock,
	}
}

// IsConfigured reports whether the TMDB side is usable at all.
func (s *Service) IsConfigured() bool {
	return s.tmdb.isConfigured()
}

// PagedContent is one page of normalized content items.
type PagedContent struct {
	Items        []models.ContentItem `json:"items"`
	Page         int                  `json:"page"`
	TotalPages   int                  `json:"totalPages"`
	TotalResults int                  `json:"totalResults"`
}

func pageToContent(page *tmdbPage, mediaType string) *PagedContent {
	items := make([]models.ContentItem, 0, len(page.Results))
	for _, row := range page.Results {
		items = append(items, row.toContentItem(mediaType))
	}
	return &PagedContent{
		Items:        items,
		Page:         page.Page,
		TotalPages:   page.TotalPages,
		TotalResults: page.TotalResults,
	}
}

// MovieList serves the popular / top_rated named lists.
func (s *Service) MovieList(ctx context.Context, list string, page int) (*PagedContent, error) {
	resp, err := s.tmdb.movieList(ctx, list, page)
	if err != nil {
		return nil, err
	}
	return pageToContent(resp, models.MediaTypeMovie), nil
}

// Discover serves filtered movie discovery.
func (s *Service) Discover(ctx context.Context, q DiscoverQuery) (*PagedContent, error) {
	resp, err := s.tmdb.discoverMovies(ctx, q)
	if err != nil {
		return nil, err
	}
	return pageToContent(resp, models.MediaTypeMovie), nil
}

// PopularTV serves the TV popularity list.
func (s *Service) PopularTV(ctx context.Context, page int) (*PagedContent, error) {
	resp, err := s.tmdb.popularTV(ctx, page)
	if err != nil {
		return nil, err
	}
	return pageToContent(resp, models.MediaTypeTV), nil
}

// NowPlayingItem is a now-playing row annotated with its OTT-only flag so
// the frontend can suppress the "in theaters" badge for digital-only titles.
type NowPlayingItem struct {
	models.ContentItem
	OTTOnly bool `json:"ottOnly"`
}

// NowPlayingPage is one page of annotated now-playing rows.
type NowPlayingPage struct {
	Items        []NowPlayingItem `json:"items"`
	Page         int              `json:"page"`
	TotalPages   int              `json:"totalPages"`
	TotalResults int              `json:"totalResults"`
}

// NowPlaying serves the now-playing list with OTT-only annotations resolved
// through the bounded-parallelism detector.
func (s *Service) NowPlaying(ctx context.Context, page int) (*NowPlayingPage, error) {
	resp, err := s.tmdb.movieList(ctx, "now_playing", page)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(resp.Results))
	for _, row := range resp.Results {
		ids = append(ids, row.ID)
	}
	ottFlags := s.ott.Batch(ctx, ids, s.region)

	items := make([]NowPlayingItem, 0, len(resp.Results))
	for _, row := range resp.Results {
		items = append(items, NowPlayingItem{
			ContentItem: row.toContentItem(models.MediaTypeMovie),
			OTTOnly:     ottFlags[row.ID],
		})
	}
	return &NowPlayingPage{
		Items:        items,
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}, nil
}

// MovieDetails returns the typed movie detail.
func (s *Service) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	return s.tmdb.movieDetails(ctx, id)
}

// TitleMeta bundles everything the detail modal renders in one response.
// Enrichment fields are best-effort: a failed auxiliary fetch leaves the
// field empty rather than failing the response.
type TitleMeta struct {
	Movie         *MovieDetails    `json:"movie,omitempty"`
	TV            *TVDetails       `json:"tv,omitempty"`
	Certification string           `json:"certification,omitempty"`
	Providers     *RegionProviders `json:"providers,omitempty"`
	Videos        []VideoInfo      `json:"videos,omitempty"`
}

// Meta serves the combined detail bundle for a movie or TV title.
func (s *Service) Meta(ctx context.Context, mediaType string, id int64) (*TitleMeta, error) {
	meta := &TitleMeta{}
	switch mediaType {
	case models.MediaTypeMovie:
		d, err := s.tmdb.movieDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		meta.Movie = d
		if rd, err := s.tmdb.releaseDates(ctx, id); err == nil {
			meta.Certification = certificationFromReleaseDates(rd, s.region)
		} else {
			log.Printf("[metadata] certification lookup failed id=%d: %v", id, err)
		}
	case models.MediaTypeTV:
		d, err := s.tmdb.tvDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		meta.TV = d
		if cr, err := s.tmdb.contentRatings(ctx, id); err == nil {
			for _, rating := range cr.Results {
				if rating.Region == s.region {
					meta.Certification = rating.Rating
					break
				}
			}
		} else {
			log.Printf("[metadata] content ratings lookup failed id=%d: %v", id, err)
		}
	default:
		return nil, fmt.Errorf("unsupported media type %q", mediaType)
	}

	if wp, err := s.tmdb.watchProviders(ctx, mediaType, id); err == nil {
		if regional, ok := wp.Results[s.region]; ok {
			meta.Providers = &regional
		}
	} else {
		log.Printf("[metadata] watch providers lookup failed type=%s id=%d: %v", mediaType, id, err)
	}
	if v, err := s.tmdb.videos(ctx, mediaType, id); err == nil {
		meta.Videos = v.Results
	} else {
		log.Printf("[metadata] videos lookup failed type=%s id=%d: %v", mediaType, id, err)
	}
	return meta, nil
}

func certificationFromReleaseDates(resp *ReleaseDatesResponse, region string) string {
	for _, bucket := range resp.Results {
		if bucket.Region != region {
			continue
		}
		for _, entry := range bucket.ReleaseDates {
			if entry.Certification != "" {
				return entry.Certification
			}
		}
	}
	return ""
}

// Images serves the artwork listing.
func (s *Service) Images(ctx context.Context, mediaType string, id int64) (*ImagesResponse, error) {
	return s.tmdb.images(ctx, mediaType, id)
}

// Videos serves the video listing.
func (s *Service) Videos(ctx context.Context, mediaType string, id int64) (*VideosResponse, error) {
	return s.tmdb.videos(ctx, mediaType, id)
}

// PersonCredit is one combined-credit row annotated with the person's role.
type PersonCredit struct {
	models.ContentItem
	Character string `json:"character,omitempty"`
	Job       string `json:"job,omitempty"`
}

// PersonBundle is the full person view: biography plus filmography.
type PersonBundle struct {
	Person PersonDetails  `json:"person"`
	Cast   []PersonCredit `json:"cast,omitempty"`
	Crew   []PersonCredit `json:"crew,omitempty"`
}

// Person serves the person detail bundle. The credits are best-effort; only
// the primary detail fetch can fail the call.
func (s *Service) Person(ctx context.Context, id int64) (*PersonBundle, error) {
	details, err := s.tmdb.personDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	bundle := &PersonBundle{Person: *details}

	credits, err := s.tmdb.combinedCredits(ctx, id)
	if err != nil {
		log.Printf("[metadata] combined credits lookup failed person=%d: %v", id, err)
		return bundle, nil
	}
	bundle.Cast = personCredits(credits.Cast)
	bundle.Crew = personCredits(credits.Crew)
	return bundle, nil
}

// personCredits keeps movie and TV rows only; combined credits can contain
// other media types.
func personCredits(items []combinedCreditItem) []PersonCredit {
	out := make([]PersonCredit, 0, len(items))
	for _, it := range items {
		if it.MediaType != models.MediaTypeMovie && it.MediaType != models.MediaTypeTV {
			continue
		}
		out = append(out, PersonCredit{
			ContentItem: it.toContentItem(it.MediaType),
			Character:   it.Character,
			Job:         it.Job,
		})
	}
	return out
}

// ErrProxyPathNotAllowed rejects passthrough requests outside the whitelist.
var ErrProxyPathNotAllowed = errors.New("proxy path not allowed")

// Proxy paths the passthrough endpoint will forward. Anything else is
// rejected before it reaches TMDB.
var allowedProxyPrefixes = []string{
	"movie/", "tv/", "person/", "search/", "discover/", "trending/", "genre/",
}

// ProxyAllowed reports whether the passthrough proxy may forward this path.
func ProxyAllowed(path string) bool {
	path = strings.TrimPrefix(path, "/")
	for _, prefix := range allowedProxyPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Proxy forwards a whitelisted TMDB GET and returns the raw JSON body.
func (s *Service) Proxy(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if !ProxyAllowed(path) {
		return nil, fmt.Errorf("%w: %s", ErrProxyPathNotAllowed, path)
	}
	return s.tmdb.raw(ctx, "/"+strings.TrimPrefix(path, "/"), query)
}

// TitleStatus builds the release-status bundle for one title: classification
// kind, OTT-only flag, rerun qualification, and the best-guess KOBIS match.
// Every enrichment in here degrades to its zero value on failure; only the
// primary detail fetch can fail the call.
func (s *Service) TitleStatus(ctx context.Context, mediaType string, id int64) (*models.TitleStatus, error) {
	status := &models.TitleStatus{ID: id, MediaType: mediaType}
	sets := s.screening.Sets(ctx)

	if mediaType == models.MediaTypeTV {
		d, err := s.tmdb.tvDetails(ctx, id)
		if err != nil {
			return nil, err
		}
		status.Kind = ReleaseStatusKind(StatusInput{
			MediaType:    mediaType,
			ID:           id,
			FirstAirDate: d.FirstAirDate,
			Sets:         sets,
			Now:          s.clock(),
		})
		return status, nil
	}

	d, err := s.tmdb.movieDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	ottOnly := false
	rerun := false
	if rd, err := s.tmdb.releaseDates(ctx, id); err == nil {
		ottOnly = ottOnlyFromReleaseDates(rd, s.region)
		rerun = kobis.IsRerun(theatricalDates(rd, s.region), kobis.DefaultRerunGapMonths)
	} else {
		log.Printf("[metadata] release_dates fetch failed id=%d: %v; status degrades", id, err)
	}

	if s.matcher != nil {
		match, err := s.matcher.FindOpenDate(ctx, kobis.TitleDetail{
			Title:         d.Title,
			OriginalTitle: d.OriginalTitle,
			ReleaseDate:   d.ReleaseDate,
		})
		if err != nil {
			log.Printf("[metadata] kobis match failed id=%d title=%q: %v; omitting match", id, d.Title, err)
		} else {
			status.Kobis = match
		}
	}

	kobisNow := false
	if s.boxoffice != nil && status.Kobis.MovieCode != "" {
		codes := s.boxoffice.MovieCodes(ctx, boxOfficeWindowDays)
		_, kobisNow = codes[status.Kobis.MovieCode]
	}

	status.OTTOnly = ottOnly
	status.Rerun = rerun
	status.Kind = ReleaseStatusKind(StatusInput{
		MediaType:       mediaType,
		ID:              id,
		ReleaseDate:     d.ReleaseDate,
		Sets:            sets,
		KobisNowPlaying: kobisNow,
		OTTOnly:         ottOnly,
		Rerun:           rerun,
		Now:             s.clock(),
	})
	return status, nil
}
