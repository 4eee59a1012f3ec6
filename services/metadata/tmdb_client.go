package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"reelfeed/models"
)

const (
	tmdbAPIBaseURL   = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"
	tmdbPosterSize   = "w780"
	tmdbBackdropSize = "w1280"
)

// TMDB release_dates entry types.
const (
	releaseTypePremiere           = 1
	releaseTypeTheatricalLimited  = 2
	releaseTypeTheatrical         = 3
	releaseTypeDigital            = 4
	releaseTypePhysical           = 5
	releaseTypeTV                 = 6
)

var errTMDBNotConfigured = errors.New("tmdb api key not configured")

// tmdbClient is a typed client for the TMDB v3 REST API. Every response is
// decoded into an endpoint-specific struct at this boundary; nothing
// downstream touches raw JSON.
type tmdbClient struct {
	apiKey     string
	language   string
	region     string
	httpClient *http.Client
	cache      *fileCache
	baseURL    string
}

func newTMDBClient(apiKey, language, region string, httpClient *http.Client, cache *fileCache) *tmdbClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &tmdbClient{
		apiKey:     apiKey,
		language:   normalizeLanguage(language),
		region:     normalizeRegion(region),
		httpClient: httpClient,
		cache:      cache,
		baseURL:    tmdbAPIBaseURL,
	}
}

func (c *tmdbClient) isConfigured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// normalizeLanguage coerces loose language inputs into TMDB's ll-RR form.
// The service is KR-focused, so an empty value defaults to ko-KR.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return "ko-KR"
	}
	parts := strings.SplitN(lang, "-", 2)
	code := strings.ToLower(parts[0])
	if len(parts) == 2 && parts[1] != "" {
		return code + "-" + strings.ToUpper(parts[1])
	}
	region, ok := defaultRegionByLanguage[code]
	if !ok {
		region = "US"
	}
	return code + "-" + region
}

var defaultRegionByLanguage = map[string]string{
	"ko": "KR",
	"ja": "JP",
	"fr": "FR",
	"de": "DE",
	"zh": "CN",
	"pt": "BR",
}

func normalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		return "KR"
	}
	return region
}

// get performs one TMDB GET request and decodes into out.
func (c *tmdbClient) get(ctx context.Context, path string, params url.Values, out any) error {
	body, err := c.raw(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}

// raw performs one TMDB GET request and returns the body bytes. Used by get
// and by the passthrough proxy, which forwards TMDB JSON unmodified.
func (c *tmdbClient) raw(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if !c.isConfigured() {
		return nil, errTMDBNotConfigured
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if params.Get("language") == "" {
		params.Set("language", c.language)
	}
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tmdb: unexpected status %d for %s", resp.StatusCode, path)
	}
	return io.ReadAll(resp.Body)
}

// --- list endpoints ---

// tmdbListItem is the shared row shape of TMDB list/discover responses.
// Movie and TV rows differ only in which title/date fields are set.
type tmdbListItem struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Name          string  `json:"name"`
	OriginalTitle string  `json:"original_title"`
	OriginalName  string  `json:"original_name"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	FirstAirDate  string  `json:"first_air_date"`
	VoteAverage   float64 `json:"vote_average"`
	GenreIDs      []int64 `json:"genre_ids"`
}

type tmdbPage struct {
	Page         int            `json:"page"`
	Results      []tmdbListItem `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

func (it tmdbListItem) toContentItem(mediaType string) models.ContentItem {
	title := it.Title
	originalTitle := it.OriginalTitle
	if mediaType == models.MediaTypeTV {
		title = it.Name
		originalTitle = it.OriginalName
	}
	return models.ContentItem{
		ID:            it.ID,
		MediaType:     mediaType,
		Title:         title,
		OriginalTitle: originalTitle,
		PosterPath:    it.PosterPath,
		BackdropPath:  it.BackdropPath,
		ReleaseDate:   it.ReleaseDate,
		FirstAirDate:  it.FirstAirDate,
		VoteAverage:   it.VoteAverage,
		GenreIDs:      it.GenreIDs,
	}
}

// Named movie lists the backend exposes directly.
var movieLists = map[string]bool{
	"popular":     true,
	"top_rated":   true,
	"now_playing": true,
	"upcoming":    true,
}

func (c *tmdbClient) movieList(ctx context.Context, list string, page int) (*tmdbPage, error) {
	if !movieLists[list] {
		return nil, fmt.Errorf("unsupported movie list %q", list)
	}
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if list == "now_playing" || list == "upcoming" {
		params.Set("region", c.region)
	}
	var out tmdbPage
	if err := c.get(ctx, "/movie/"+list, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DiscoverQuery carries the discover filters the frontend uses.
type DiscoverQuery struct {
	Genres      []int64
	ReleaseYear int
	SortBy      string
	Page        int
}

func (c *tmdbClient) discoverMovies(ctx context.Context, q DiscoverQuery) (*tmdbPage, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if len(q.Genres) > 0 {
		ids := make([]string, 0, len(q.Genres))
		for _, g := range q.Genres {
			ids = append(ids, strconv.FormatInt(g, 10))
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	if q.ReleaseYear > 0 {
		params.Set("primary_release_year", strconv.Itoa(q.ReleaseYear))
	}
	if q.SortBy != "" {
		params.Set("sort_by", q.SortBy)
	}
	params.Set("region", c.region)
	var out tmdbPage
	if err := c.get(ctx, "/discover/movie", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *tmdbClient) popularTV(ctx context.Context, page int) (*tmdbPage, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	var out tmdbPage
	if err := c.get(ctx, "/tv/popular", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- detail endpoints ---

// Genre is a TMDB genre reference.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the typed shape of /movie/{id}.
type MovieDetails struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	PosterPath    string  `json:"poster_path"`
	BackdropPath  string  `json:"backdrop_path"`
	ReleaseDate   string  `json:"release_date"`
	Runtime       int     `json:"runtime"`
	VoteAverage   float64 `json:"vote_average"`
	Popularity    float64 `json:"popularity"`
	Status        string  `json:"status"`
	Tagline       string  `json:"tagline"`
	Genres        []Genre `json:"genres"`
}

// TVDetails is the typed shape of /tv/{id}.
type TVDetails struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	OriginalName     string  `json:"original_name"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	FirstAirDate     string  `json:"first_air_date"`
	LastAirDate      string  `json:"last_air_date"`
	NumberOfSeasons  int     `json:"number_of_seasons"`
	NumberOfEpisodes int     `json:"number_of_episodes"`
	VoteAverage      float64 `json:"vote_average"`
	Popularity       float64 `json:"popularity"`
	Status           string  `json:"status"`
	Genres           []Genre `json:"genres"`
}

func (c *tmdbClient) movieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	key := cacheKey("tmdb", "movie", "details", c.language, strconv.FormatInt(id, 10))
	var cached MovieDetails
	if ok, _ := c.cache.get(key, &cached); ok && cached.ID != 0 {
		return &cached, nil
	}
	var out MovieDetails
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &out); err != nil {
		return nil, err
	}
	_ = c.cache.set(key, out)
	return &out, nil
}

func (c *tmdbClient) tvDetails(ctx context.Context, id int64) (*TVDetails, error) {
	key := cacheKey("tmdb", "tv", "details", c.language, strconv.FormatInt(id, 10))
	var cached TVDetails
	if ok, _ := c.cache.get(key, &cached); ok && cached.ID != 0 {
		return &cached, nil
	}
	var out TVDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", id), nil, &out); err != nil {
		return nil, err
	}
	_ = c.cache.set(key, out)
	return &out, nil
}

// --- auxiliary endpoints ---

// ImageInfo is one artwork entry of /{type}/{id}/images.
type ImageInfo struct {
	FilePath    string  `json:"file_path"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	VoteAverage float64 `json:"vote_average"`
	Language    string  `json:"iso_639_1"`
}

// URL builds the CDN URL for the image at the given size.
func (i ImageInfo) URL(size string) string {
	if i.FilePath == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + size + i.FilePath
}

// ImagesResponse is the typed shape of /{type}/{id}/images.
type ImagesResponse struct {
	ID        int64       `json:"id"`
	Backdrops []ImageInfo `json:"backdrops"`
	Posters   []ImageInfo `json:"posters"`
	Logos     []ImageInfo `json:"logos"`
}

func (c *tmdbClient) images(ctx context.Context, mediaType string, id int64) (*ImagesResponse, error) {
	params := url.Values{}
	// Artwork is language-tagged; request untagged plus ko/en so posters
	// without text still come back.
	params.Set("include_image_language", "ko,en,null")
	var out ImagesResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/images", mediaType, id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VideoInfo is one entry of /{type}/{id}/videos.
type VideoInfo struct {
	Key         string `json:"key"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

// VideosResponse is the typed shape of /{type}/{id}/videos.
type VideosResponse struct {
	ID      int64       `json:"id"`
	Results []VideoInfo `json:"results"`
}

func (c *tmdbClient) videos(ctx context.Context, mediaType string, id int64) (*VideosResponse, error) {
	var out VideosResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/videos", mediaType, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Provider is one streaming provider of /{type}/{id}/watch/providers.
type Provider struct {
	ProviderID   int64  `json:"provider_id"`
	ProviderName string `json:"provider_name"`
	LogoPath     string `json:"logo_path"`
}

// RegionProviders is one region bucket of the watch providers response.
type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate"`
	Rent     []Provider `json:"rent"`
	Buy      []Provider `json:"buy"`
}

// WatchProvidersResponse is the typed shape of /{type}/{id}/watch/providers.
type WatchProvidersResponse struct {
	ID      int64                      `json:"id"`
	Results map[string]RegionProviders `json:"results"`
}

func (c *tmdbClient) watchProviders(ctx context.Context, mediaType string, id int64) (*WatchProvidersResponse, error) {
	var out WatchProvidersResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d/watch/providers", mediaType, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseDateEntry is one dated release of a region bucket.
type ReleaseDateEntry struct {
	Certification string `json:"certification"`
	Type          int    `json:"type"`
	ReleaseDate   string `json:"release_date"` // RFC3339 timestamp
	Note          string `json:"note"`
}

// RegionReleaseDates is one region bucket of /movie/{id}/release_dates.
type RegionReleaseDates struct {
	Region       string             `json:"iso_3166_1"`
	ReleaseDates []ReleaseDateEntry `json:"release_dates"`
}

// ReleaseDatesResponse is the typed shape of /movie/{id}/release_dates.
type ReleaseDatesResponse struct {
	ID      int64                `json:"id"`
	Results []RegionReleaseDates `json:"results"`
}

func (c *tmdbClient) releaseDates(ctx context.Context, id int64) (*ReleaseDatesResponse, error) {
	key := cacheKey("tmdb", "movie", "release_dates", strconv.FormatInt(id, 10))
	var cached ReleaseDatesResponse
	if ok, _ := c.cache.get(key, &cached); ok && cached.ID != 0 {
		return &cached, nil
	}
	var out ReleaseDatesResponse
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/release_dates", id), nil, &out); err != nil {
		return nil, err
	}
	_ = c.cache.set(key, out)
	return &out, nil
}

// ContentRating is one region's TV rating from /tv/{id}/content_ratings.
type ContentRating struct {
	Region string `json:"iso_3166_1"`
	Rating string `json:"rating"`
}

// ContentRatingsResponse is the typed shape of /tv/{id}/content_ratings.
type ContentRatingsResponse struct {
	ID      int64           `json:"id"`
	Results []ContentRating `json:"results"`
}

func (c *tmdbClient) contentRatings(ctx context.Context, id int64) (*ContentRatingsResponse, error) {
	var out ContentRatingsResponse
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/content_ratings", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- person endpoints ---

// PersonDetails is the typed shape of /person/{id}.
type PersonDetails struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Biography    string `json:"biography"`
	Birthday     string `json:"birthday"`
	Deathday     string `json:"deathday"`
	PlaceOfBirth string `json:"place_of_birth"`
	ProfilePath  string `json:"profile_path"`
	Department   string `json:"known_for_department"`
}

// combinedCreditItem is one row of /person/{id}/combined_credits. Unlike the
// list endpoints the media type is tagged per row.
type combinedCreditItem struct {
	tmdbListItem
	MediaType string `json:"media_type"`
	Character string `json:"character"`
	Job       string `json:"job"`
}

type combinedCreditsResponse struct {
	ID   int64                `json:"id"`
	Cast []combinedCreditItem `json:"cast"`
	Crew []combinedCreditItem `json:"crew"`
}

func (c *tmdbClient) personDetails(ctx context.Context, id int64) (*PersonDetails, error) {
	key := cacheKey("tmdb", "person", "details", c.language, strconv.FormatInt(id, 10))
	var cached PersonDetails
	if ok, _ := c.cache.get(key, &cached); ok && cached.ID != 0 {
		return &cached, nil
	}
	var out PersonDetails
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), nil, &out); err != nil {
		return nil, err
	}
	_ = c.cache.set(key, out)
	return &out, nil
}

func (c *tmdbClient) combinedCredits(ctx context.Context, id int64) (*combinedCreditsResponse, error) {
	var out combinedCreditsResponse
	if err := c.get(ctx, fmt.Sprintf("/person/%d/combined_credits", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
