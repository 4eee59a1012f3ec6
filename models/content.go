package models

import "fmt"

// Media types used throughout the service. TMDB uses the same strings.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// ContentItem is the normalized shape of one movie or TV title as served to
// clients. Fields are sourced verbatim from TMDB responses and are immutable
// per fetch.
type ContentItem struct {
	ID            int64   `json:"id"`
	MediaType     string  `json:"mediaType"` // "movie" or "tv"
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	PosterPath    string  `json:"posterPath,omitempty"`
	BackdropPath  string  `json:"backdropPath,omitempty"`
	ReleaseDate   string  `json:"releaseDate,omitempty"`  // movies, ISO YYYY-MM-DD
	FirstAirDate  string  `json:"firstAirDate,omitempty"` // tv
	VoteAverage   float64 `json:"voteAverage"`
	GenreIDs      []int64 `json:"genreIds,omitempty"`
}

// Key returns the cache key for this item, e.g. "movie:603".
func (c ContentItem) Key() string {
	return fmt.Sprintf("%s:%d", c.MediaType, c.ID)
}

// PrimaryDate returns the release date for movies and the first-air date for
// TV, whichever applies.
func (c ContentItem) PrimaryDate() string {
	if c.MediaType == MediaTypeTV {
		return c.FirstAirDate
	}
	return c.ReleaseDate
}

// ReleaseStatus classifies how a title relates to KR theaters right now.
type ReleaseStatus string

const (
	ReleaseStatusNow      ReleaseStatus = "now"
	ReleaseStatusUpcoming ReleaseStatus = "upcoming"
	ReleaseStatusRerun    ReleaseStatus = "rerun"
	// ReleaseStatusNone means no badge: the empty string marshals to an
	// omitted field so clients simply skip rendering.
	ReleaseStatusNone ReleaseStatus = ""
)

// KobisMatch is the best-guess KOBIS record for a TMDB title. Both fields are
// empty when no plausible candidate was found; the match is best-effort and
// never an error condition.
type KobisMatch struct {
	MovieCode string `json:"kobisMovieCd,omitempty"`
	OpenDate  string `json:"kobisOpenDt,omitempty"` // ISO YYYY-MM-DD
}

// TitleStatus bundles everything a detail view needs to render release badges
// for one title.
type TitleStatus struct {
	ID        int64         `json:"id"`
	MediaType string        `json:"mediaType"`
	Kind      ReleaseStatus `json:"kind,omitempty"`
	OTTOnly   bool          `json:"ottOnly"`
	Rerun     bool          `json:"rerun"`
	Kobis     KobisMatch    `json:"kobis"`
}
