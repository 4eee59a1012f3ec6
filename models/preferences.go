package models

// Preferences captures the onboarding quiz answers used by the match-score
// heuristic. Clients keep these locally; they are only posted to the score
// endpoint, never persisted server-side.
type Preferences struct {
	Genres      []int64  `json:"genres,omitempty"`
	Moods       []string `json:"moods,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`     // preferred runtime in minutes
	ReleaseYear int      `json:"releaseYear,omitempty"` // preferred release year
	Country     string   `json:"country,omitempty"`
	Excludes    []int64  `json:"excludes,omitempty"` // title ids to filter out
}
