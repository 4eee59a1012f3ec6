package models

import "time"

// Trend event actions accepted by the trends endpoint.
const (
	TrendActionView     = "view"
	TrendActionSearch   = "search"
	TrendActionFavorite = "favorite"
)

// TrendEvent is one recorded client interaction with a title.
type TrendEvent struct {
	ID        string    `json:"id"`
	TitleID   int64     `json:"titleId"`
	MediaType string    `json:"mediaType"`
	Action    string    `json:"action"`
	Region    string    `json:"region,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TrendSummary aggregates events per title for trend listings.
type TrendSummary struct {
	TitleID   int64  `json:"titleId"`
	MediaType string `json:"mediaType"`
	Count     int64  `json:"count"`
}

// BoxOfficeTrend is one entry of the KR daily box-office listing served by
// the trends endpoint.
type BoxOfficeTrend struct {
	Rank      int    `json:"rank"`
	MovieCode string `json:"movieCd"`
	Title     string `json:"title"`
	OpenDate  string `json:"openDt,omitempty"` // ISO YYYY-MM-DD
	Audience  int64  `json:"audience"`         // accumulated admissions
}
