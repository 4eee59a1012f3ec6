// Package recommend computes the "match %" shown on title cards. The score is
// a deterministic weighted point system over the viewer's onboarding
// preferences; no I/O happens here.
package recommend

import (
	"math"

	"reelfeed/models"
)

const (
	baseScore = 50

	genrePointsPerOverlap = 10
	genrePointsMax        = 30

	yearExactPoints  = 10
	yearDecadePoints = 5

	ratingPointsMax = 10
	ratingBaseline  = 5.0

	scoreMin = 1
	scoreMax = 99
)

// MatchScore rates how well one title fits the given preferences, on a 1-99
// scale. Neutral inputs (no preferred genres, no release year, average
// rating) land at the base of 50.
func MatchScore(item models.ContentItem, prefs models.Preferences) int {
	score := float64(baseScore)

	overlap := genreOverlap(item.GenreIDs, prefs.Genres)
	score += math.Min(genrePointsMax, float64(overlap*genrePointsPerOverlap))

	if prefs.ReleaseYear > 0 {
		if year := releaseYear(item); year > 0 {
			if year == prefs.ReleaseYear {
				score += yearExactPoints
			} else if year/10 == prefs.ReleaseYear/10 {
				score += yearDecadePoints
			}
		}
	}

	if item.VoteAverage > ratingBaseline {
		score += math.Min(ratingPointsMax, (item.VoteAverage-ratingBaseline)*2)
	}

	rounded := int(math.Round(score))
	if rounded < scoreMin {
		return scoreMin
	}
	if rounded > scoreMax {
		return scoreMax
	}
	return rounded
}

func genreOverlap(itemGenres, preferred []int64) int {
	if len(itemGenres) == 0 || len(preferred) == 0 {
		return 0
	}
	want := make(map[int64]struct{}, len(preferred))
	for _, g := range preferred {
		want[g] = struct{}{}
	}
	count := 0
	for _, g := range itemGenres {
		if _, ok := want[g]; ok {
			count++
		}
	}
	return count
}

// releaseYear parses the leading year out of the item's primary ISO date,
// returning 0 when absent or malformed.
func releaseYear(item models.ContentItem) int {
	date := item.PrimaryDate()
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}
