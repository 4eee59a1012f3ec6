package metadata

import (
	"time"

	"reelfeed/models"
)

// nowPlayingWindowDays is the trailing window within which a released movie
// is assumed still in theaters when the screening sets say nothing. Tunable;
// long theatrical runs can outlive it and very short ones undershoot it.
const nowPlayingWindowDays = 90

const isoDateLayout = "2006-01-02"

// StatusInput is everything the classifier looks at. Sets may be nil and the
// zero value of every field is safe; the classifier then simply returns
// ReleaseStatusNone.
type StatusInput struct {
	MediaType    string
	ID           int64
	ReleaseDate  string // ISO, movies
	FirstAirDate string // ISO, tv
	Sets         *ScreeningSets
	// KobisNowPlaying corroborates theatrical presence from the KOBIS daily
	// box office when TMDB's now-playing list misses a title.
	KobisNowPlaying bool
	OTTOnly         bool
	Rerun           bool
	Now             time.Time
}

// ReleaseStatusKind classifies a title as now-playing, upcoming, rerun, or
// nothing. Set membership wins over the date heuristic; a rerun
// qualification supersedes now-playing; OTT-only suppresses now-playing;
// TV can only ever be upcoming.
func ReleaseStatusKind(in StatusInput) models.ReleaseStatus {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	isTV := in.MediaType == models.MediaTypeTV

	if !isTV && (in.Sets.InNowPlaying(in.ID) || in.KobisNowPlaying) && !in.OTTOnly {
		if in.Rerun {
			return models.ReleaseStatusRerun
		}
		return models.ReleaseStatusNow
	}
	if in.Sets.InUpcoming(in.ID) {
		return models.ReleaseStatusUpcoming
	}

	dateStr := in.ReleaseDate
	if isTV {
		dateStr = in.FirstAirDate
	}
	date, err := time.Parse(isoDateLayout, dateStr)
	if err != nil {
		return models.ReleaseStatusNone
	}

	if date.After(in.Now) {
		return models.ReleaseStatusUpcoming
	}
	if isTV {
		// Continuous series have no meaningful "now showing" state.
		return models.ReleaseStatusNone
	}
	if in.Now.Sub(date) <= nowPlayingWindowDays*24*time.Hour && !in.OTTOnly {
		if in.Rerun {
			return models.ReleaseStatusRerun
		}
		return models.ReleaseStatusNow
	}
	return models.ReleaseStatusNone
}
