package kobis

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"reelfeed/models"
)

// Candidate scoring weights. Exact title identity must dominate any
// combination of the weaker signals: 1000 > 350 + 120 + 10.
const (
	scoreExactTitle     = 1000
	scoreSubstringTitle = 350
	scoreYearExact      = 120
	scoreYearAdjacent   = 60
	scoreYearNear       = 20
	scoreHasOpenDate    = 10
)

// NormalizeTitle lowercases, NFKD-decomposes, and drops every rune that is
// not a letter or digit. Spacing, punctuation, and combining marks all
// disappear, which neutralizes the usual TMDB/KOBIS title discrepancies.
// The function is idempotent.
func NormalizeTitle(s string) string {
	decomposed := norm.NFKD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleDetail carries the TMDB fields the matcher works from. Movie details
// populate Title/OriginalTitle, TV details populate Name/OriginalName; the
// matcher accepts either.
type TitleDetail struct {
	Title         string
	OriginalTitle string
	Name          string
	OriginalName  string
	ReleaseDate   string // ISO YYYY-MM-DD
}

// Matcher finds the KOBIS record that most plausibly corresponds to a TMDB
// title. Matches are best-guess heuristics, never authoritative.
type Matcher struct {
	client *Client
}

func NewMatcher(client *Client) *Matcher {
	return &Matcher{client: client}
}

// FindOpenDate searches KOBIS for the given TMDB detail and returns the
// best-scoring candidate's movie code and Korean theatrical open date.
// A zero KobisMatch with nil error means no candidate was found at all.
func (m *Matcher) FindOpenDate(ctx context.Context, detail TitleDetail) (models.KobisMatch, error) {
	query := shortestNonEmpty(detail.Title, detail.OriginalTitle, detail.Name, detail.OriginalName)
	if query == "" {
		return models.KobisMatch{}, nil
	}

	year := yearOfISODate(detail.ReleaseDate)

	var candidates []Movie
	var err error
	if year > 0 {
		start := time.Date(year-1, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		candidates, err = m.client.SearchMovies(ctx, query, start, end)
		if err != nil {
			return models.KobisMatch{}, err
		}
	}
	if len(candidates) == 0 {
		// Year window missed (retitled re-releases, delayed openings) or no
		// usable release date: retry unconstrained.
		candidates, err = m.client.SearchMovies(ctx, query, time.Time{}, time.Time{})
		if err != nil {
			return models.KobisMatch{}, err
		}
	}
	if len(candidates) == 0 {
		return models.KobisMatch{}, nil
	}

	normQuery := NormalizeTitle(query)
	best := candidates[0]
	bestScore := scoreCandidate(candidates[0], normQuery, year)
	for _, cand := range candidates[1:] {
		// Strict > keeps the first-seen candidate on ties, matching KOBIS
		// result order which lists closer matches first.
		if score := scoreCandidate(cand, normQuery, year); score > bestScore {
			best = cand
			bestScore = score
		}
	}

	return models.KobisMatch{
		MovieCode: best.MovieCode,
		OpenDate:  ToISODate(best.OpenDate),
	}, nil
}

func scoreCandidate(cand Movie, normQuery string, wantYear int) int {
	score := 0

	nameKo := NormalizeTitle(cand.Title)
	nameEn := NormalizeTitle(cand.TitleEn)
	switch {
	case normQuery != "" && (nameKo == normQuery || nameEn == normQuery):
		score += scoreExactTitle
	case normQuery != "" && (containsEither(nameKo, normQuery) || containsEither(nameEn, normQuery)):
		score += scoreSubstringTitle
	}

	if wantYear > 0 {
		if candYear := candidateYear(cand); candYear > 0 {
			switch distance := abs(candYear - wantYear); distance {
			case 0:
				score += scoreYearExact
			case 1:
				score += scoreYearAdjacent
			case 2:
				score += scoreYearNear
			}
		}
	}

	if _, ok := ParseDate(cand.OpenDate); ok {
		score += scoreHasOpenDate
	}
	return score
}

// candidateYear prefers the theatrical open year and falls back to the
// production year, which KOBIS fills in even for unreleased records.
func candidateYear(cand Movie) int {
	if t, ok := ParseDate(cand.OpenDate); ok {
		return t.Year()
	}
	if y, err := strconv.Atoi(strings.TrimSpace(cand.ProductionYear)); err == nil && y > 0 {
		return y
	}
	return 0
}

// shortestNonEmpty picks the shortest non-blank candidate. Shorter titles
// carry less subtitle/punctuation noise and search better against KOBIS.
func shortestNonEmpty(candidates ...string) string {
	best := ""
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if best == "" || len([]rune(c)) < len([]rune(best)) {
			best = c
		}
	}
	return best
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func yearOfISODate(s string) int {
	t, err := time.Parse(isoDateLayout, strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return t.Year()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
