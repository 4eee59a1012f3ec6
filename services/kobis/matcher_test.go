package kobis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"Spider-Man: No Way Home",
		"기생충",
		"Léon: The Professional",
		"  What's Up,  Doc? ",
	}
	for _, in := range inputs {
		once := NormalizeTitle(in)
		twice := NormalizeTitle(once)
		if once != twice {
			t.Fatalf("NormalizeTitle not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeTitleDiscardsPunctuation(t *testing.T) {
	if got, want := NormalizeTitle("Spider-Man: No Way Home"), NormalizeTitle("spidermannowayhome"); got != want {
		t.Fatalf("NormalizeTitle = %q, want %q", got, want)
	}
	if got := NormalizeTitle("!!! ???"); got != "" {
		t.Fatalf("expected empty string for punctuation-only input, got %q", got)
	}
}

func TestScoreCandidateExactBeatsSubstring(t *testing.T) {
	normQuery := NormalizeTitle("Dune")

	// Substring match with perfect year proximity and a parsed date.
	substring := Movie{Title: "Dune: Part Two", OpenDate: "20240228"}
	// Exact match with the worst counted year distance and no date bonus.
	exact := Movie{Title: "Dune", ProductionYear: "2022"}

	subScore := scoreCandidate(substring, normQuery, 2024)
	exactScore := scoreCandidate(exact, normQuery, 2024)
	if exactScore <= subScore {
		t.Fatalf("exact match (%d) must beat substring match (%d)", exactScore, subScore)
	}
}

func TestScoreCandidateYearDistance(t *testing.T) {
	cases := []struct {
		year string
		want int
	}{
		{"2019", scoreYearExact},
		{"2018", scoreYearAdjacent},
		{"2020", scoreYearAdjacent},
		{"2021", scoreYearNear},
		{"2025", 0},
	}
	for _, tc := range cases {
		cand := Movie{Title: "unrelated", ProductionYear: tc.year}
		if got := scoreCandidate(cand, NormalizeTitle("something else"), 2019); got != tc.want {
			t.Fatalf("year %s: score = %d, want %d", tc.year, got, tc.want)
		}
	}
}

func TestShortestNonEmpty(t *testing.T) {
	if got := shortestNonEmpty("The Longest Possible Title", "기생충", "Parasite"); got != "기생충" {
		t.Fatalf("shortestNonEmpty = %q, want %q", got, "기생충")
	}
	if got := shortestNonEmpty("", "  ", ""); got != "" {
		t.Fatalf("expected empty result, got %q", got)
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client, err := NewClient("test-key", srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.baseURL = srv.URL
	return client, srv.Close
}

func TestFindOpenDateEndToEnd(t *testing.T) {
	var gotQuery, gotStart, gotEnd string
	client, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("movieNm")
		gotStart = r.URL.Query().Get("openStartDt")
		gotEnd = r.URL.Query().Get("openEndDt")
		json.NewEncoder(w).Encode(map[string]any{
			"movieListResult": map[string]any{
				"totCnt": 2,
				"movieList": []Movie{
					{MovieCode: "20183782", Title: "기생충", TitleEn: "PARASITE", OpenDate: "20190530"},
					{MovieCode: "20990000", Title: "기생충: 비하인드", OpenDate: "20191001"},
				},
			},
		})
	}))
	defer closeFn()

	matcher := NewMatcher(client)
	match, err := matcher.FindOpenDate(context.Background(), TitleDetail{
		Title:         "기생충",
		OriginalTitle: "기생충",
		ReleaseDate:   "2019-05-30",
	})
	if err != nil {
		t.Fatalf("FindOpenDate: %v", err)
	}
	if gotQuery != "기생충" {
		t.Fatalf("search query = %q, want %q", gotQuery, "기생충")
	}
	if gotStart != "20180101" || gotEnd != "20200101" {
		t.Fatalf("year window = %s..%s, want 20180101..20200101", gotStart, gotEnd)
	}
	if match.MovieCode != "20183782" {
		t.Fatalf("movie code = %q, want %q", match.MovieCode, "20183782")
	}
	if match.OpenDate != "2019-05-30" {
		t.Fatalf("open date = %q, want %q", match.OpenDate, "2019-05-30")
	}
}

func TestFindOpenDateFallsBackWithoutYearFilter(t *testing.T) {
	calls := 0
	client, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("openStartDt") != "" {
			// Year-constrained search finds nothing.
			json.NewEncoder(w).Encode(map[string]any{
				"movieListResult": map[string]any{"totCnt": 0, "movieList": []Movie{}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"movieListResult": map[string]any{
				"totCnt":    1,
				"movieList": []Movie{{MovieCode: "19990001", Title: "올드보이", OpenDate: "20031121"}},
			},
		})
	}))
	defer closeFn()

	matcher := NewMatcher(client)
	match, err := matcher.FindOpenDate(context.Background(), TitleDetail{
		Title:       "올드보이",
		ReleaseDate: "2013-01-01", // wrong year, constrained search misses
	})
	if err != nil {
		t.Fatalf("FindOpenDate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected constrained + fallback search, got %d calls", calls)
	}
	if match.MovieCode != "19990001" || match.OpenDate != "2003-11-21" {
		t.Fatalf("unexpected match: %+v", match)
	}
}

func TestFindOpenDateEmptyDetail(t *testing.T) {
	matcher := NewMatcher(nil)
	match, err := matcher.FindOpenDate(context.Background(), TitleDetail{})
	if err != nil {
		t.Fatalf("FindOpenDate: %v", err)
	}
	if match.MovieCode != "" || match.OpenDate != "" {
		t.Fatalf("expected zero match for empty detail, got %+v", match)
	}
}

func TestFindOpenDateTieKeepsFirstSeen(t *testing.T) {
	client, closeFn := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"movieListResult": map[string]any{
				"totCnt": 2,
				"movieList": []Movie{
					{MovieCode: "A", Title: "소풍", OpenDate: "20240207"},
					{MovieCode: "B", Title: "소풍", OpenDate: "20240214"},
				},
			},
		})
	}))
	defer closeFn()

	matcher := NewMatcher(client)
	match, err := matcher.FindOpenDate(context.Background(), TitleDetail{Title: "소풍", ReleaseDate: "2024-02-07"})
	if err != nil {
		t.Fatalf("FindOpenDate: %v", err)
	}
	if match.MovieCode != "A" {
		t.Fatalf("tie must keep first-seen candidate, got %q", match.MovieCode)
	}
}
