package kobis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	apiBaseURL = "http://www.kobis.or.kr/kobisopenapi/webservice/rest"

	compactDateLayout = "20060102"
	isoDateLayout     = "2006-01-02"

	searchItemsPerPage = 50
)

// ErrAPIKeyRequired is returned by NewClient when no key is configured.
// KOBIS rejects unauthenticated requests outright, so this is fatal at
// construction rather than a per-call degradation.
var ErrAPIKeyRequired = errors.New("kobis api key required")

// Client talks to the Korea Box Office Information System REST API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a KOBIS client. The API key is mandatory.
func NewClient(apiKey string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{apiKey: apiKey, httpClient: httpClient, baseURL: apiBaseURL}, nil
}

// Movie is one record from searchMovieList.
type Movie struct {
	MovieCode      string `json:"movieCd"`
	Title          string `json:"movieNm"`
	TitleEn        string `json:"movieNmEn"`
	OpenDate       string `json:"openDt"`   // YYYYMMDD, may be empty
	ProductionYear string `json:"prdtYear"` // YYYY, may be empty
	TypeName       string `json:"typeNm"`
}

// BoxOfficeEntry is one row of searchDailyBoxOfficeList.
type BoxOfficeEntry struct {
	RankOrder     string `json:"rnum"`
	Rank          string `json:"rank"`
	MovieCode     string `json:"movieCd"`
	Title         string `json:"movieNm"`
	OpenDate      string `json:"openDt"`  // YYYY-MM-DD on this endpoint
	AudienceAccum string `json:"audiAcc"` // accumulated admissions, numeric string
}

// SearchMovies queries searchMovieList by title. A non-zero openStart/openEnd
// constrains the theatrical open date window; zero values omit the filter.
func (c *Client) SearchMovies(ctx context.Context, title string, openStart, openEnd time.Time) ([]Movie, error) {
	params := url.Values{}
	params.Set("movieNm", title)
	params.Set("itemPerPage", strconv.Itoa(searchItemsPerPage))
	if !openStart.IsZero() {
		params.Set("openStartDt", openStart.Format(compactDateLayout))
	}
	if !openEnd.IsZero() {
		params.Set("openEndDt", openEnd.Format(compactDateLayout))
	}

	var resp struct {
		MovieListResult struct {
			TotalCount int     `json:"totCnt"`
			MovieList  []Movie `json:"movieList"`
		} `json:"movieListResult"`
	}
	if err := c.get(ctx, "/movie/searchMovieList.json", params, &resp); err != nil {
		return nil, err
	}
	return resp.MovieListResult.MovieList, nil
}

// DailyBoxOffice returns the daily box-office list for the given date.
func (c *Client) DailyBoxOffice(ctx context.Context, target time.Time) ([]BoxOfficeEntry, error) {
	params := url.Values{}
	params.Set("targetDt", target.Format(compactDateLayout))

	var resp struct {
		BoxOfficeResult struct {
			Type     string           `json:"boxofficeType"`
			Range    string           `json:"showRange"`
			DailyBox []BoxOfficeEntry `json:"dailyBoxOfficeList"`
		} `json:"boxOfficeResult"`
	}
	if err := c.get(ctx, "/boxoffice/searchDailyBoxOfficeList.json", params, &resp); err != nil {
		return nil, err
	}
	return resp.BoxOfficeResult.DailyBox, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	params.Set("key", c.apiKey)
	endpoint := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kobis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kobis: unexpected status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("kobis: decode %s: %w", path, err)
	}
	return nil
}

// ParseDate parses a KOBIS date in either YYYYMMDD or YYYY-MM-DD form.
// The two endpoints disagree on the format.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{compactDateLayout, isoDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ToISODate converts a KOBIS date string to ISO YYYY-MM-DD, or "" when the
// input does not parse.
func ToISODate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return ""
	}
	return t.Format(isoDateLayout)
}
