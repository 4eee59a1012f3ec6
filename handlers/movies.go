package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"reelfeed/models"
	metadatapkg "reelfeed/services/metadata"
)

type metadataService interface {
	IsConfigured() bool
	MovieList(ctx context.Context, list string, page int) (*metadatapkg.PagedContent, error)
	NowPlaying(ctx context.Context, page int) (*metadatapkg.NowPlayingPage, error)
	Discover(ctx context.Context, q metadatapkg.DiscoverQuery) (*metadatapkg.PagedContent, error)
	PopularTV(ctx context.Context, page int) (*metadatapkg.PagedContent, error)
	MovieDetails(ctx context.Context, id int64) (*metadatapkg.MovieDetails, error)
	TitleStatus(ctx context.Context, mediaType string, id int64) (*models.TitleStatus, error)
	Meta(ctx context.Context, mediaType string, id int64) (*metadatapkg.TitleMeta, error)
	Person(ctx context.Context, id int64) (*metadatapkg.PersonBundle, error)
	Images(ctx context.Context, mediaType string, id int64) (*metadatapkg.ImagesResponse, error)
	Videos(ctx context.Context, mediaType string, id int64) (*metadatapkg.VideosResponse, error)
	Proxy(ctx context.Context, path string, query url.Values) ([]byte, error)
}

var _ metadataService = (*metadatapkg.Service)(nil)

// MoviesHandler serves the catalog listing and detail endpoints.
type MoviesHandler struct {
	Service metadataService
}

func NewMoviesHandler(s metadataService) *MoviesHandler {
	return &MoviesHandler{Service: s}
}

// RegisterRoutes attaches the /movies endpoints to the router.
func (h *MoviesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/movies/popular", h.List("popular")).Methods(http.MethodGet)
	r.HandleFunc("/movies/top_rated", h.List("top_rated")).Methods(http.MethodGet)
	r.HandleFunc("/movies/now_playing", h.NowPlaying).Methods(http.MethodGet)
	r.HandleFunc("/movies/discover", h.Discover).Methods(http.MethodGet)
	r.HandleFunc("/movies/tv/popular", h.PopularTV).Methods(http.MethodGet)
	r.HandleFunc("/movies/{id:[0-9]+}", h.Details).Methods(http.MethodGet)
	r.HandleFunc("/movies/{id:[0-9]+}/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/person/{id:[0-9]+}", h.Person).Methods(http.MethodGet)
}

// List serves a named TMDB movie list.
func (h *MoviesHandler) List(list string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.Service.IsConfigured() {
			writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
			return
		}
		page := parsePage(r)
		resp, err := h.Service.MovieList(r.Context(), list, page)
		if err != nil {
			writeError(w, http.StatusBadGateway, "failed to load movie list")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// NowPlaying serves the now-playing list with OTT-only annotations.
func (h *MoviesHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	if !h.Service.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}
	resp, err := h.Service.NowPlaying(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load now-playing list")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Discover serves filtered movie discovery. Genres come as a comma-separated
// id list, matching TMDB's own with_genres format.
func (h *MoviesHandler) Discover(w http.ResponseWriter, r *http.Request) {
	if !h.Service.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}

	q := metadatapkg.DiscoverQuery{
		Page:   parsePage(r),
		SortBy: strings.TrimSpace(r.URL.Query().Get("sort_by")),
	}
	if raw := r.URL.Query().Get("genres"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid genre id")
				return
			}
			q.Genres = append(q.Genres, id)
		}
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1800 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		q.ReleaseYear = year
	}

	resp, err := h.Service.Discover(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to discover movies")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// PopularTV serves the TV popularity list.
func (h *MoviesHandler) PopularTV(w http.ResponseWriter, r *http.Request) {
	if !h.Service.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}
	resp, err := h.Service.PopularTV(r.Context(), parsePage(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load tv list")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Details serves the typed movie detail.
func (h *MoviesHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTitleID(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.MovieDetails(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load movie details")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Status serves the release-status bundle for a title. Media type defaults
// to movie; pass ?type=tv for series.
func (h *MoviesHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTitleID(w, r)
	if !ok {
		return
	}
	mediaType := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type")))
	if mediaType == "" {
		mediaType = models.MediaTypeMovie
	}
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		writeError(w, http.StatusBadRequest, "invalid media type")
		return
	}

	status, err := h.Service.TitleStatus(r.Context(), mediaType, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to resolve title status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Person serves the person detail bundle with combined credits.
func (h *MoviesHandler) Person(w http.ResponseWriter, r *http.Request) {
	id, ok := parseTitleID(w, r)
	if !ok {
		return
	}
	bundle, err := h.Service.Person(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load person")
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseTitleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid title id")
		return 0, false
	}
	return id, true
}
