package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"reelfeed/models"
	metadatapkg "reelfeed/services/metadata"
)

// TMDBHandler serves the TMDB passthrough proxy and the typed enrichment
// endpoints the frontend detail views use.
type TMDBHandler struct {
	Service metadataService
}

func NewTMDBHandler(s metadataService) *TMDBHandler {
	return &TMDBHandler{Service: s}
}

// RegisterRoutes attaches the /tmdb endpoints to the router.
func (h *TMDBHandler) RegisterRoutes(r *mux.Router) {
	r.PathPrefix("/tmdb/proxy/").HandlerFunc(h.Proxy).Methods(http.MethodGet)
	r.HandleFunc("/tmdb/meta/{type}/{id:[0-9]+}", h.Meta).Methods(http.MethodGet)
	r.HandleFunc("/tmdb/images/{type}/{id:[0-9]+}", h.Images).Methods(http.MethodGet)
	r.HandleFunc("/tmdb/videos/{type}/{id:[0-9]+}", h.Videos).Methods(http.MethodGet)
}

// Proxy forwards whitelisted TMDB GET paths and returns the upstream JSON
// unmodified. The API key never leaves the server.
func (h *TMDBHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	if !h.Service.IsConfigured() {
		writeError(w, http.StatusServiceUnavailable, "metadata service not configured")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/tmdb/proxy/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing proxy path")
		return
	}

	// Client query params pass through, minus any api_key a client tries
	// to smuggle in.
	query := url.Values{}
	for key, values := range r.URL.Query() {
		if key == "api_key" {
			continue
		}
		for _, v := range values {
			query.Add(key, v)
		}
	}

	body, err := h.Service.Proxy(r.Context(), path, query)
	if err != nil {
		if errors.Is(err, metadatapkg.ErrProxyPathNotAllowed) {
			writeError(w, http.StatusForbidden, "path not allowed")
			return
		}
		writeError(w, http.StatusBadGateway, "upstream request failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Meta serves the combined detail bundle for one title.
func (h *TMDBHandler) Meta(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := parseTypeAndID(w, r)
	if !ok {
		return
	}
	meta, err := h.Service.Meta(r.Context(), mediaType, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load title metadata")
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// Images serves the artwork listing for one title.
func (h *TMDBHandler) Images(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := parseTypeAndID(w, r)
	if !ok {
		return
	}
	images, err := h.Service.Images(r.Context(), mediaType, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load images")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Videos serves the trailer/teaser listing for one title.
func (h *TMDBHandler) Videos(w http.ResponseWriter, r *http.Request) {
	mediaType, id, ok := parseTypeAndID(w, r)
	if !ok {
		return
	}
	videos, err := h.Service.Videos(r.Context(), mediaType, id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "failed to load videos")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func parseTypeAndID(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	mediaType := strings.ToLower(mux.Vars(r)["type"])
	if mediaType != models.MediaTypeMovie && mediaType != models.MediaTypeTV {
		writeError(w, http.StatusBadRequest, "invalid media type")
		return "", 0, false
	}
	id, ok := parseTitleID(w, r)
	if !ok {
		return "", 0, false
	}
	return mediaType, id, true
}
