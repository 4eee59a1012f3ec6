package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"reelfeed/api"
	"reelfeed/models"
)

// trendStore records interaction events and aggregates stored trends.
type trendStore interface {
	RecordEvent(event models.TrendEvent) (models.TrendEvent, error)
	TopTitles(region string, since time.Time, limit int) ([]models.TrendSummary, error)
}

// boxOfficeSource serves the latest KR daily box-office listing.
type boxOfficeSource interface {
	Latest(ctx context.Context) ([]models.BoxOfficeTrend, error)
}

// trendWindow is how far back stored events count toward trend listings.
const trendWindow = 7 * 24 * time.Hour

// TrendsHandler serves KR box-office trends and records client interactions.
type TrendsHandler struct {
	Store     trendStore
	BoxOffice boxOfficeSource
	// Limiter, when set, rate limits event submissions per IP.
	Limiter *api.IPRateLimiter
}

func NewTrendsHandler(store trendStore, boxOffice boxOfficeSource) *TrendsHandler {
	return &TrendsHandler{Store: store, BoxOffice: boxOffice}
}

// RegisterRoutes attaches the /trends endpoints to the router.
func (h *TrendsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/trends/kr", h.KoreaTrends).Methods(http.MethodGet)
	record := http.HandlerFunc(h.Record)
	if h.Limiter != nil {
		record = api.RateLimitHandlerFunc(h.Limiter, record)
	}
	r.HandleFunc("/trends", record).Methods(http.MethodPost)
}

// KoreaTrendsResponse carries the KR box-office list with a stored-trends
// fallback when the box office is unavailable.
type KoreaTrendsResponse struct {
	BoxOffice []models.BoxOfficeTrend `json:"boxOffice,omitempty"`
	Stored    []models.TrendSummary   `json:"stored,omitempty"`
}

// KoreaTrends serves yesterday's KR daily box office. When the KOBIS side is
// unavailable the response degrades to locally stored interaction trends.
func (h *TrendsHandler) KoreaTrends(w http.ResponseWriter, r *http.Request) {
	resp := KoreaTrendsResponse{}

	if h.BoxOffice != nil {
		entries, err := h.BoxOffice.Latest(r.Context())
		if err == nil && len(entries) > 0 {
			resp.BoxOffice = entries
			writeJSON(w, http.StatusOK, resp)
			return
		}
		if err != nil {
			log.Printf("[trends] box office fetch failed: %v; falling back to stored trends", err)
		}
	}

	if h.Store != nil {
		stored, err := h.Store.TopTitles("KR", time.Now().Add(-trendWindow), 20)
		if err != nil {
			log.Printf("[trends] stored trends query failed: %v", err)
		} else {
			resp.Stored = stored
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordTrendRequest is the POST /trends body.
type RecordTrendRequest struct {
	TitleID   int64  `json:"titleId"`
	MediaType string `json:"mediaType"`
	Action    string `json:"action"`
	Region    string `json:"region"`
}

// Record stores one client interaction event.
func (h *TrendsHandler) Record(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "trend storage unavailable")
		return
	}

	var req RecordTrendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	event, err := h.Store.RecordEvent(models.TrendEvent{
		TitleID:   req.TitleID,
		MediaType: req.MediaType,
		Action:    req.Action,
		Region:    req.Region,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
