package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"reelfeed/models"
	"reelfeed/services/recommend"
)

// RecommendHandler scores titles against onboarding preferences.
type RecommendHandler struct{}

func NewRecommendHandler() *RecommendHandler {
	return &RecommendHandler{}
}

// RegisterRoutes attaches the /recommend endpoints to the router.
func (h *RecommendHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/recommend/score", h.Score).Methods(http.MethodPost)
}

// ScoreRequest is the POST /recommend/score body.
type ScoreRequest struct {
	Items       []models.ContentItem `json:"items"`
	Preferences models.Preferences   `json:"preferences"`
}

// ScoredItem pairs one input item with its match percentage.
type ScoredItem struct {
	models.ContentItem
	MatchScore int `json:"matchScore"`
}

// ScoreResponse is the POST /recommend/score response.
type ScoreResponse struct {
	Items []ScoredItem `json:"items"`
}

// Score computes match percentages for a batch of titles.
func (h *RecommendHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	excluded := make(map[int64]struct{}, len(req.Preferences.Excludes))
	for _, id := range req.Preferences.Excludes {
		excluded[id] = struct{}{}
	}

	scored := make([]ScoredItem, 0, len(req.Items))
	for _, item := range req.Items {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		scored = append(scored, ScoredItem{
			ContentItem: item,
			MatchScore:  recommend.MatchScore(item, req.Preferences),
		})
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Items: scored})
}
