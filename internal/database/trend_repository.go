package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reelfeed/models"
)

// TrendRepository records client interaction events and aggregates them into
// per-title trend listings.
type TrendRepository struct {
	db *sql.DB
}

// NewTrendRepository creates a trend repository on the given connection.
func NewTrendRepository(db *sql.DB) *TrendRepository {
	return &TrendRepository{db: db}
}

var validTrendActions = map[string]bool{
	models.TrendActionView:     true,
	models.TrendActionSearch:   true,
	models.TrendActionFavorite: true,
}

// RecordEvent inserts one interaction event, assigning an id and timestamp
// when the caller left them empty. The stored event is returned.
func (r *TrendRepository) RecordEvent(event models.TrendEvent) (models.TrendEvent, error) {
	if event.TitleID <= 0 {
		return models.TrendEvent{}, fmt.Errorf("invalid title id %d", event.TitleID)
	}
	if event.MediaType != models.MediaTypeMovie && event.MediaType != models.MediaTypeTV {
		return models.TrendEvent{}, fmt.Errorf("invalid media type %q", event.MediaType)
	}
	if !validTrendActions[event.Action] {
		return models.TrendEvent{}, fmt.Errorf("invalid action %q", event.Action)
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(
		`INSERT INTO trend_events (id, title_id, media_type, action, region, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.TitleID, event.MediaType, event.Action, event.Region, event.CreatedAt,
	)
	if err != nil {
		return models.TrendEvent{}, fmt.Errorf("insert trend event: %w", err)
	}
	return event, nil
}

// TopTitles aggregates events per title since the cutoff, most-interacted
// first. Region narrows the aggregation when non-empty.
func (r *TrendRepository) TopTitles(region string, since time.Time, limit int) ([]models.TrendSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT title_id, media_type, COUNT(*) AS cnt
		 FROM trend_events
		 WHERE created_at >= ?`
	args := []any{since}
	if region != "" {
		query += ` AND region = ?`
		args = append(args, region)
	}
	query += ` GROUP BY title_id, media_type ORDER BY cnt DESC, title_id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query top titles: %w", err)
	}
	defer rows.Close()

	var out []models.TrendSummary
	for rows.Next() {
		var s models.TrendSummary
		if err := rows.Scan(&s.TitleID, &s.MediaType, &s.Count); err != nil {
			return nil, fmt.Errorf("scan trend summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PruneBefore deletes events older than the cutoff, returning how many were
// removed.
func (r *TrendRepository) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM trend_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune trend events: %w", err)
	}
	return res.RowsAffected()
}
