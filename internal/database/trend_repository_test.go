package database

import (
	"path/filepath"
	"testing"
	"time"

	"reelfeed/models"
)

// setupTestTrendRepo creates a test database and trend repository.
func setupTestTrendRepo(t *testing.T) *TrendRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(Config{DatabasePath: dbPath})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTrendRepository(db.Connection())
}

func TestRecordEvent_AssignsIDAndTimestamp(t *testing.T) {
	repo := setupTestTrendRepo(t)

	stored, err := repo.RecordEvent(models.TrendEvent{
		TitleID:   603,
		MediaType: models.MediaTypeMovie,
		Action:    models.TrendActionView,
		Region:    "KR",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected an assigned id")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected an assigned timestamp")
	}
}

func TestRecordEvent_RejectsInvalid(t *testing.T) {
	repo := setupTestTrendRepo(t)

	cases := []models.TrendEvent{
		{TitleID: 0, MediaType: models.MediaTypeMovie, Action: models.TrendActionView},
		{TitleID: 1, MediaType: "book", Action: models.TrendActionView},
		{TitleID: 1, MediaType: models.MediaTypeMovie, Action: "hover"},
	}
	for i, event := range cases {
		if _, err := repo.RecordEvent(event); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestTopTitles_OrdersByCount(t *testing.T) {
	repo := setupTestTrendRepo(t)

	record := func(titleID int64, action string) {
		t.Helper()
		_, err := repo.RecordEvent(models.TrendEvent{
			TitleID:   titleID,
			MediaType: models.MediaTypeMovie,
			Action:    action,
			Region:    "KR",
		})
		if err != nil {
			t.Fatalf("RecordEvent failed: %v", err)
		}
	}
	record(100, models.TrendActionView)
	record(100, models.TrendActionFavorite)
	record(100, models.TrendActionSearch)
	record(200, models.TrendActionView)
	record(200, models.TrendActionView)
	record(300, models.TrendActionView)

	top, err := repo.TopTitles("KR", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("TopTitles failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(top))
	}
	if top[0].TitleID != 100 || top[0].Count != 3 {
		t.Errorf("top entry = %+v", top[0])
	}
	if top[1].TitleID != 200 || top[2].TitleID != 300 {
		t.Errorf("order = %d, %d", top[1].TitleID, top[2].TitleID)
	}
}

func TestTopTitles_RegionFilter(t *testing.T) {
	repo := setupTestTrendRepo(t)

	for _, region := range []string{"KR", "KR", "US"} {
		_, err := repo.RecordEvent(models.TrendEvent{
			TitleID:   1,
			MediaType: models.MediaTypeMovie,
			Action:    models.TrendActionView,
			Region:    region,
		})
		if err != nil {
			t.Fatalf("RecordEvent failed: %v", err)
		}
	}

	kr, err := repo.TopTitles("KR", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("TopTitles failed: %v", err)
	}
	if len(kr) != 1 || kr[0].Count != 2 {
		t.Errorf("KR summaries = %+v", kr)
	}

	all, err := repo.TopTitles("", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("TopTitles failed: %v", err)
	}
	if len(all) != 1 || all[0].Count != 3 {
		t.Errorf("unfiltered summaries = %+v", all)
	}
}

func TestTopTitles_CutoffExcludesOld(t *testing.T) {
	repo := setupTestTrendRepo(t)

	_, err := repo.RecordEvent(models.TrendEvent{
		TitleID:   1,
		MediaType: models.MediaTypeMovie,
		Action:    models.TrendActionView,
		CreatedAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	top, err := repo.TopTitles("", time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("TopTitles failed: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("expected old events excluded, got %+v", top)
	}
}

func TestPruneBefore(t *testing.T) {
	repo := setupTestTrendRepo(t)

	_, err := repo.RecordEvent(models.TrendEvent{
		TitleID:   1,
		MediaType: models.MediaTypeMovie,
		Action:    models.TrendActionView,
		CreatedAt: time.Now().UTC().Add(-72 * time.Hour),
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	_, err = repo.RecordEvent(models.TrendEvent{
		TitleID:   2,
		MediaType: models.MediaTypeMovie,
		Action:    models.TrendActionView,
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	pruned, err := repo.PruneBefore(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned event, got %d", pruned)
	}

	top, err := repo.TopTitles("", time.Now().Add(-96*time.Hour), 10)
	if err != nil {
		t.Fatalf("TopTitles failed: %v", err)
	}
	if len(top) != 1 || top[0].TitleID != 2 {
		t.Errorf("surviving events = %+v", top)
	}
}
