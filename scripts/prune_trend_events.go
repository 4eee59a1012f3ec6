// Command prune_trend_events removes trend events older than the retention
// window from the database. Intended to run from cron; the server itself
// never deletes rows.
package main

import (
	"flag"
	"log"
	"time"

	"reelfeed/internal/database"
)

func main() {
	dbPath := flag.String("db", "./data/reelfeed.db", "path to the sqlite database")
	retentionDays := flag.Int("retention-days", 90, "delete events older than this many days")
	flag.Parse()

	if *retentionDays <= 0 {
		log.Fatal("retention-days must be positive")
	}

	db, err := database.NewDB(database.Config{DatabasePath: *dbPath})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	repo := database.NewTrendRepository(db.Connection())
	cutoff := time.Now().UTC().AddDate(0, 0, -*retentionDays)

	deleted, err := repo.PruneBefore(cutoff)
	if err != nil {
		log.Fatalf("prune trend events: %v", err)
	}
	log.Printf("deleted %d trend events older than %s", deleted, cutoff.Format("2006-01-02"))
}
