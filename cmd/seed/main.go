// Command seed loads sample Richmond businesses into the database.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed [csv-file]
//
// The CSV defaults to seed/richmond_sample.csv and must carry a header
// row with at least name, category, neighborhood, and address columns.
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/rvahub/localspot/internal/directory"
)

const defaultCSV = "seed/richmond_sample.csv"

func main() {
	path := defaultCSV
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	ctx := context.Background()
	store := directory.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	svc := directory.NewService(store)
	result, err := svc.ImportCSV(ctx, f)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	for _, e := range result.Errors {
		log.Printf("skipped: %s", e)
	}
	log.Printf("Seeded %d businesses (%d skipped) from %s", result.Imported, result.Skipped, path)
}
