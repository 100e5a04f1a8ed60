package main

import (
	"context"
	"log"
	"os"

	"github.com/transitgo/transit_core/internal/dataset"
	"github.com/transitgo/transit_core/internal/db"
	"github.com/transitgo/transit_core/internal/guide"
	"github.com/transitgo/transit_core/internal/storage"
)

// Imports a dataset file into PostgreSQL so the API server can load the
// network with LOAD_FROM=db.
//
// Usage: importer <dataset.json>
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("Usage: %s <dataset.json>", os.Args[0])
	}
	path := os.Args[1]

	doc, err := dataset.DecodeFile(path)
	if err != nil {
		log.Fatalf("Failed to read dataset: %v", err)
	}
	log.Printf("Parsed %d base requests", len(doc.BaseRequests))

	// Validate before touching the database: a malformed dataset fails
	// the whole import
	if _, err := guide.Load(doc); err != nil {
		log.Fatalf("Dataset validation failed: %v", err)
	}
	log.Println("✓ Dataset validated")

	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := storage.NewStore(pool)

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	if err := store.SaveDocument(ctx, doc); err != nil {
		log.Fatalf("Failed to save network: %v", err)
	}

	log.Println("✓ Import complete")
}
