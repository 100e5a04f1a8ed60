// Package storage persists the transit network in PostgreSQL so the API
// server can reload it without the original dataset file.
package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/transitgo/transit_core/internal/dataset"
)

const batchSize = 1000 // batch insert size

// Store reads and writes the network tables
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a store over a connection pool
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the network tables if they do not exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS routing_settings (
			id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
			bus_wait_time INT NOT NULL,
			bus_velocity DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stop (
			name TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stop_distance (
			from_stop TEXT NOT NULL REFERENCES stop(name),
			to_stop TEXT NOT NULL REFERENCES stop(name),
			meters INT NOT NULL,
			PRIMARY KEY (from_stop, to_stop)
		)`,
		`CREATE TABLE IF NOT EXISTS bus (
			name TEXT PRIMARY KEY,
			is_roundtrip BOOLEAN NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bus_stop (
			bus_name TEXT NOT NULL REFERENCES bus(name),
			seq INT NOT NULL,
			stop_name TEXT NOT NULL REFERENCES stop(name),
			PRIMARY KEY (bus_name, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveDocument replaces the stored network with the document's settings
// and base requests
func (s *Store) SaveDocument(ctx context.Context, doc *dataset.Document) error {
	if _, err := s.db.Exec(ctx, "TRUNCATE TABLE bus_stop, bus, stop_distance, stop, routing_settings"); err != nil {
		return fmt.Errorf("failed to clear network tables: %w", err)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO routing_settings (bus_wait_time, bus_velocity)
		VALUES ($1, $2)
	`, doc.RoutingSettings.BusWaitTime, doc.RoutingSettings.BusVelocity)
	if err != nil {
		return fmt.Errorf("failed to save routing settings: %w", err)
	}

	// Stops first so distance and route rows can reference them
	batch := &pgx.Batch{}
	stopCount := 0
	for _, request := range doc.BaseRequests {
		if request.Type != dataset.TypeStop {
			continue
		}
		batch.Queue(`
			INSERT INTO stop (name, lat, lon)
			VALUES ($1, $2, $3)
		`, request.Name, request.Latitude, request.Longitude)
		stopCount++

		if batch.Len() >= batchSize {
			if err := s.executeBatch(ctx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if err := s.executeBatch(ctx, batch); err != nil {
		return err
	}
	log.Printf("Saved %d stops", stopCount)

	batch = &pgx.Batch{}
	distanceCount := 0
	for _, request := range doc.BaseRequests {
		if request.Type != dataset.TypeStop {
			continue
		}
		for neighbor, meters := range request.RoadDistances {
			batch.Queue(`
				INSERT INTO stop_distance (from_stop, to_stop, meters)
				VALUES ($1, $2, $3)
			`, request.Name, neighbor, meters)
			distanceCount++

			if batch.Len() >= batchSize {
				if err := s.executeBatch(ctx, batch); err != nil {
					return err
				}
				batch = &pgx.Batch{}
			}
		}
	}
	if err := s.executeBatch(ctx, batch); err != nil {
		return err
	}
	log.Printf("Saved %d road distances", distanceCount)

	batch = &pgx.Batch{}
	busCount := 0
	for _, request := range doc.BaseRequests {
		if request.Type != dataset.TypeBus {
			continue
		}
		batch.Queue(`
			INSERT INTO bus (name, is_roundtrip)
			VALUES ($1, $2)
		`, request.Name, request.IsRoundtrip)
		for seq, stopName := range request.Stops {
			batch.Queue(`
				INSERT INTO bus_stop (bus_name, seq, stop_name)
				VALUES ($1, $2, $3)
			`, request.Name, seq, stopName)
		}
		busCount++

		if batch.Len() >= batchSize {
			if err := s.executeBatch(ctx, batch); err != nil {
				return err
			}
			batch = &pgx.Batch{}
		}
	}
	if err := s.executeBatch(ctx, batch); err != nil {
		return err
	}
	log.Printf("Saved %d buses", busCount)

	return nil
}

// LoadDocument reconstructs a dataset document from the stored network
func (s *Store) LoadDocument(ctx context.Context) (*dataset.Document, error) {
	doc := &dataset.Document{}

	err := s.db.QueryRow(ctx, `
		SELECT bus_wait_time, bus_velocity FROM routing_settings
	`).Scan(&doc.RoutingSettings.BusWaitTime, &doc.RoutingSettings.BusVelocity)
	if err != nil {
		return nil, fmt.Errorf("failed to load routing settings: %w", err)
	}

	stopRows, err := s.db.Query(ctx, `SELECT name, lat, lon FROM stop ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load stops: %w", err)
	}
	defer stopRows.Close()

	stopIndex := make(map[string]int)
	for stopRows.Next() {
		request := dataset.BaseRequest{Type: dataset.TypeStop, RoadDistances: map[string]int{}}
		if err := stopRows.Scan(&request.Name, &request.Latitude, &request.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan stop: %w", err)
		}
		stopIndex[request.Name] = len(doc.BaseRequests)
		doc.BaseRequests = append(doc.BaseRequests, request)
	}
	if err := stopRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stops: %w", err)
	}

	distRows, err := s.db.Query(ctx, `SELECT from_stop, to_stop, meters FROM stop_distance`)
	if err != nil {
		return nil, fmt.Errorf("failed to load distances: %w", err)
	}
	defer distRows.Close()

	for distRows.Next() {
		var from, to string
		var meters int
		if err := distRows.Scan(&from, &to, &meters); err != nil {
			return nil, fmt.Errorf("failed to scan distance: %w", err)
		}
		i, ok := stopIndex[from]
		if !ok {
			return nil, fmt.Errorf("distance references unknown stop %q", from)
		}
		doc.BaseRequests[i].RoadDistances[to] = meters
	}
	if err := distRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read distances: %w", err)
	}

	busRows, err := s.db.Query(ctx, `
		SELECT b.name, b.is_roundtrip, bs.stop_name
		FROM bus b
		JOIN bus_stop bs ON bs.bus_name = b.name
		ORDER BY b.name, bs.seq
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load buses: %w", err)
	}
	defer busRows.Close()

	busIndex := make(map[string]int)
	for busRows.Next() {
		var name, stopName string
		var isRoundtrip bool
		if err := busRows.Scan(&name, &isRoundtrip, &stopName); err != nil {
			return nil, fmt.Errorf("failed to scan bus stop: %w", err)
		}
		i, ok := busIndex[name]
		if !ok {
			i = len(doc.BaseRequests)
			busIndex[name] = i
			doc.BaseRequests = append(doc.BaseRequests, dataset.BaseRequest{
				Type:        dataset.TypeBus,
				Name:        name,
				IsRoundtrip: isRoundtrip,
			})
		}
		doc.BaseRequests[i].Stops = append(doc.BaseRequests[i].Stops, stopName)
	}
	if err := busRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read buses: %w", err)
	}

	log.Printf("Loaded network from database: %d base requests", len(doc.BaseRequests))
	return doc, nil
}

// executeBatch executes a batch of queries
func (s *Store) executeBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch execution failed at query %d: %w", i, err)
		}
	}

	return nil
}
