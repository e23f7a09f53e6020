// Package analytics persists ingested analytics events to SQLite. Ingestion
// is public (it bypasses the gate) so the store records the user ID only
// when the client happened to send an authenticated request.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Event is one ingested analytics event.
type Event struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Path      string    `db:"path" json:"path,omitempty"`
	Meta      string    `db:"meta" json:"meta,omitempty"`
	UserID    string    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"ts"`
}

// SetMeta serializes meta into the event. A nil map stores "{}".
func (e *Event) SetMeta(meta map[string]any) error {
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal event meta: %w", err)
	}
	e.Meta = string(raw)
	return nil
}

// Store is a SQLite-backed event log.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '',
		meta TEXT NOT NULL DEFAULT '{}',
		user_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_events_created_at
		ON events (created_at DESC)`)
	return err
}

// Insert stores one event, assigning an ID and timestamp when absent.
func (s *Store) Insert(ctx context.Context, event Event) (Event, error) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Meta == "" {
		event.Meta = "{}"
	}

	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO events (id, name, path, meta, user_id, created_at)
		 VALUES (:id, :name, :path, :meta, :user_id, :created_at)`, event)
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	err := s.db.SelectContext(ctx, &events,
		`SELECT id, name, path, meta, user_id, created_at
		 FROM events ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	return events, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
