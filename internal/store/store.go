// Package store is the persistence collaborator: a single last-known
// snapshot of the normalized application batch plus an append-only ingest
// history, both in the workspace SQLite database. The core never touches
// this package; the composition root injects it where needed.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"statusdeck/internal/domain"
)

// Store is the narrow persistence contract the viewer relies on: Load after
// Save (with no intervening Clear) returns the saved batch.
type Store interface {
	Load(ctx context.Context) ([]domain.Application, bool, error)
	Save(ctx context.Context, apps []domain.Application) error
	Clear(ctx context.Context) error
}

// SQLite persists the snapshot and ingest history in the workspace database.
type SQLite struct {
	DB  *sql.DB
	Now func() time.Time
}

func New(db *sql.DB) *SQLite {
	return &SQLite{DB: db, Now: time.Now}
}

func (s *SQLite) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Save replaces the snapshot with the given batch. The batch is stored as
// JSON, raw upstream subtrees included, so the inspector survives a reload.
func (s *SQLite) Save(ctx context.Context, apps []domain.Application) error {
	payload, err := json.Marshal(apps)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	savedAt := s.now().UTC().Format(time.RFC3339)
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO snapshot(id, payload_json, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET payload_json=excluded.payload_json, saved_at=excluded.saved_at`,
		string(payload), savedAt)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored batch, or ok=false when no snapshot exists.
func (s *SQLite) Load(ctx context.Context) ([]domain.Application, bool, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT payload_json FROM snapshot WHERE id=1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	var apps []domain.Application
	if err := json.Unmarshal([]byte(payload), &apps); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return apps, true, nil
}

// Clear drops the snapshot. Clearing an empty store is not an error.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM snapshot WHERE id=1`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// SavedAt returns the snapshot timestamp, or ok=false when empty.
func (s *SQLite) SavedAt(ctx context.Context) (string, bool, error) {
	var savedAt string
	err := s.DB.QueryRowContext(ctx, `SELECT saved_at FROM snapshot WHERE id=1`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return savedAt, true, nil
}

// AppendIngest records one successful ingest in the history log.
func (s *SQLite) AppendIngest(ctx context.Context, source string, applications int, statusCode string) error {
	id := uuid.New().String()
	ts := s.now().UTC().Format(time.RFC3339)
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO ingest_events(id, ts, source, application_count, status_code) VALUES (?,?,?,?,?)`,
		id, ts, source, applications, nullable(statusCode))
	if err != nil {
		return fmt.Errorf("append ingest event: %w", err)
	}
	return nil
}

// RecentIngests returns up to n history rows, newest first.
func (s *SQLite) RecentIngests(ctx context.Context, n int) ([]domain.IngestEvent, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, ts, source, application_count, COALESCE(status_code, '') FROM ingest_events ORDER BY ts DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("list ingest events: %w", err)
	}
	defer rows.Close()
	var events []domain.IngestEvent
	for rows.Next() {
		var ev domain.IngestEvent
		if err := rows.Scan(&ev.ID, &ev.TS, &ev.Source, &ev.Applications, &ev.StatusCode); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
