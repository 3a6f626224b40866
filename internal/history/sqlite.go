// Copyright 2025 The Mongoward Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder stores lifecycle events in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the event database at path. The special
// value ":memory:" creates an in-memory database.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// WAL mode keeps readers from blocking the recording writer.
	connStr := path
	if path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run history migrations: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS lifecycle_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			attempt_id TEXT NOT NULL,
			event TEXT NOT NULL,
			pid INTEGER NOT NULL DEFAULT 0,
			detail TEXT,
			occurred_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_attempt ON lifecycle_events(attempt_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_time ON lifecycle_events(occurred_at)`,
	}
	for _, m := range migrations {
		if _, err := r.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Record implements Recorder.
func (r *SQLiteRecorder) Record(ctx context.Context, e Event) error {
	occurred := e.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO lifecycle_events (attempt_id, event, pid, detail, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.AttemptID, string(e.Type), e.PID, e.Detail, occurred.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record lifecycle event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRecorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT attempt_id, event, pid, detail, occurred_at
		 FROM lifecycle_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query lifecycle events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e     Event
			typ   string
			nanos int64
		)
		if err := rows.Scan(&e.AttemptID, &typ, &e.PID, &e.Detail, &nanos); err != nil {
			return nil, fmt.Errorf("failed to scan lifecycle event: %w", err)
		}
		e.Type = EventType(typ)
		e.OccurredAt = time.Unix(0, nanos).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close implements Recorder.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
