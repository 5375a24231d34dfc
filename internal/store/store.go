// Package store persists assembly cards and lanes in a local SQLite
// database and applies optimizer plans back to them. The engine itself
// never touches the database; it consumes snapshots assembled here and
// returns plans that ApplyPlan writes in one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/harborline/slipway/internal/card"
	"github.com/harborline/slipway/internal/optimizer"
	"github.com/harborline/slipway/internal/timeline"
)

// ErrNotFound is returned when a card or lane lookup matches nothing.
var ErrNotFound = errors.New("not found")

// schema contains the DDL executed on every open. IF NOT EXISTS makes it
// safe to run on each startup.
const schema = `
CREATE TABLE IF NOT EXISTS lanes (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    kind       TEXT NOT NULL,
    active     INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS tasks (
    id              TEXT PRIMARY KEY,
    number          TEXT NOT NULL UNIQUE,
    kind            TEXT NOT NULL,
    duration_hours  REAL NOT NULL,
    phase           INTEGER NOT NULL DEFAULT 1,
    lane_id         TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'scheduled',
    dependencies    TEXT NOT NULL DEFAULT '',
    position        INTEGER NOT NULL DEFAULT 0,
    start_time      TEXT,
    end_time        TEXT,
    needs_crane     INTEGER NOT NULL DEFAULT 0,
    locked          INTEGER NOT NULL DEFAULT 0,
    elapsed_hours   REAL NOT NULL DEFAULT 0,
    actual_hours    REAL NOT NULL DEFAULT 0,
    updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store wraps the SQLite board database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode and a
// busy timeout, and creates the schema tables if missing.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// SQLite supports a single writer; one pooled connection avoids
	// SQLITE_BUSY contention between connections that each need their
	// own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// UpsertLane inserts or replaces a lane.
func (s *Store) UpsertLane(ctx context.Context, l card.Lane) error {
	const q = `
		INSERT INTO lanes (id, name, kind, active) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, kind = excluded.kind, active = excluded.active`
	if _, err := s.db.ExecContext(ctx, q, l.ID, l.Name, string(l.Kind), boolInt(l.Active)); err != nil {
		return fmt.Errorf("store: upsert lane %q: %w", l.ID, err)
	}
	return nil
}

// UpsertTask inserts or replaces a card, keyed by ID.
func (s *Store) UpsertTask(ctx context.Context, t card.Task) error {
	const q = `
		INSERT INTO tasks (id, number, kind, duration_hours, phase, lane_id, status,
			dependencies, position, start_time, end_time, needs_crane, locked,
			elapsed_hours, actual_hours, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			number = excluded.number, kind = excluded.kind,
			duration_hours = excluded.duration_hours, phase = excluded.phase,
			lane_id = excluded.lane_id, status = excluded.status,
			dependencies = excluded.dependencies, position = excluded.position,
			start_time = excluded.start_time, end_time = excluded.end_time,
			needs_crane = excluded.needs_crane, locked = excluded.locked,
			elapsed_hours = excluded.elapsed_hours, actual_hours = excluded.actual_hours,
			updated_at = CURRENT_TIMESTAMP`
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.Number, string(t.Kind), t.DurationHours, t.Phase, t.LaneID,
		string(t.Status), strings.Join(t.Dependencies, ","), t.Position,
		timePtr(t.StartTime), timePtr(t.EndTime), boolInt(t.NeedsCrane),
		boolInt(t.Locked), t.ElapsedHours, t.ActualDurationHours)
	if err != nil {
		return fmt.Errorf("store: upsert card %q: %w", t.Number, err)
	}
	return nil
}

// TaskByNumber loads one card by its human code.
func (s *Store) TaskByNumber(ctx context.Context, number string) (card.Task, error) {
	row := s.db.QueryRowContext(ctx, selectTasks+" WHERE number = ?", number)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return card.Task{}, fmt.Errorf("%w: card %q", ErrNotFound, number)
	}
	return t, err
}

// SaveStatus persists a card's lifecycle fields after a status transition.
func (s *Store) SaveStatus(ctx context.Context, t card.Task) error {
	const q = `
		UPDATE tasks SET status = ?, start_time = ?, end_time = ?,
			elapsed_hours = ?, actual_hours = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, string(t.Status), timePtr(t.StartTime),
		timePtr(t.EndTime), t.ElapsedHours, t.ActualDurationHours, t.ID)
	if err != nil {
		return fmt.Errorf("store: save status for %q: %w", t.Number, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: card %q", ErrNotFound, t.Number)
	}
	return nil
}

// ListLanes returns all lanes in insertion (rowid) order.
func (s *Store) ListLanes(ctx context.Context) ([]card.Lane, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, kind, active FROM lanes ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("store: list lanes: %w", err)
	}
	defer rows.Close()

	var lanes []card.Lane
	for rows.Next() {
		var l card.Lane
		var kind string
		var active int
		if err := rows.Scan(&l.ID, &l.Name, &kind, &active); err != nil {
			return nil, fmt.Errorf("store: scan lane: %w", err)
		}
		l.Kind = card.LaneKind(kind)
		l.Active = active != 0
		lanes = append(lanes, l)
	}
	return lanes, rows.Err()
}

const selectTasks = `
	SELECT id, number, kind, duration_hours, phase, lane_id, status,
		dependencies, position, start_time, end_time, needs_crane, locked,
		elapsed_hours, actual_hours
	FROM tasks`

// ListTasks returns all cards ordered by number.
func (s *Store) ListTasks(ctx context.Context) ([]card.Task, error) {
	rows, err := s.db.QueryContext(ctx, selectTasks+" ORDER BY number")
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	var tasks []card.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Snapshot assembles the engine's read-only input from the current
// database contents and the given working calendar.
func (s *Store) Snapshot(ctx context.Context, cfg timeline.Config) (*card.Snapshot, error) {
	tasks, err := s.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	lanes, err := s.ListLanes(ctx)
	if err != nil {
		return nil, err
	}
	return card.NewSnapshot(tasks, lanes, cfg), nil
}

// ApplyPlan writes an optimizer plan back to the cards in a single
// transaction. Concurrent optimize-and-apply sequences are last-writer-
// wins; a fresh snapshot precedes every optimization, so that is safe.
func (s *Store) ApplyPlan(ctx context.Context, plan []optimizer.Assignment) error {
	if len(plan) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin apply: %w", err)
	}
	defer tx.Rollback()

	const q = `
		UPDATE tasks SET lane_id = ?, position = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	for _, a := range plan {
		if _, err := tx.ExecContext(ctx, q, a.LaneID, a.Position, a.TaskID); err != nil {
			return fmt.Errorf("store: apply assignment for %q: %w", a.TaskNumber, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit apply: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (card.Task, error) {
	var t card.Task
	var kind, status, deps string
	var start, end sql.NullString
	var crane, locked int
	err := row.Scan(&t.ID, &t.Number, &kind, &t.DurationHours, &t.Phase,
		&t.LaneID, &status, &deps, &t.Position, &start, &end,
		&crane, &locked, &t.ElapsedHours, &t.ActualDurationHours)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return card.Task{}, err
		}
		return card.Task{}, fmt.Errorf("store: scan card: %w", err)
	}
	t.Kind = card.Kind(kind)
	t.Status = card.Status(status)
	t.NeedsCrane = crane != 0
	t.Locked = locked != 0
	if deps != "" {
		t.Dependencies = strings.Split(deps, ",")
	}
	if t.StartTime, err = parseTime(start); err != nil {
		return card.Task{}, fmt.Errorf("store: card %q start_time: %w", t.Number, err)
	}
	if t.EndTime, err = parseTime(end); err != nil {
		return card.Task{}, fmt.Errorf("store: card %q end_time: %w", t.Number, err)
	}
	return t, nil
}

// Timestamps are stored as RFC 3339 text; NULL means unset.
func timePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
