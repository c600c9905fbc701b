package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run is not found.
var ErrRunNotFound = errors.New("run not found")

// timeLayout has a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored tester session.
type Run struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Level       string    `json:"level"`
	ProjectPath string    `json:"project_path,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
	Results     []Result  `json:"results,omitempty"`
}

// Result is one label of a run: an outcome log or a timing.
type Result struct {
	Position       int        `json:"position"`
	Label          string     `json:"label"`
	Kind           string     `json:"kind"`
	Outcomes       []string   `json:"outcomes,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	ElapsedSeconds *float64   `json:"elapsed_seconds,omitempty"`
}

// SaveRun inserts a run and its results in one transaction.
// A UUID is generated when ID is empty.
func (db *DB) SaveRun(r *Run) error {
	if r.Name == "" {
		return fmt.Errorf("run name is required")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now().UTC()
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, name, level, project_path, started_at, finished_at, passed, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Name, r.Level, r.ProjectPath, formatTime(r.StartedAt), formatTime(r.FinishedAt), r.Passed, r.Failed)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for i := range r.Results {
		res := &r.Results[i]
		res.Position = i
		_, err := tx.Exec(`
			INSERT INTO results (run_id, position, label, kind, outcomes, started_at, ended_at, elapsed_seconds)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, res.Position, res.Label, res.Kind, strings.Join(res.Outcomes, " "),
			nullTime(res.StartedAt), nullTime(res.EndedAt), nullFloat(res.ElapsedSeconds))
		if err != nil {
			return fmt.Errorf("inserting result %q: %w", res.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its results.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, name, level, project_path, started_at, finished_at, passed, failed
		FROM runs WHERE id = ?
	`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT position, label, kind, outcomes, started_at, ended_at, elapsed_seconds
		FROM results WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			res              Result
			outcomes         string
			startedAt, ended sql.NullString
			elapsed          sql.NullFloat64
		)
		if err := rows.Scan(&res.Position, &res.Label, &res.Kind, &outcomes, &startedAt, &ended, &elapsed); err != nil {
			return nil, fmt.Errorf("scanning result row: %w", err)
		}
		if outcomes != "" {
			res.Outcomes = strings.Fields(outcomes)
		}
		if res.StartedAt, err = parseNullTime(startedAt); err != nil {
			return nil, fmt.Errorf("parsing result started_at: %w", err)
		}
		if res.EndedAt, err = parseNullTime(ended); err != nil {
			return nil, fmt.Errorf("parsing result ended_at: %w", err)
		}
		if elapsed.Valid {
			v := elapsed.Float64
			res.ElapsedSeconds = &v
		}
		r.Results = append(r.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating results: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first, without results.
// A limit <= 0 returns every run.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`
		SELECT id, name, level, project_path, started_at, finished_at, passed, failed
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its results.
func (db *DB) DeleteRun(id string) error {
	result, err := db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var startedAt, finishedAt string
	err := row.Scan(&r.ID, &r.Name, &r.Level, &r.ProjectPath, &startedAt, &finishedAt, &r.Passed, &r.Failed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at: %w", err)
	}
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
