// Package store keeps a local journal of report runs in sqlite, so a
// failed export is visible after the fact and reruns can be audited.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFileName = "t3.db"

const (
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

type Store struct {
	db *sql.DB
}

// Run is one journaled report run.
type Run struct {
	ID            int64
	RunID         string
	LicenseNumber string
	Report        string
	Status        string
	RecordCount   sql.NullInt64
	OutputPath    sql.NullString
	Error         sql.NullString
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func DBPath(storeDir string) string {
	return filepath.Join(storeDir, dbFileName)
}

func Open(storeDir string) (*Store, error) {
	if err := os.MkdirAll(storeDir, 0700); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000", DBPath(storeDir)))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL UNIQUE,
	license_number TEXT NOT NULL,
	report TEXT NOT NULL,
	status TEXT NOT NULL,
	record_count INTEGER,
	output_path TEXT,
	error TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// StartRun journals a new run in the running state and returns its row id.
func (s *Store) StartRun(runID, licenseNumber, report string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(`
INSERT INTO runs (run_id, license_number, report, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, runID, licenseNumber, report, StatusRunning, now, now)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the terminal state of a run.
func (s *Store) FinishRun(id int64, status string, recordCount int, outputPath, errMsg string) error {
	_, err := s.db.Exec(`
UPDATE runs SET status = ?, record_count = ?, output_path = ?, error = ?, updated_at = ?
WHERE id = ?
`, status, recordCount, nullString(outputPath), nullString(errMsg), time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// ListRuns returns journaled runs, optionally filtered by status, newest
// first.
func (s *Store) ListRuns(status string) ([]Run, error) {
	query := `SELECT id, run_id, license_number, report, status, record_count, output_path, error, created_at, updated_at FROM runs`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var created, updated string
		if err := rows.Scan(&r.ID, &r.RunID, &r.LicenseNumber, &r.Report, &r.Status, &r.RecordCount, &r.OutputPath, &r.Error, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = parseTime(created)
		r.UpdatedAt = parseTime(updated)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run by row id, or nil when absent.
func (s *Store) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(`SELECT id, run_id, license_number, report, status, record_count, output_path, error, created_at, updated_at FROM runs WHERE id = ?`, id)
	var r Run
	var created, updated string
	if err := row.Scan(&r.ID, &r.RunID, &r.LicenseNumber, &r.Report, &r.Status, &r.RecordCount, &r.OutputPath, &r.Error, &created, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.CreatedAt = parseTime(created)
	r.UpdatedAt = parseTime(updated)
	return &r, nil
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
