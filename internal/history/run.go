package history

import (
	"database/sql"
	"fmt"
	"time"
)

// Run is one recorded validation run.
type Run struct {
	ID         string    `json:"id"`
	Checkpoint string    `json:"checkpoint"`
	Suite      string    `json:"suite"`
	TableName  string    `json:"table_name"`
	Datasource string    `json:"datasource"`
	Success    bool      `json:"success"`
	Evaluated  int       `json:"evaluated"`
	Failed     int       `json:"failed"`
	Detail     string    `json:"detail"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// RecordRun inserts a validation run.
func (db *DB) RecordRun(r *Run) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, checkpoint, suite, table_name, datasource, success, evaluated, failed, detail, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Checkpoint, r.Suite, r.TableName, r.Datasource, boolToInt(r.Success),
		r.Evaluated, r.Failed, r.Detail, formatTime(r.StartedAt), formatTime(r.FinishedAt))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil when no run matches.
func (db *DB) GetRun(id string) (*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRow(`
		SELECT id, checkpoint, suite, table_name, datasource, success, evaluated, failed, detail, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. A limit of 0
// returns all runs.
func (db *DB) ListRuns(limit int) ([]*Run, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	q := `
		SELECT id, checkpoint, suite, table_name, datasource, success, evaluated, failed, detail, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// PurgeOldRuns deletes runs older than the specified duration. Returns
// the number of runs deleted.
func (db *DB) PurgeOldRuns(olderThan time.Duration) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cutoff := formatTime(time.Now().Add(-olderThan))
	result, err := db.conn.Exec(`DELETE FROM runs WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old runs: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads a Run from a row.
func scanRun(s scanner) (*Run, error) {
	var r Run
	var success int
	var detail sql.NullString
	var startedAt, finishedAt string

	err := s.Scan(&r.ID, &r.Checkpoint, &r.Suite, &r.TableName, &r.Datasource,
		&success, &r.Evaluated, &r.Failed, &detail, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	r.Success = success != 0
	r.Detail = detail.String
	r.StartedAt, _ = parseTime(startedAt)
	r.FinishedAt, _ = parseTime(finishedAt)
	return &r, nil
}

// boolToInt converts a bool for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
