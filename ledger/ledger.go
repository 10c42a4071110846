// Package ledger records the jobs of an analysis run in a SQLite database so
// that an interrupted run can be resumed and every output file traced back
// to the job that produced it.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Sergeyir/PairAnalysisPhenix-sub002/config"
)

// Job states.
const (
	Running = "running"
	Done    = "done"
	Failed  = "failed"
)

type Ledger struct {
	db *sql.DB
}

func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not enable WAL: %w", err)
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			job_id       TEXT PRIMARY KEY,
			run          TEXT NOT NULL,
			pair         TEXT NOT NULL,
			field        TEXT NOT NULL,
			aux          TEXT NOT NULL,
			ptdev        DOUBLE NOT NULL,
			output       TEXT NOT NULL,
			status       TEXT NOT NULL,
			events       BIGINT DEFAULT 0,
			error        TEXT DEFAULT '',
			started_at   TIMESTAMP NOT NULL,
			finished_at  TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS jobs_key ON jobs (run, pair, field, aux, ptdev);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create jobs table: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Begin records job j of run as running and returns its id.
func (l *Ledger) Begin(run string, j config.Job, output string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := l.db.Exec(
		`INSERT INTO jobs (job_id, run, pair, field, aux, ptdev, output, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), run, j.Pair.Key(), j.Field, j.Aux, j.PtDeviation, output, Running, time.Now().UTC(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("could not record job %s: %w", j, err)
	}
	return id, nil
}

// Finish marks a job done after events events were processed.
func (l *Ledger) Finish(id uuid.UUID, events int64) error {
	return l.end(id, Done, events, "")
}

// Fail marks a job failed with the reason err.
func (l *Ledger) Fail(id uuid.UUID, err error) error {
	return l.end(id, Failed, 0, err.Error())
}

func (l *Ledger) end(id uuid.UUID, status string, events int64, reason string) error {
	res, err := l.db.Exec(
		`UPDATE jobs SET status = ?, events = ?, error = ?, finished_at = ? WHERE job_id = ?`,
		status, events, reason, time.Now().UTC(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("could not update job %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("unknown job %s", id)
	}
	return nil
}

// Done reports whether job j of run already completed.
func (l *Ledger) Done(run string, j config.Job) (bool, error) {
	var id string
	err := l.db.QueryRow(
		`SELECT job_id FROM jobs
		 WHERE run = ? AND pair = ? AND field = ? AND aux = ? AND ptdev = ? AND status = ?
		 LIMIT 1`,
		run, j.Pair.Key(), j.Field, j.Aux, j.PtDeviation, Done,
	).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// Status returns the state and processed event count of a job.
func (l *Ledger) Status(id uuid.UUID) (string, int64, error) {
	var (
		status string
		events int64
	)
	err := l.db.QueryRow(`SELECT status, events FROM jobs WHERE job_id = ?`, id.String()).Scan(&status, &events)
	if err != nil {
		return "", 0, fmt.Errorf("could not read job %s: %w", id, err)
	}
	return status, events, nil
}
