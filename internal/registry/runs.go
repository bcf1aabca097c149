package registry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunPassed = "passed"
	RunFailed = "failed"
)

// Run is one recorded smoke-run outcome.
type Run struct {
	ID             uuid.UUID
	IdentityID     uuid.UUID
	Email          string
	AppURL         string
	Status         string
	Error          string
	Duration       time.Duration
	SessionSubject string
	CreatedAt      time.Time
}

// RecordRunParams holds the fields for recording a run.
type RecordRunParams struct {
	IdentityID     uuid.UUID
	AppURL         string
	Status         string
	Error          string
	Duration       time.Duration
	SessionSubject string
}

// RecordRun stores a smoke-run outcome.
func (db *DB) RecordRun(ctx context.Context, params RecordRunParams) (*Run, error) {
	var run Run
	var durationMs int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO smoke_runs (identity_id, app_url, status, error, duration_ms, session_subject)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, identity_id, app_url, status, error, duration_ms, session_subject, created_at`,
		params.IdentityID, params.AppURL, params.Status, params.Error,
		params.Duration.Milliseconds(), params.SessionSubject,
	).Scan(&run.ID, &run.IdentityID, &run.AppURL, &run.Status, &run.Error, &durationMs, &run.SessionSubject, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}

// ListRuns returns the most recent runs, newest first, joined with the
// identity email.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.pool.Query(ctx,
		`SELECT r.id, r.identity_id, i.email, r.app_url, r.status, r.error, r.duration_ms, r.session_subject, r.created_at
		 FROM smoke_runs r
		 JOIN identities i ON i.id = r.identity_id
		 ORDER BY r.created_at DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.IdentityID, &run.Email, &run.AppURL, &run.Status, &run.Error, &durationMs, &run.SessionSubject, &run.CreatedAt); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
