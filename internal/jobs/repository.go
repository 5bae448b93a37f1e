package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/garnizeh/showcase/internal/db"
)

// Repository persists jobs in the jobs and dead_letter_jobs tables.
// Times are stored as unix milliseconds.
type Repository struct {
	db  *db.DB
	now func() time.Time
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d, now: time.Now} }

// Enqueue inserts a job into the jobs table and returns the new ID
func (r *Repository) Enqueue(ctx context.Context, j *Job) (int64, error) {
	if j.MaxAttempts == 0 {
		j.MaxAttempts = 5
	}
	if j.Priority == 0 {
		j.Priority = 100
	}
	now := r.now().UTC()
	if j.ScheduledAt.IsZero() {
		j.ScheduledAt = now
	}
	var payload any
	if len(j.Payload) > 0 {
		payload = string(j.Payload)
	}
	q := `INSERT INTO jobs(type, payload, status, attempts, max_attempts, priority, scheduled_at, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?)`
	res, err := r.db.Exec(ctx, q, j.Type, payload, StatusQueued, j.Attempts, j.MaxAttempts, j.Priority, j.ScheduledAt.UTC().UnixMilli(), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	j.ID = id
	j.Status = StatusQueued
	return id, nil
}

// FetchNext claims the next due job, respecting priority and schedule, by
// flipping it to running in the same statement. It returns (nil, nil) when
// nothing is due.
func (r *Repository) FetchNext(ctx context.Context) (*Job, error) {
	now := r.now().UTC().UnixMilli()
	q := `UPDATE jobs SET status = 'running', updated_at = ?
		WHERE id = (
			SELECT id FROM jobs
			WHERE status IN ('queued', 'retry') AND (next_try_at IS NULL OR next_try_at <= ?) AND scheduled_at <= ?
			ORDER BY priority ASC, scheduled_at ASC, id ASC LIMIT 1
		)
		RETURNING id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created_at, updated_at`
	var (
		j         Job
		payload   sql.NullString
		scheduled int64
		nextTry   sql.NullInt64
		lastError sql.NullString
		created   int64
		updated   int64
	)
	err := r.db.QueryRow(ctx, q, now, now, now).Scan(&j.ID, &j.Type, &payload, &j.Status, &j.Attempts, &j.MaxAttempts,
		&j.Priority, &scheduled, &nextTry, &lastError, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch next job: %w", err)
	}
	if payload.Valid {
		j.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		t := time.UnixMilli(nextTry.Int64).UTC()
		j.NextTryAt = &t
	}
	j.LastError = lastError.String
	j.ScheduledAt = time.UnixMilli(scheduled).UTC()
	j.CreatedAt = time.UnixMilli(created).UTC()
	j.UpdatedAt = time.UnixMilli(updated).UTC()
	return &j, nil
}

// UpdateJob updates attempts, status, next_try_at, last_error
func (r *Repository) UpdateJob(ctx context.Context, j *Job) error {
	var nextTry any
	if j.NextTryAt != nil {
		nextTry = j.NextTryAt.UTC().UnixMilli()
	}
	q := `UPDATE jobs SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.Exec(ctx, q, j.Status, j.Attempts, nextTry, j.LastError, r.now().UTC().UnixMilli(), j.ID)
	return err
}

// Get loads a job by id, or (nil, nil) when it is gone.
func (r *Repository) Get(ctx context.Context, id int64) (*Job, error) {
	var (
		j         Job
		payload   sql.NullString
		lastError sql.NullString
	)
	err := r.db.QueryRow(ctx, `SELECT id, type, payload, status, attempts, max_attempts, priority, last_error FROM jobs WHERE id = ?`, id).
		Scan(&j.ID, &j.Type, &payload, &j.Status, &j.Attempts, &j.MaxAttempts, &j.Priority, &lastError)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if payload.Valid {
		j.Payload = json.RawMessage(payload.String)
	}
	j.LastError = lastError.String
	return &j, nil
}

// RequeueRunning puts jobs left running by a previous process back in the
// queue.
func (r *Repository) RequeueRunning(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE jobs SET status = 'queued', updated_at = ? WHERE status = 'running'`, r.now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("requeue running jobs: %w", err)
	}
	return res.RowsAffected()
}

// MoveToDeadLetter moves a job to dead_letter_jobs and deletes the original
func (r *Repository) MoveToDeadLetter(ctx context.Context, j *Job) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	insert := `INSERT INTO dead_letter_jobs(job_id, type, payload, attempts, last_error, failed_at) VALUES(?,?,?,?,?,?)`
	if _, err := tx.ExecContext(ctx, insert, j.ID, j.Type, string(j.Payload), j.Attempts, j.LastError, r.now().UTC().UnixMilli()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, j.ID); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Counts reports the number of jobs per status, plus "dead_letter".
func (r *Repository) Counts(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryRows(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	out := map[string]int64{}
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, err
		}
		out[status] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var dead int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM dead_letter_jobs`).Scan(&dead); err != nil {
		return nil, fmt.Errorf("count dead letters: %w", err)
	}
	out["dead_letter"] = dead
	return out, nil
}

// PurgeDone deletes finished jobs last touched before cutoff.
func (r *Repository) PurgeDone(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.Exec(ctx, `DELETE FROM jobs WHERE status = 'done' AND updated_at < ?`, before.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purge done jobs: %w", err)
	}
	return res.RowsAffected()
}
