package jobs

import (
	"context"
	"time"

	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/jackc/pgx/v5"
)

// Job is a scheduled reminder for an upcoming appointment.
type Job struct {
	ID             int64
	AppointmentID  string
	IdempotencyKey string
	Channel        string
	Recipient      string
	RunAt          time.Time
	Attempts       int
	ProcessedAt    *time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert enqueues a reminder. The idempotency key makes re-scheduling after an
// appointment edit a no-op when the slot has not moved.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, j Job) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO reminder_jobs (appointment_id, idempotency_key, channel, recipient, run_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, j.AppointmentID, j.IdempotencyKey, j.Channel, j.Recipient, j.RunAt)
	return err
}

// CancelPending drops unprocessed reminders for an appointment, used when the
// appointment is cancelled or its slot moves.
func (r *Repository) CancelPending(ctx context.Context, tx pgx.Tx, appointmentID string) error {
	_, err := tx.Exec(ctx, `
		DELETE FROM reminder_jobs
		WHERE appointment_id = $1 AND processed_at IS NULL
	`, appointmentID)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, appointment_id, idempotency_key, channel, recipient, run_at, attempts, processed_at
		FROM reminder_jobs
		WHERE processed_at IS NULL
			AND run_at <= $1
			AND attempts < 5
		ORDER BY run_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.AppointmentID, &j.IdempotencyKey, &j.Channel, &j.Recipient, &j.RunAt, &j.Attempts, &j.ProcessedAt); err != nil {
			return nil, err
		}
		batch = append(batch, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return batch, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET processed_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

// MarkFailed bumps the attempt counter and pushes run_at out with a linear
// backoff so a poisoned job cannot starve the batch.
func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET attempts = attempts + 1,
			run_at = now() + (attempts + 1) * interval '1 minute'
		WHERE id = $1
	`, id)
	return err
}
