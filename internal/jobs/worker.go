package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/outbox"
	"github.com/bluezpowerhouse/autoshop/internal/storage"
	"github.com/bluezpowerhouse/autoshop/libs/db"
)

// Worker drives the two periodic duties of the service: publishing due
// appointment reminders and flagging orders whose delivery countdown has
// expired. Both run inside row-locked batches so multiple instances can share
// one database.
type Worker struct {
	pool      *db.Pool
	reminders *Repository
	orders    *storage.OrderRepository
	outbox    *outbox.Repository
	logger    *slog.Logger
	pollEvery time.Duration
	batchSize int
}

type WorkerConfig struct {
	PollEvery time.Duration
	BatchSize int
}

func NewWorker(pool *db.Pool, reminders *Repository, orders *storage.OrderRepository, ob *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Worker{
		pool:      pool,
		reminders: reminders,
		orders:    orders,
		outbox:    ob,
		logger:    logger,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processReminders(ctx); err != nil {
				w.logger.Error("reminder batch failed", "err", err)
			}
			if err := w.sweepOverdueOrders(ctx); err != nil {
				w.logger.Error("overdue sweep failed", "err", err)
			}
		}
	}
}

type reminderDuePayload struct {
	AppointmentID string `json:"appointment_id"`
	Channel       string `json:"channel"`
	Recipient     string `json:"recipient"`
	RunAt         string `json:"run_at"`
}

func (w *Worker) processReminders(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch, err := w.reminders.FetchDue(ctx, tx, time.Now().UTC(), w.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return tx.Commit(ctx)
	}

	var done []int64
	for _, job := range batch {
		payload, err := json.Marshal(reminderDuePayload{
			AppointmentID: job.AppointmentID,
			Channel:       job.Channel,
			Recipient:     job.Recipient,
			RunAt:         job.RunAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		err = w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   job.AppointmentID,
			EventType:     outbox.EventReminderDue,
			Payload:       payload,
		})
		if err != nil {
			if failErr := w.reminders.MarkFailed(ctx, tx, job.ID); failErr != nil {
				return failErr
			}
			w.logger.Error("reminder enqueue failed", "job_id", job.ID, "err", err)
			continue
		}
		done = append(done, job.ID)
	}
	if err := w.reminders.MarkProcessed(ctx, tx, done); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	w.logger.Info("reminders published", "count", len(done))
	return nil
}

type orderOverduePayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	DeadlineAt  string `json:"deadline_at"`
	Status      string `json:"status"`
}

func (w *Worker) sweepOverdueOrders(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	overdue, err := w.orders.ListNewlyOverdue(ctx, tx, time.Now().UTC(), w.batchSize)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return tx.Commit(ctx)
	}

	var ids []string
	for _, o := range overdue {
		var deadline string
		if o.CountdownEndTime != nil {
			deadline = o.CountdownEndTime.UTC().Format(time.RFC3339)
		}
		payload, err := json.Marshal(orderOverduePayload{
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			DeadlineAt:  deadline,
			Status:      string(o.Status),
		})
		if err != nil {
			return err
		}
		err = w.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "order",
			AggregateID:   o.ID,
			EventType:     outbox.EventOrderOverdue,
			Payload:       payload,
		})
		if err != nil {
			return err
		}
		ids = append(ids, o.ID)
	}
	if err := w.orders.MarkOverdueNotified(ctx, tx, ids); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	w.logger.Info("orders flagged overdue", "count", len(ids))
	return nil
}
