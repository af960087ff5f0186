package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/jackc/pgx/v5"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	id, title, COALESCE(description, ''), type, customer, start_time, end_time,
	status, assigned_technician_id, required_parts, estimated_cost, actual_cost,
	COALESCE(notes, ''), cancelled_at, COALESCE(cancellation_reason, ''),
	created_by, created_at, updated_at`

func scanAppointment(row rowScanner) (model.Appointment, error) {
	var a model.Appointment
	var customer, requiredParts, estimatedCost, actualCost []byte
	if err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Description,
		&a.Type,
		&customer,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.TechnicianID,
		&requiredParts,
		&estimatedCost,
		&actualCost,
		&a.Notes,
		&a.CancelledAt,
		&a.CancelReason,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	if len(customer) > 0 {
		a.Customer = &model.AppointmentCustomer{}
		if err := json.Unmarshal(customer, a.Customer); err != nil {
			return model.Appointment{}, err
		}
	}
	if len(requiredParts) > 0 {
		if err := json.Unmarshal(requiredParts, &a.RequiredParts); err != nil {
			return model.Appointment{}, err
		}
	}
	if len(estimatedCost) > 0 {
		a.EstimatedCost = &model.Cost{}
		if err := json.Unmarshal(estimatedCost, a.EstimatedCost); err != nil {
			return model.Appointment{}, err
		}
	}
	if len(actualCost) > 0 {
		a.ActualCost = &model.Cost{}
		if err := json.Unmarshal(actualCost, a.ActualCost); err != nil {
			return model.Appointment{}, err
		}
	}
	return a, nil
}

func marshalAppointmentJSON(a *model.Appointment) (customer, requiredParts, estimatedCost, actualCost []byte, err error) {
	if a.Customer != nil {
		if customer, err = json.Marshal(a.Customer); err != nil {
			return
		}
	}
	if a.RequiredParts != nil {
		if requiredParts, err = json.Marshal(a.RequiredParts); err != nil {
			return
		}
	}
	if a.EstimatedCost != nil {
		if estimatedCost, err = json.Marshal(a.EstimatedCost); err != nil {
			return
		}
	}
	if a.ActualCost != nil {
		if actualCost, err = json.Marshal(a.ActualCost); err != nil {
			return
		}
	}
	return
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, a *model.Appointment) (string, error) {
	customer, requiredParts, estimatedCost, actualCost, err := marshalAppointmentJSON(a)
	if err != nil {
		return "", err
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments
			(title, description, type, customer, start_time, end_time, status,
			 assigned_technician_id, required_parts, estimated_cost, actual_cost,
			 notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`, a.Title, a.Description, a.Type, customer, a.StartTime, a.EndTime, a.Status,
		a.TechnicianID, requiredParts, estimatedCost, actualCost, a.Notes, a.CreatedBy).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Appointment) error {
	customer, requiredParts, estimatedCost, actualCost, err := marshalAppointmentJSON(a)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE appointments
		SET title = $2,
			description = $3,
			type = $4,
			customer = $5,
			start_time = $6,
			end_time = $7,
			assigned_technician_id = $8,
			required_parts = $9,
			estimated_cost = $10,
			actual_cost = $11,
			notes = $12,
			updated_at = now()
		WHERE id = $1
	`, a.ID, a.Title, a.Description, a.Type, customer, a.StartTime, a.EndTime,
		a.TechnicianID, requiredParts, estimatedCost, actualCost, a.Notes)
	return err
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanAppointment(row)
}

func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	return scanAppointment(row)
}

type AppointmentFilter struct {
	Status       string
	TechnicianID string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

func (r *AppointmentRepository) List(ctx context.Context, f AppointmentFilter) ([]model.Appointment, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if f.TechnicianID != "" {
		args = append(args, f.TechnicianID)
		query += ` AND assigned_technician_id = $` + strconv.Itoa(len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		query += ` AND end_time > $` + strconv.Itoa(len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		query += ` AND start_time < $` + strconv.Itoa(len(args))
	}
	args = append(args, f.Limit, f.Offset)
	query += ` ORDER BY start_time ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// Conflict describes the existing appointment that blocks a proposed one.
type Conflict struct {
	AppointmentID string
	TechnicianID  string
	Start         time.Time
	End           time.Time
}

// FindConflict runs inside the caller's transaction so the check and the
// subsequent insert/update commit atomically; the exclusion constraint on
// the table backstops the race between concurrent transactions.
func (r *AppointmentRepository) FindConflict(ctx context.Context, tx pgx.Tx, technicianID string, start, end time.Time, excludeID string) (*Conflict, error) {
	var c Conflict
	err := tx.QueryRow(ctx, `
		SELECT id, assigned_technician_id, start_time, end_time
		FROM appointments
		WHERE assigned_technician_id = $1
			AND status IN ('scheduled', 'in_progress')
			AND start_time < $3
			AND end_time > $2
			AND ($4 = '' OR id::text <> $4)
		ORDER BY start_time ASC
		LIMIT 1
	`, technicianID, start, end, excludeID).Scan(&c.AppointmentID, &c.TechnicianID, &c.Start, &c.End)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *AppointmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
			updated_at = now()
		WHERE id = $1
	`, id, status)
	return err
}

func (r *AppointmentRepository) Cancel(ctx context.Context, tx pgx.Tx, id, status, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
			cancelled_at = now(),
			cancellation_reason = $3,
			updated_at = now()
		WHERE id = $1
		RETURNING cancelled_at
	`, id, status, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *AppointmentRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM appointments WHERE status IN ('scheduled', 'in_progress')`).Scan(&n)
	return n, err
}
