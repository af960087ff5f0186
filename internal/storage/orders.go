package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/countdown"
	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	pool *db.Pool
}

func NewOrderRepository(pool *db.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const orderColumns = `
	id, order_number, supplier_contact_id, custom_supplier, parts, total_amount,
	status, order_date, expected_delivery_date, actual_delivery_date,
	custom_time_limit, countdown_end_time, overdue_notified_at,
	COALESCE(notes, ''), created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (model.Order, error) {
	var o model.Order
	var supplierContactID *string
	var customSupplier, parts []byte
	var status string
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&supplierContactID,
		&customSupplier,
		&parts,
		&o.TotalAmount,
		&status,
		&o.OrderDate,
		&o.ExpectedDeliveryDate,
		&o.ActualDeliveryDate,
		&o.CustomTimeLimitHours,
		&o.CountdownEndTime,
		&o.OverdueNotifiedAt,
		&o.Notes,
		&o.CreatedBy,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return model.Order{}, err
	}
	o.Status = model.OrderStatus(status)
	if supplierContactID != nil {
		o.Supplier.ContactID = *supplierContactID
	}
	if len(customSupplier) > 0 {
		var inline model.InlineSupplier
		if err := json.Unmarshal(customSupplier, &inline); err != nil {
			return model.Order{}, err
		}
		o.Supplier.Inline = &inline
	}
	if len(parts) > 0 {
		if err := json.Unmarshal(parts, &o.Parts); err != nil {
			return model.Order{}, err
		}
	}
	return o, nil
}

func (r *OrderRepository) Create(ctx context.Context, tx pgx.Tx, o *model.Order) (string, error) {
	partsJSON, err := json.Marshal(o.Parts)
	if err != nil {
		return "", err
	}
	var supplierContactID *string
	if o.Supplier.ContactID != "" {
		supplierContactID = &o.Supplier.ContactID
	}
	var customSupplier []byte
	if o.Supplier.Inline != nil {
		customSupplier, err = json.Marshal(o.Supplier.Inline)
		if err != nil {
			return "", err
		}
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO orders
			(order_number, supplier_contact_id, custom_supplier, parts, total_amount,
			 status, order_date, expected_delivery_date, custom_time_limit,
			 countdown_end_time, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, o.OrderNumber, supplierContactID, customSupplier, partsJSON, o.TotalAmount,
		string(o.Status), o.OrderDate, o.ExpectedDeliveryDate, o.CustomTimeLimitHours,
		o.CountdownEndTime, o.Notes, o.CreatedBy).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (model.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Order, error) {
	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	return scanOrder(row)
}

func (r *OrderRepository) List(ctx context.Context, status string, limit, offset int) ([]model.Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListUrgent returns active orders whose countdown expires within the urgent
// window, soonest deadline first. Delivered and cancelled orders never appear.
func (r *OrderRepository) ListUrgent(ctx context.Context, now time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('confirmed', 'shipped')
			AND countdown_end_time > $1
			AND countdown_end_time < $2
		ORDER BY countdown_end_time ASC
	`, now, now.Add(countdown.UrgentWindow))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// ListOverdue returns active orders whose countdown has expired, soonest
// deadline first.
func (r *OrderRepository) ListOverdue(ctx context.Context, now time.Time) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('confirmed', 'shipped')
			AND countdown_end_time <= $1
		ORDER BY countdown_end_time ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, to model.OrderStatus, deliveredAt *time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $2,
			actual_delivery_date = COALESCE($3, actual_delivery_date),
			updated_at = now()
		WHERE id = $1
	`, id, string(to), deliveredAt)
	return err
}

// UpdateTimeLimit rewrites the countdown limit and its re-derived deadline.
func (r *OrderRepository) UpdateTimeLimit(ctx context.Context, tx pgx.Tx, id string, hours int, deadline time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET custom_time_limit = $2,
			countdown_end_time = $3,
			overdue_notified_at = NULL,
			updated_at = now()
		WHERE id = $1
	`, id, hours, deadline)
	return err
}

// ListNewlyOverdue locks active orders whose deadline has passed and that
// have not yet been flagged, for the periodic overdue sweep.
func (r *OrderRepository) ListNewlyOverdue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]model.Order, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status IN ('confirmed', 'shipped')
			AND countdown_end_time <= $1
			AND overdue_notified_at IS NULL
		ORDER BY countdown_end_time ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *OrderRepository) MarkOverdueNotified(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE orders
		SET overdue_notified_at = now(),
			updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *OrderRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n)
	return n, err
}

func collectOrders(rows pgx.Rows) ([]model.Order, error) {
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return orders, nil
}
