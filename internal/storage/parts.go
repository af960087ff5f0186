package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/jackc/pgx/v5"
)

type PartRepository struct {
	pool *db.Pool
}

func NewPartRepository(pool *db.Pool) *PartRepository {
	return &PartRepository{pool: pool}
}

var ErrInsufficientStock = errors.New("insufficient stock")

const partColumns = `
	id, part_number, name, COALESCE(description, ''), category, brand, price, cost,
	quantity_in_stock, minimum_stock_level, supplier_contact_id,
	COALESCE(warehouse, ''), COALESCE(shelf, ''), COALESCE(bin, ''),
	is_active, last_restocked, created_at, updated_at`

func scanPart(row rowScanner) (model.Part, error) {
	var p model.Part
	if err := row.Scan(
		&p.ID,
		&p.PartNumber,
		&p.Name,
		&p.Description,
		&p.Category,
		&p.Brand,
		&p.Price,
		&p.Cost,
		&p.QuantityInStock,
		&p.MinimumStockLevel,
		&p.SupplierContactID,
		&p.Warehouse,
		&p.Shelf,
		&p.Bin,
		&p.IsActive,
		&p.LastRestocked,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return model.Part{}, err
	}
	return p, nil
}

func (r *PartRepository) Create(ctx context.Context, p *model.Part) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO parts
			(part_number, name, description, category, brand, price, cost,
			 quantity_in_stock, minimum_stock_level, supplier_contact_id,
			 warehouse, shelf, bin, last_restocked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		RETURNING id
	`, p.PartNumber, p.Name, p.Description, p.Category, p.Brand, p.Price, p.Cost,
		p.QuantityInStock, p.MinimumStockLevel, p.SupplierContactID,
		p.Warehouse, p.Shelf, p.Bin).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *PartRepository) Update(ctx context.Context, p *model.Part) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE parts
		SET name = $2,
			description = $3,
			category = $4,
			brand = $5,
			price = $6,
			cost = $7,
			minimum_stock_level = $8,
			supplier_contact_id = $9,
			warehouse = $10,
			shelf = $11,
			bin = $12,
			updated_at = now()
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.Category, p.Brand, p.Price, p.Cost,
		p.MinimumStockLevel, p.SupplierContactID, p.Warehouse, p.Shelf, p.Bin)
	return err
}

func (r *PartRepository) Get(ctx context.Context, id string) (model.Part, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, id)
	return scanPart(row)
}

func (r *PartRepository) List(ctx context.Context, search, category string, limit, offset int) ([]model.Part, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + partColumns + ` FROM parts WHERE is_active`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + n + ` OR part_number ILIKE $` + n + ` OR description ILIKE $` + n + `)`
	}
	if category != "" {
		args = append(args, category)
		query += ` AND category = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

// LowStock returns active parts at or below their minimum stock level,
// most depleted first.
func (r *PartRepository) LowStock(ctx context.Context) ([]model.Part, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+partColumns+`
		FROM parts
		WHERE is_active AND quantity_in_stock <= minimum_stock_level
		ORDER BY quantity_in_stock ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectParts(rows)
}

func (r *PartRepository) Restock(ctx context.Context, id string, quantity int) (model.Part, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE parts
		SET quantity_in_stock = quantity_in_stock + $2,
			last_restocked = now(),
			updated_at = now()
		WHERE id = $1
		RETURNING `+partColumns+`
	`, id, quantity)
	return scanPart(row)
}

// DecrementStock consumes stock inside the caller's transaction; completing
// an appointment decrements its required parts atomically with the status
// change.
func (r *PartRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id string, quantity int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE parts
		SET quantity_in_stock = quantity_in_stock - $2,
			updated_at = now()
		WHERE id = $1 AND quantity_in_stock >= $2
	`, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// A zero-row update is either a shortage or an unknown id; only the
		// former is ErrInsufficientStock.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM parts WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *PartRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE parts
		SET is_active = false,
			updated_at = now()
		WHERE id = $1 AND is_active
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type StockCounts struct {
	TotalActive int
	OutOfStock  int
	LowStock    int
}

func (r *PartRepository) CountStock(ctx context.Context) (StockCounts, error) {
	var c StockCounts
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
			count(*) FILTER (WHERE quantity_in_stock = 0),
			count(*) FILTER (WHERE quantity_in_stock > 0 AND quantity_in_stock <= minimum_stock_level)
		FROM parts
		WHERE is_active
	`).Scan(&c.TotalActive, &c.OutOfStock, &c.LowStock)
	return c, err
}

func collectParts(rows pgx.Rows) ([]model.Part, error) {
	var parts []model.Part
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return parts, nil
}
