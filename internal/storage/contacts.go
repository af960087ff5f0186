package storage

import (
	"context"
	"strconv"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/db"
	"github.com/jackc/pgx/v5"
)

type ContactRepository struct {
	pool *db.Pool
}

func NewContactRepository(pool *db.Pool) *ContactRepository {
	return &ContactRepository{pool: pool}
}

const contactColumns = `
	id, name, COALESCE(company, ''), type, COALESCE(email, ''), COALESCE(phone, ''),
	COALESCE(mobile, ''), COALESCE(street, ''), COALESCE(city, ''), COALESCE(state, ''),
	COALESCE(zip_code, ''), COALESCE(country, ''), payment_terms, rating,
	specialties, COALESCE(notes, ''), is_active, created_at, updated_at`

func scanContact(row rowScanner) (model.Contact, error) {
	var c model.Contact
	if err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Company,
		&c.Type,
		&c.Email,
		&c.Phone,
		&c.Mobile,
		&c.Street,
		&c.City,
		&c.State,
		&c.ZipCode,
		&c.Country,
		&c.PaymentTerms,
		&c.Rating,
		&c.Specialties,
		&c.Notes,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return model.Contact{}, err
	}
	return c, nil
}

func (r *ContactRepository) Create(ctx context.Context, c *model.Contact) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts
			(name, company, type, email, phone, mobile, street, city, state,
			 zip_code, country, payment_terms, rating, specialties, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, c.Name, c.Company, c.Type, c.Email, c.Phone, c.Mobile, c.Street, c.City,
		c.State, c.ZipCode, c.Country, c.PaymentTerms, c.Rating, c.Specialties, c.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ContactRepository) Update(ctx context.Context, c *model.Contact) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE contacts
		SET name = $2,
			company = $3,
			type = $4,
			email = $5,
			phone = $6,
			mobile = $7,
			street = $8,
			city = $9,
			state = $10,
			zip_code = $11,
			country = $12,
			payment_terms = $13,
			rating = $14,
			specialties = $15,
			notes = $16,
			updated_at = now()
		WHERE id = $1
	`, c.ID, c.Name, c.Company, c.Type, c.Email, c.Phone, c.Mobile, c.Street,
		c.City, c.State, c.ZipCode, c.Country, c.PaymentTerms, c.Rating,
		c.Specialties, c.Notes)
	return err
}

func (r *ContactRepository) Get(ctx context.Context, id string) (model.Contact, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
	return scanContact(row)
}

func (r *ContactRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1 AND is_active)`, id).Scan(&exists)
	return exists, err
}

func (r *ContactRepository) List(ctx context.Context, contactType string, limit, offset int) ([]model.Contact, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE is_active`
	args := []any{}
	if contactType != "" {
		args = append(args, contactType)
		query += ` AND type = $` + strconv.Itoa(len(args))
	}
	args = append(args, limit, offset)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return contacts, nil
}

func (r *ContactRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts
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

func (r *ContactRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE is_active`).Scan(&n)
	return n, err
}
