package storage

import (
	"context"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/db"
)

// ShopRepository reads and writes the singleton shop_info row.
type ShopRepository struct {
	pool *db.Pool
}

func NewShopRepository(pool *db.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

func (r *ShopRepository) Get(ctx context.Context) (model.ShopInfo, error) {
	var s model.ShopInfo
	err := r.pool.QueryRow(ctx, `
		SELECT name, street, city, state, zip_code, country,
			contact_info, business_info, settings, created_at, updated_at
		FROM shop_info
		WHERE id = 1
	`).Scan(
		&s.Name,
		&s.Street,
		&s.City,
		&s.State,
		&s.ZipCode,
		&s.Country,
		&s.ContactInfo,
		&s.BusinessInfo,
		&s.Settings,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *ShopRepository) Update(ctx context.Context, s model.ShopInfo) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE shop_info
		SET name = $1,
			street = $2,
			city = $3,
			state = $4,
			zip_code = $5,
			country = $6,
			contact_info = $7,
			business_info = $8,
			settings = $9,
			updated_at = now()
		WHERE id = 1
	`, s.Name, s.Street, s.City, s.State, s.ZipCode, s.Country,
		s.ContactInfo, s.BusinessInfo, s.Settings)
	return err
}
