package model

import "time"

type StockStatus string

const (
	StockOut StockStatus = "out_of_stock"
	StockLow StockStatus = "low_stock"
	StockIn  StockStatus = "in_stock"
)

type Part struct {
	ID                string
	PartNumber        string
	Name              string
	Description       string
	Category          string
	Brand             string
	Price             float64
	Cost              float64
	QuantityInStock   int
	MinimumStockLevel int
	SupplierContactID *string
	Warehouse         string
	Shelf             string
	Bin               string
	IsActive          bool
	LastRestocked     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (p Part) StockStatus() StockStatus {
	switch {
	case p.QuantityInStock == 0:
		return StockOut
	case p.QuantityInStock <= p.MinimumStockLevel:
		return StockLow
	default:
		return StockIn
	}
}

// ProfitMargin is the markup over cost as a percentage, zero when cost is unknown.
func (p Part) ProfitMargin() float64 {
	if p.Cost <= 0 {
		return 0
	}
	return (p.Price - p.Cost) / p.Cost * 100
}

var PartCategories = []string{"engine", "brake", "transmission", "electrical", "body", "interior", "exhaust", "suspension", "other"}

func ValidPartCategory(c string) bool {
	for _, v := range PartCategories {
		if v == c {
			return true
		}
	}
	return false
}
