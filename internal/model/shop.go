package model

import (
	"encoding/json"
	"time"
)

// ShopInfo is the single row describing the shop itself. Migrations seed it,
// so reads never miss. Contact, business and settings blobs stay free-form
// JSON; the frontend owns their shape.
type ShopInfo struct {
	Name         string
	Street       string
	City         string
	State        string
	ZipCode      string
	Country      string
	ContactInfo  json.RawMessage
	BusinessInfo json.RawMessage
	Settings     json.RawMessage
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s ShopInfo) FullAddress() string {
	return s.Street + ", " + s.City + ", " + s.State + " " + s.ZipCode
}
