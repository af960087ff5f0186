package model

import "time"

type Contact struct {
	ID           string
	Name         string
	Company      string
	Type         string
	Email        string
	Phone        string
	Mobile       string
	Street       string
	City         string
	State        string
	ZipCode      string
	Country      string
	PaymentTerms string
	Rating       int
	Specialties  []string
	Notes        string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

var ContactTypes = []string{"supplier", "customer", "vendor", "distributor"}

func ValidContactType(t string) bool {
	for _, v := range ContactTypes {
		if v == t {
			return true
		}
	}
	return false
}

var PaymentTerms = []string{"net_15", "net_30", "net_45", "net_60", "cash_on_delivery", "prepaid"}

func ValidPaymentTerms(t string) bool {
	for _, v := range PaymentTerms {
		if v == t {
			return true
		}
	}
	return false
}
