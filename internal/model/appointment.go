package model

import "time"

// AppointmentCustomer is the customer block stored as jsonb on an appointment.
type AppointmentCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`
}

// RequiredPart ties an appointment to stock that will be consumed on completion.
type RequiredPart struct {
	PartID   string `json:"part_id"`
	Quantity int    `json:"quantity"`
}

// Cost is the labor/parts cost breakdown stored as jsonb.
type Cost struct {
	Labor float64 `json:"labor"`
	Parts float64 `json:"parts"`
	Total float64 `json:"total"`
}

type Appointment struct {
	ID            string
	Title         string
	Description   string
	Type          string
	Customer      *AppointmentCustomer
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	TechnicianID  *string
	RequiredParts []RequiredPart
	EstimatedCost *Cost
	ActualCost    *Cost
	Notes         string
	CancelledAt   *time.Time
	CancelReason  string
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

var AppointmentTypes = []string{"appointment", "maintenance", "repair", "inspection", "delivery", "meeting", "other"}

func ValidAppointmentType(t string) bool {
	for _, v := range AppointmentTypes {
		if v == t {
			return true
		}
	}
	return false
}
