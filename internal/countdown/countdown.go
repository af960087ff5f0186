package countdown

import (
	"errors"
	"fmt"
	"time"
)

// Class is the urgency classification of a purchase order's delivery countdown.
type Class string

const (
	ClassNoDeadline Class = "no_deadline"
	ClassOverdue    Class = "overdue"
	ClassUrgent     Class = "urgent"
	ClassNormal     Class = "normal"
)

const (
	// DefaultTimeLimitHours applies when an order is created without an
	// explicit countdown limit.
	DefaultTimeLimitHours = 72
	MinTimeLimitHours     = 1
	MaxTimeLimitHours     = 168

	// UrgentWindow is the remaining-time threshold below which an order
	// counts as urgent. Exactly 24h remaining is still normal.
	UrgentWindow = 24 * time.Hour
)

var ErrTimeLimitOutOfRange = fmt.Errorf("custom time limit must be between %d and %d hours", MinTimeLimitHours, MaxTimeLimitHours)

func ValidateTimeLimit(hours int) error {
	if hours < MinTimeLimitHours || hours > MaxTimeLimitHours {
		return ErrTimeLimitOutOfRange
	}
	return nil
}

// Deadline derives the countdown end time from the immutable order date.
// Edits to the time limit recompute from the same order date, so changing
// the limit never drifts the deadline relative to when the edit happened.
func Deadline(orderDate time.Time, hours int) time.Time {
	return orderDate.Add(time.Duration(hours) * time.Hour)
}

// Classify is a pure function of the deadline and the evaluation instant.
// Callers re-evaluate on every read; the result is never cached.
func Classify(deadline *time.Time, now time.Time) Class {
	if deadline == nil {
		return ClassNoDeadline
	}
	remaining := deadline.Sub(now)
	switch {
	case remaining <= 0:
		return ClassOverdue
	case remaining < UrgentWindow:
		return ClassUrgent
	default:
		return ClassNormal
	}
}

// Status is the countdown payload attached to order representations,
// consumed by the dashboard's live countdown widget.
type Status struct {
	Class           Class  `json:"status"`
	TimeLeftSeconds int64  `json:"time_left"`
	Hours           int    `json:"hours"`
	Minutes         int    `json:"minutes"`
	Message         string `json:"message"`
}

// StatusAt returns nil when the order carries no deadline.
func StatusAt(deadline *time.Time, now time.Time) *Status {
	remaining, err := Remaining(deadline, now)
	if err != nil {
		return nil
	}
	if remaining <= 0 {
		return &Status{
			Class:   ClassOverdue,
			Message: "package is overdue",
		}
	}

	total := int64(remaining / time.Second)
	hours := int(total / 3600)
	minutes := int((total % 3600) / 60)
	return &Status{
		Class:           Classify(deadline, now),
		TimeLeftSeconds: total,
		Hours:           hours,
		Minutes:         minutes,
		Message:         fmt.Sprintf("%dh %dm remaining", hours, minutes),
	}
}

var errNoDeadline = errors.New("order has no countdown deadline")

// Remaining reports the time left until the deadline. Negative when overdue.
func Remaining(deadline *time.Time, now time.Time) (time.Duration, error) {
	if deadline == nil {
		return 0, errNoDeadline
	}
	return deadline.Sub(now), nil
}
