package booking

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active statuses are the only ones that occupy a technician's time;
// conflicts are only checked against them.
func (s Status) Active() bool {
	return s == StatusScheduled || s == StatusInProgress
}

// CanTransition encodes the forward-only appointment state machine:
// scheduled -> in_progress -> completed, with cancelled and no_show as
// terminal exits available only from scheduled.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusScheduled:
		return to == StatusInProgress || to == StatusCancelled || to == StatusNoShow
	case StatusInProgress:
		return to == StatusCompleted
	}
	return false
}
