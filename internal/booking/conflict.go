package booking

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect: s1 < e2 && s2 < e1. Back-to-back intervals (e1 == s2) do not.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// HasConflict reports whether a candidate [start,end) interval overlaps any
// of the busy intervals for the same technician.
func HasConflict(busy []Interval, start, end time.Time) bool {
	for _, b := range busy {
		if Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}
