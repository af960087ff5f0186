package booking

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 4, 6, hour, min, 0, 0, time.UTC)
}

func TestOverlapsHalfOpen(t *testing.T) {
	// [10:00,11:00) vs [10:30,11:30) overlap.
	if !Overlaps(at(10, 0), at(11, 0), at(10, 30), at(11, 30)) {
		t.Fatal("expected overlap")
	}
	// Adjacent intervals do not conflict: [10:00,11:00) vs [11:00,12:00).
	if Overlaps(at(10, 0), at(11, 0), at(11, 0), at(12, 0)) {
		t.Fatal("adjacent intervals must not overlap")
	}
	if Overlaps(at(11, 0), at(12, 0), at(10, 0), at(11, 0)) {
		t.Fatal("adjacent intervals must not overlap (reversed)")
	}
	// Containment overlaps both ways.
	if !Overlaps(at(9, 0), at(17, 0), at(10, 0), at(11, 0)) {
		t.Fatal("containing interval should overlap")
	}
	if !Overlaps(at(10, 0), at(11, 0), at(9, 0), at(17, 0)) {
		t.Fatal("contained interval should overlap")
	}
	// Symmetry: Overlaps(a, b) == Overlaps(b, a).
	if Overlaps(at(10, 0), at(11, 0), at(12, 0), at(13, 0)) {
		t.Fatal("disjoint intervals must not overlap")
	}
}

func TestHasConflict(t *testing.T) {
	busy := []Interval{
		{Start: at(10, 0), End: at(11, 0)},
		{Start: at(14, 0), End: at(15, 30)},
	}
	if !HasConflict(busy, at(10, 30), at(11, 30)) {
		t.Fatal("expected conflict with 10:00-11:00 booking")
	}
	if HasConflict(busy, at(11, 0), at(12, 0)) {
		t.Fatal("11:00-12:00 is adjacent, not conflicting")
	}
	if HasConflict(busy, at(12, 0), at(14, 0)) {
		t.Fatal("12:00-14:00 should be free")
	}
	if HasConflict(nil, at(10, 0), at(11, 0)) {
		t.Fatal("no busy intervals means no conflict")
	}
}

func TestStatusMachine(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusScheduled, StatusInProgress},
		{StatusScheduled, StatusCancelled},
		{StatusScheduled, StatusNoShow},
		{StatusInProgress, StatusCompleted},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s to be allowed", tr.from, tr.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusInProgress, StatusScheduled},
		{StatusInProgress, StatusCancelled},
		{StatusCompleted, StatusInProgress},
		{StatusCancelled, StatusScheduled},
		{StatusNoShow, StatusScheduled},
		{StatusScheduled, StatusCompleted},
	}
	for _, tr := range denied {
		if CanTransition(tr.from, tr.to) {
			t.Fatalf("expected %s -> %s to be rejected", tr.from, tr.to)
		}
	}
}

func TestActiveStatuses(t *testing.T) {
	if !StatusScheduled.Active() || !StatusInProgress.Active() {
		t.Fatal("scheduled and in_progress must count as active")
	}
	for _, s := range []Status{StatusCompleted, StatusCancelled, StatusNoShow} {
		if s.Active() {
			t.Fatalf("%s must not count as active", s)
		}
	}
}
