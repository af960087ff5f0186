package countdown

import (
	"testing"
	"time"
)

func TestDeadlineExact(t *testing.T) {
	orderDate := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	deadline := Deadline(orderDate, 72)
	want := orderDate.Add(72 * time.Hour)
	if !deadline.Equal(want) {
		t.Fatalf("expected %s, got %s", want, deadline)
	}
	// Millisecond-precision order dates carry through unchanged.
	orderDate = orderDate.Add(123 * time.Millisecond)
	if got := Deadline(orderDate, 1); !got.Equal(orderDate.Add(time.Hour)) {
		t.Fatalf("sub-second precision lost: %s", got)
	}
}

func TestValidateTimeLimit(t *testing.T) {
	for _, hours := range []int{1, 72, 168} {
		if err := ValidateTimeLimit(hours); err != nil {
			t.Fatalf("expected %d hours to be valid: %v", hours, err)
		}
	}
	for _, hours := range []int{0, -5, 169, 1000} {
		if err := ValidateTimeLimit(hours); err == nil {
			t.Fatalf("expected %d hours to be rejected", hours)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if got := Classify(nil, now); got != ClassNoDeadline {
		t.Fatalf("nil deadline: expected no_deadline, got %s", got)
	}

	// remaining == 0 is overdue, not urgent.
	deadline := now
	if got := Classify(&deadline, now); got != ClassOverdue {
		t.Fatalf("zero remaining: expected overdue, got %s", got)
	}

	deadline = now.Add(-time.Second)
	if got := Classify(&deadline, now); got != ClassOverdue {
		t.Fatalf("past deadline: expected overdue, got %s", got)
	}

	deadline = now.Add(time.Second)
	if got := Classify(&deadline, now); got != ClassUrgent {
		t.Fatalf("1s remaining: expected urgent, got %s", got)
	}

	// remaining == 24h is normal, not urgent.
	deadline = now.Add(24 * time.Hour)
	if got := Classify(&deadline, now); got != ClassNormal {
		t.Fatalf("exactly 24h remaining: expected normal, got %s", got)
	}

	deadline = now.Add(24*time.Hour - time.Minute)
	if got := Classify(&deadline, now); got != ClassUrgent {
		t.Fatalf("23h59m remaining: expected urgent, got %s", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(3 * time.Hour)
	first := Classify(&deadline, now)
	for i := 0; i < 5; i++ {
		if got := Classify(&deadline, now); got != first {
			t.Fatalf("classification changed between calls: %s vs %s", first, got)
		}
	}
}

func TestScenarioSeventyTwoHourOrder(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	deadline := Deadline(t0, 72)
	if !deadline.Equal(t0.Add(72 * time.Hour)) {
		t.Fatalf("expected T0+72h, got %s", deadline)
	}

	if got := Classify(&deadline, t0.Add(71*time.Hour)); got != ClassUrgent {
		t.Fatalf("at T0+71h: expected urgent, got %s", got)
	}
	if got := Classify(&deadline, t0.Add(73*time.Hour)); got != ClassOverdue {
		t.Fatalf("at T0+73h: expected overdue, got %s", got)
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if _, err := Remaining(nil, now); err == nil {
		t.Fatal("expected error without deadline")
	}

	deadline := now.Add(90 * time.Minute)
	d, err := Remaining(&deadline, now)
	if err != nil {
		t.Fatalf("Remaining failed: %v", err)
	}
	if d != 90*time.Minute {
		t.Fatalf("expected 90m remaining, got %s", d)
	}

	deadline = now.Add(-time.Hour)
	d, err = Remaining(&deadline, now)
	if err != nil {
		t.Fatalf("Remaining failed: %v", err)
	}
	if d != -time.Hour {
		t.Fatalf("expected -1h for an overdue deadline, got %s", d)
	}
}

func TestStatusAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	if got := StatusAt(nil, now); got != nil {
		t.Fatalf("expected nil status without deadline, got %+v", got)
	}

	deadline := now.Add(25*time.Hour + 30*time.Minute)
	st := StatusAt(&deadline, now)
	if st == nil {
		t.Fatal("expected status")
	}
	if st.Class != ClassNormal {
		t.Fatalf("expected normal, got %s", st.Class)
	}
	if st.Hours != 25 || st.Minutes != 30 {
		t.Fatalf("expected 25h 30m, got %dh %dm", st.Hours, st.Minutes)
	}

	deadline = now.Add(-time.Hour)
	st = StatusAt(&deadline, now)
	if st == nil || st.Class != ClassOverdue {
		t.Fatalf("expected overdue status, got %+v", st)
	}
	if st.TimeLeftSeconds != 0 {
		t.Fatalf("overdue time_left should be zero, got %d", st.TimeLeftSeconds)
	}
}
