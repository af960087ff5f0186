package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestAppointmentHandler() *AppointmentHandler {
	return NewAppointmentHandler(nil, nil, nil, nil, nil, testLogger(), 24*time.Hour)
}

func TestCreateAppointment_Validation(t *testing.T) {
	h := newTestAppointmentHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"title":"  ","type":"repair","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`},
		{"bad type", `{"title":"Brake job","type":"party","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`},
		{"bad start", `{"title":"Brake job","start_time":"yesterday","end_time":"2026-09-01T10:00:00Z"}`},
		{"end before start", `{"title":"Brake job","start_time":"2026-09-01T10:00:00Z","end_time":"2026-09-01T09:00:00Z"}`},
		{"zero length", `{"title":"Brake job","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T09:00:00Z"}`},
		{"bad required part", `{"title":"Brake job","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z","required_parts":[{"part_id":"","quantity":1}]}`},
		{"customer without name", `{"title":"Brake job","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z","customer":{"phone":"555"}}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/appointments", tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestCreateAppointment_RequiresAuth(t *testing.T) {
	h := newTestAppointmentHandler()
	body := `{"title":"Brake job","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Create(rec, postJSON("/api/v1/appointments", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}

func TestUpdateAppointment_RequiresID(t *testing.T) {
	h := newTestAppointmentHandler()
	body := `{"title":"Brake job","start_time":"2026-09-01T09:00:00Z","end_time":"2026-09-01T10:00:00Z"}`
	rec := httptest.NewRecorder()
	h.Update(rec, postJSON("/api/v1/appointments/update", body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without appointment_id, got %d", rec.Code)
	}
}

func TestAppointmentActions_RequireID(t *testing.T) {
	h := newTestAppointmentHandler()

	actions := map[string]http.HandlerFunc{
		"start":    h.Start,
		"complete": h.Complete,
		"cancel":   h.Cancel,
		"no-show":  h.NoShow,
	}
	for name, action := range actions {
		rec := httptest.NewRecorder()
		action(rec, postJSON("/api/v1/appointments/"+name, `{"appointment_id":" "}`))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestAppointmentList_RejectsBadFilters(t *testing.T) {
	h := newTestAppointmentHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?status=bogus", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/appointments?from=notatime", nil)
	rec = httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad from: expected 400, got %d", rec.Code)
	}
}

func TestAppointmentGet_RequiresID(t *testing.T) {
	h := newTestAppointmentHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/get", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without id, got %d", rec.Code)
	}
}
