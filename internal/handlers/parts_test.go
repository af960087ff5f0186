package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePart_Validation(t *testing.T) {
	h := NewPartHandler(nil, nil, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing part number", `{"name":"Oil filter"}`},
		{"missing name", `{"part_number":"OF-100"}`},
		{"bad category", `{"part_number":"OF-100","name":"Oil filter","category":"snacks"}`},
		{"negative price", `{"part_number":"OF-100","name":"Oil filter","price":-5}`},
		{"negative stock", `{"part_number":"OF-100","name":"Oil filter","quantity_in_stock":-1}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/parts", tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestRestock_Validation(t *testing.T) {
	h := NewPartHandler(nil, nil, testLogger())

	rec := httptest.NewRecorder()
	h.Restock(rec, postJSON("/api/v1/parts/restock", `{"part_id":"p1","quantity":0}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero quantity: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Restock(rec, postJSON("/api/v1/parts/restock", `{"quantity":5}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing part_id: expected 400, got %d", rec.Code)
	}
}

func TestCreateContact_Validation(t *testing.T) {
	h := NewContactHandler(nil, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"type":"supplier"}`},
		{"bad type", `{"name":"ACME","type":"friend"}`},
		{"bad payment terms", `{"name":"ACME","payment_terms":"iou"}`},
		{"rating too high", `{"name":"ACME","rating":6}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/contacts", tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestPartList_RejectsBadCategory(t *testing.T) {
	h := NewPartHandler(nil, nil, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/parts?category=snacks", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
