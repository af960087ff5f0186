package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bluezpowerhouse/autoshop/internal/countdown"
	"github.com/bluezpowerhouse/autoshop/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCreateOrder_SupplierValidation(t *testing.T) {
	h := NewOrderHandler(nil, nil, nil, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"no supplier", `{"parts":[{"name":"oil filter","quantity":1,"unit_price":9.5}]}`},
		{"both suppliers", `{"supplier_contact_id":"abc","custom_supplier":{"name":"ACME"},"parts":[{"name":"oil filter","quantity":1,"unit_price":9.5}]}`},
		{"inline without name", `{"custom_supplier":{"company":"ACME"},"parts":[{"name":"oil filter","quantity":1,"unit_price":9.5}]}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/orders", tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestCreateOrder_PartsValidation(t *testing.T) {
	h := NewOrderHandler(nil, nil, nil, testLogger())

	cases := []struct {
		name string
		body string
	}{
		{"no parts", `{"custom_supplier":{"name":"ACME"},"parts":[]}`},
		{"zero quantity", `{"custom_supplier":{"name":"ACME"},"parts":[{"name":"pads","quantity":0,"unit_price":1}]}`},
		{"negative price", `{"custom_supplier":{"name":"ACME"},"parts":[{"name":"pads","quantity":1,"unit_price":-1}]}`},
		{"unnamed part", `{"custom_supplier":{"name":"ACME"},"parts":[{"name":"  ","quantity":1,"unit_price":1}]}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/orders", tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestCreateOrder_TimeLimitValidation(t *testing.T) {
	h := NewOrderHandler(nil, nil, nil, testLogger())

	for _, hours := range []int{-1, 169, 500} {
		body := `{"custom_supplier":{"name":"ACME"},"parts":[{"name":"pads","quantity":1,"unit_price":1}],"custom_time_limit_hours":` + strconv.Itoa(hours) + `}`
		rec := httptest.NewRecorder()
		h.Create(rec, postJSON("/api/v1/orders", body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("hours=%d: expected 400, got %d", hours, rec.Code)
		}
	}
}

func TestCreateOrder_RequiresAuth(t *testing.T) {
	h := NewOrderHandler(nil, nil, nil, testLogger())
	body := `{"custom_supplier":{"name":"ACME"},"parts":[{"name":"pads","quantity":1,"unit_price":1}]}`
	rec := httptest.NewRecorder()
	h.Create(rec, postJSON("/api/v1/orders", body))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}

func TestOrderToItem_TerminalOrdersStopCounting(t *testing.T) {
	now := time.Now().UTC()
	deadline := now.Add(-time.Hour)
	o := model.Order{
		ID:               "o1",
		Status:           model.OrderDelivered,
		OrderDate:        now.Add(-72 * time.Hour),
		CountdownEndTime: &deadline,
	}

	item := orderToItem(o, now)
	if item.Countdown != nil {
		t.Fatalf("delivered order should carry no countdown, got %+v", item.Countdown)
	}

	o.Status = model.OrderShipped
	item = orderToItem(o, now)
	if item.Countdown == nil {
		t.Fatal("shipped order past deadline should carry a countdown block")
	}
	if item.Countdown.Class != countdown.ClassOverdue {
		t.Fatalf("expected overdue, got %s", item.Countdown.Class)
	}
}

func TestNewOrderNumber(t *testing.T) {
	at := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	n1 := newOrderNumber(at)
	n2 := newOrderNumber(at)
	if !strings.HasPrefix(n1, "ORD-20260831-") {
		t.Fatalf("unexpected order number format: %s", n1)
	}
	if n1 == n2 {
		t.Fatalf("order numbers should be unique, both %s", n1)
	}
}

func TestSetTimeLimit_Validation(t *testing.T) {
	h := NewOrderHandler(nil, nil, nil, testLogger())

	rec := httptest.NewRecorder()
	h.SetTimeLimit(rec, postJSON("/api/v1/orders/time-limit", `{"order_id":"","time_limit_hours":48}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing order_id: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.SetTimeLimit(rec, postJSON("/api/v1/orders/time-limit", `{"order_id":"o1","time_limit_hours":0}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero hours: expected 400, got %d", rec.Code)
	}
}
