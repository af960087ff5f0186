package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bluezpowerhouse/autoshop/internal/model"
	"github.com/bluezpowerhouse/autoshop/libs/auth"
)

func newTestShopHandler() *ShopHandler {
	return NewShopHandler(nil, testLogger())
}

func withRole(r *http.Request, role string) *http.Request {
	claims := &auth.Claims{Sub: "user-1", Username: "tester", Role: role}
	return r.WithContext(context.WithValue(r.Context(), claimsKey, claims))
}

func putJSON(path, body string) *http.Request {
	req := postJSON(path, body)
	req.Method = http.MethodPut
	return req
}

func TestShopInfo_MethodNotAllowed(t *testing.T) {
	h := newTestShopHandler()
	rec := httptest.NewRecorder()
	h.Info(rec, postJSON("/api/v1/shop/info", `{}`))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", rec.Code)
	}
}

func TestUpdateShopInfo_RequiresAuth(t *testing.T) {
	h := newTestShopHandler()
	rec := httptest.NewRecorder()
	h.Info(rec, putJSON("/api/v1/shop/info", `{"name":"Bluez PowerHouse"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without claims, got %d", rec.Code)
	}
}

func TestUpdateShopInfo_RequiresAdmin(t *testing.T) {
	h := newTestShopHandler()
	for _, role := range []string{model.RoleManager, model.RoleEmployee} {
		rec := httptest.NewRecorder()
		h.Info(rec, withRole(putJSON("/api/v1/shop/info", `{"name":"Bluez PowerHouse"}`), role))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", role, rec.Code)
		}
	}
}

func TestUpdateShopInfo_Validation(t *testing.T) {
	h := newTestShopHandler()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{"name":`},
		{"blank name", `{"name":"   "}`},
		{"contact_info not object", `{"contact_info":["555-0100"]}`},
		{"settings not object", `{"settings":"USD"}`},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.Info(rec, withRole(putJSON("/api/v1/shop/info", tc.body), model.RoleAdmin))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}
