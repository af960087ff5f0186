package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bluezpowerhouse/autoshop/libs/auth"
)

func signTestToken(t *testing.T, role, secret string) string {
	t.Helper()
	now := time.Now().UTC()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "00000000-0000-0000-0000-000000000001",
		Username: "tester",
		Role:     role,
		Iat:      now.Unix(),
		Exp:      now.Add(time.Hour).Unix(),
	}, secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestRequireAuth_MissingToken(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()
	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_BadSignature(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Fatal("next handler should not run")
	})

	token := signTestToken(t, "employee", "other-secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAuth_StoresClaims(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", time.Hour)
	var gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		gotRole = claims.Role
	})

	token := signTestToken(t, "manager", "secret")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.RequireAuth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotRole != "manager" {
		t.Fatalf("expected role manager, got %q", gotRole)
	}
}

func TestRequireRole(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", time.Hour)
	var ran bool
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { ran = true })
	protected := h.RequireAuth(RequireRole("manager")(next))

	cases := []struct {
		role string
		want int
	}{
		{"manager", http.StatusOK},
		{"admin", http.StatusOK},
		{"employee", http.StatusForbidden},
	}
	for _, tc := range cases {
		ran = false
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/confirm", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, tc.role, "secret"))
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Fatalf("role %s: expected %d, got %d", tc.role, tc.want, rec.Code)
		}
		if tc.want == http.StatusOK && !ran {
			t.Fatalf("role %s: handler did not run", tc.role)
		}
		if tc.want != http.StatusOK && ran {
			t.Fatalf("role %s: handler ran but should not", tc.role)
		}
	}
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	h := NewAuthHandler(nil, testLogger(), "secret", time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
