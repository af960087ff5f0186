package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyHS256(t *testing.T) {
	secret := "test-secret"
	claims := Claims{
		Sub:      "user-1",
		Username: "manager",
		Role:     "manager",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	}

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Sub != claims.Sub || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignHS256(Claims{Sub: "user-1", Exp: time.Now().Add(time.Hour).Unix()}, "secret-a")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "secret-b"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := SignHS256(Claims{Sub: "user-1", Exp: time.Now().Add(-time.Minute).Unix()}, "secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "secret"); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}
