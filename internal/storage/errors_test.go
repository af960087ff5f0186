package storage

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsConflict(t *testing.T) {
	if !IsConflict(&pgconn.PgError{Code: "23P01"}) {
		t.Fatal("exclusion violation must classify as conflict")
	}
	if !IsConflict(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("unique violation must classify as conflict")
	}
	if IsConflict(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign key violation must not classify as conflict")
	}
	if IsConflict(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)) {
		t.Fatal("no-rows must not classify as conflict")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(pgx.ErrNoRows) {
		t.Fatal("pgx.ErrNoRows must classify as not found")
	}
	if !IsNotFound(fmt.Errorf("get part: %w", pgx.ErrNoRows)) {
		t.Fatal("wrapped no-rows must classify as not found")
	}
	// A stock shortage is not a missing row; completion maps the two to
	// different responses.
	if IsNotFound(ErrInsufficientStock) {
		t.Fatal("insufficient stock must not classify as not found")
	}
}
