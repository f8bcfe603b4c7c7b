package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestWrapContention(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
	}{
		{"40001", true},
		{"40P01", true},
		{"55P03", true},
		{"23505", false},
		{"42601", false},
	}

	for _, tt := range tests {
		pqErr := &pq.Error{Code: pq.ErrorCode(tt.code), Message: "boom"}
		err := wrapContention(fmt.Errorf("executing: %w", pqErr))

		if got := errors.Is(err, ErrContention); got != tt.retryable {
			t.Fatalf("code %s: retryable=%v, expected %v", tt.code, got, tt.retryable)
		}
	}
}

func TestWrapContentionPlainError(t *testing.T) {
	plain := errors.New("business rule violated")
	if err := wrapContention(plain); !errors.Is(err, plain) {
		t.Fatal("non-pq errors must pass through unchanged")
	}
}
