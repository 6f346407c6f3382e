package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsLockNotAvailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"55P03 directo", &pgconn.PgError{Code: "55P03"}, true},
		{"55P03 envuelto", fmt.Errorf("get inventory item: %w", &pgconn.PgError{Code: "55P03"}), true},
		{"otro código pg", &pgconn.PgError{Code: "23505"}, false},
		{"error cualquiera", errors.New("conexión perdida"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isLockNotAvailable(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"23505 directo", &pgconn.PgError{Code: "23505"}, true},
		{"23505 envuelto", fmt.Errorf("create transaction: %w", &pgconn.PgError{Code: "23505"}), true},
		{"otro código pg", &pgconn.PgError{Code: "55P03"}, false},
		{"error cualquiera", errors.New("conexión perdida"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}
