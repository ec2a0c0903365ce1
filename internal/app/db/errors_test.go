package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: BanEntriesUnique}

	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup), BanEntriesUnique))
	assert.False(t, IsUniqueViolation(dup, "other_constraint"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}

func TestIsMissingTable(t *testing.T) {
	assert.True(t, IsMissingTable(fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"})))
	assert.False(t, IsMissingTable(&pgconn.PgError{Code: "23505"}))
}
