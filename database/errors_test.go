package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_requests_active_unique",
	}

	assert.True(t, IsUniqueViolation(uniqueErr, "idx_requests_active_unique"))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert failed: %w", uniqueErr), "idx_requests_active_unique"))

	// Any unique violation matches when no constraint is named.
	assert.True(t, IsUniqueViolation(uniqueErr, ""))

	assert.False(t, IsUniqueViolation(uniqueErr, "users_username_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, "idx_requests_active_unique"))
	assert.False(t, IsUniqueViolation(errors.New("plain error"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}
