package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDetail(t *testing.T) {
	detailed := ErrNotFound.WithDetail("request not found")

	assert.Equal(t, "not_found", detailed.Code)
	assert.Equal(t, "request not found", detailed.Detail)
	assert.Equal(t, "Not found: request not found", detailed.Error())

	// The sentinel itself is untouched.
	assert.Empty(t, ErrNotFound.Detail)
}

func TestIsMatchesByCode(t *testing.T) {
	detailed := ErrInvalidTransition.WithDetail("cannot move request from denied to fulfilled")

	assert.ErrorIs(t, detailed, ErrInvalidTransition)
	assert.NotErrorIs(t, detailed, ErrForbidden)

	wrapped := fmt.Errorf("transition failed: %w", detailed)
	assert.ErrorIs(t, wrapped, ErrInvalidTransition)

	assert.NotErrorIs(t, errors.New("invalid_transition"), ErrInvalidTransition)
}
