package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"tutormatch/internal/apperror"
)

func TestKinds(t *testing.T) {
	err := apperror.InvalidArgument("bad input for %s", "Mathematics")
	assert.True(t, apperror.IsInvalidArgument(err))
	assert.False(t, apperror.IsNotFound(err))
	assert.Equal(t, "bad input for Mathematics", err.Error())

	assert.True(t, apperror.IsNotFound(apperror.NotFound("Request not found")))
	assert.True(t, apperror.IsInvalidState(apperror.InvalidState("not pending")))
	assert.True(t, apperror.IsUnauthorized(apperror.Unauthorized("not the owner")))
}

func TestWrapping(t *testing.T) {
	cause := errors.New("row missing")
	err := apperror.Wrap(apperror.KindNotFound, cause, "Request not found")

	assert.True(t, apperror.IsNotFound(err))
	assert.ErrorIs(t, err, cause)

	// The kind survives further wrapping.
	wrapped := fmt.Errorf("cancel request: %w", err)
	assert.True(t, apperror.IsNotFound(wrapped))
}
