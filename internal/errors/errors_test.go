package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, ErrCodeInternal, "saving customer")

	assert.Equal(t, "saving customer: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := NotFound("customer not found")
	assert.Equal(t, "customer not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

func TestCodeMatching(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("x")))
	assert.True(t, IsConflict(Conflict("x")))
	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsUnauthorized(Unauthorized("x")))
	assert.True(t, IsInternal(Internal("x")))

	assert.False(t, IsNotFound(Conflict("x")))
	assert.False(t, IsConflict(stderrors.New("plain")))
}

func TestCodeMatchingThroughWrapping(t *testing.T) {
	inner := NotFoundf("customer %q not found", "a@b.com")
	outer := fmt.Errorf("lookup: %w", inner)

	assert.True(t, IsNotFound(outer))
	assert.Equal(t, ErrCodeNotFound, GetCode(outer))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("email", "email is required")
	require.True(t, IsValidation(err))
	assert.Equal(t, "email", GetField(err))
	assert.Empty(t, GetField(stderrors.New("plain")))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "ignored %d", 1))
}
