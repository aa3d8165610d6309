package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_Message(t *testing.T) {
	err := Validation("frequency", "unsupported value %q", "hourly")
	assert.Equal(t, `validation error: frequency - unsupported value "hourly"`, err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))

	bare := &ValidationError{Message: "definition is inactive"}
	assert.Equal(t, "validation error: definition is inactive", bare.Error())
}

func TestNotFoundError_Message(t *testing.T) {
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	err := NotFound("recurring job", id)
	assert.Equal(t, "recurring job not found: 550e8400-e29b-41d4-a716-446655440000", err.Error())
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", err)))

	assert.Equal(t, "client not found", NotFound("client", nil).Error())
}

func TestStorage_WrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Storage("create instance", cause)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create instance")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestStorage_NilCause(t *testing.T) {
	assert.NoError(t, Storage("noop", nil))
}

func TestStorage_DoesNotDoubleWrap(t *testing.T) {
	inner := Storage("inner", errors.New("boom"))
	outer := Storage("outer", inner)
	assert.Same(t, inner, outer)
}
