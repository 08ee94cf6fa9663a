package status

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictErrorsMatchErrConflict(t *testing.T) {
	for _, err := range []error{ErrSlugTaken, ErrEmailTaken, ErrInvalidTransition, ErrEventFull, ErrLastAdmin} {
		wrapped := fmt.Errorf("saving: %w", err)
		assert.True(t, errors.Is(wrapped, ErrConflict), err.Error())
		assert.True(t, errors.Is(wrapped, err))
	}
	assert.False(t, errors.Is(ErrNotFound, ErrConflict))
}

func TestValidation(t *testing.T) {
	assert.NoError(t, Validation(nil))

	err := Validation(validation.Errors{"name": validation.NewError("validation_required", "cannot be blank")})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Errors, "name")

	plain := errors.New("boom")
	assert.Equal(t, plain, Validation(plain))
}

func TestInvalid(t *testing.T) {
	err := Invalid("tour_id", "tour does not exist")

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.EqualError(t, verr.Errors["tour_id"], "tour does not exist")
}
