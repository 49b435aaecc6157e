package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"qwiktest/internal/pkg/validation"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{BadRequest("bad signature"), http.StatusBadRequest},
		{Validation("bad"), http.StatusUnprocessableEntity},
		{NotFound("missing"), http.StatusNotFound},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{Conflict("dup"), http.StatusConflict},
		{Internal("boom", nil), http.StatusInternalServerError},
		{External("gateway", nil), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestFrom_RecordNotFound(t *testing.T) {
	err := From(fmt.Errorf("load exam: %w", gorm.ErrRecordNotFound))

	assert.Equal(t, TypeNotFound, err.Type)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFrom_KeepsAppError(t *testing.T) {
	original := Conflict("slug already taken")
	wrapped := fmt.Errorf("create category: %w", original)

	assert.Same(t, original, From(wrapped))
	assert.True(t, Is(wrapped, TypeConflict))
	assert.False(t, Is(wrapped, TypeNotFound))
}

func TestFrom_ValidationErrors(t *testing.T) {
	type payload struct {
		Email string `json:"email" binding:"required,email"`
		Slug  string `json:"slug" binding:"slug"`
	}

	err := validation.Struct(payload{Email: "", Slug: "Not A Slug"})
	require.Error(t, err)

	appErr := From(err)
	assert.Equal(t, TypeValidation, appErr.Type)
	assert.Contains(t, appErr.Fields, "email")
	assert.Contains(t, appErr.Fields, "slug")
}

func TestFrom_Unknown(t *testing.T) {
	cause := errors.New("disk on fire")
	appErr := From(cause)

	assert.Equal(t, TypeInternal, appErr.Type)
	assert.Equal(t, "internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, From(nil))
}
