package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		status   int
		code     string
	}{
		{"not found", NotFound("inventory item"), ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"bad request", BadRequest("action is required"), ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
		{"forbidden", Forbidden("missing permission inventory.adjust"), ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"conflict", Conflict("sku already exists"), ErrConflict, http.StatusConflict, "CONFLICT"},
		{"internal", Internal("boom"), ErrInternal, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"validation", Validation(map[string]string{"sku": "this field is required"}), ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"insufficient stock", InsufficientStock("5", "8"), ErrBadRequest, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.status, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	assert.Equal(t, "inventory item not found: resource not found", NotFound("inventory item").Error())
}

func TestInsufficientStock_Details(t *testing.T) {
	err := InsufficientStock("5", "8")
	assert.Equal(t, "5", err.Details["available"])
	assert.Equal(t, "8", err.Details["requested"])
	assert.Contains(t, err.Message, "available 5, requested 8")
}

func TestAs_WrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("loading item: %w", NotFound("inventory item"))

	var appErr *AppError
	assert.True(t, As(wrapped, &appErr))
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
	assert.True(t, Is(wrapped, ErrNotFound))
}
