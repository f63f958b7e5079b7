package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		got := Wrap(fmt.Errorf("dial tcp: refused"), "STORE_ERROR", "Store unavailable", http.StatusBadGateway)
		assert.Equal(t, "STORE_ERROR", got.Code)
		assert.Equal(t, http.StatusBadGateway, got.Status)
		assert.Equal(t, "dial tcp: refused", got.Details)
	})

	t.Run("api error passes through", func(t *testing.T) {
		got := Wrap(ErrNotFound, "OTHER", "Other", http.StatusTeapot)
		assert.Same(t, ErrNotFound, got)
	})

	t.Run("wrapped api error is unwrapped", func(t *testing.T) {
		got := Wrap(fmt.Errorf("lookup: %w", ErrNoLocation), "OTHER", "Other", http.StatusTeapot)
		assert.Same(t, ErrNoLocation, got)
	})
}

func TestWithDetailsCopies(t *testing.T) {
	got := ErrInvalidInput.WithDetails("lat: not a number")

	assert.Equal(t, "lat: not a number", got.Details)
	assert.Empty(t, ErrInvalidInput.Details)
	assert.Equal(t, "INVALID_INPUT: Invalid request data", got.Error())
}
