package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrno_IsMatchesWrappedCopies(t *testing.T) {
	err := ErrUpstream.WithCause(New("connection refused"))

	assert.True(t, Is(err, ErrUpstream))
	assert.False(t, Is(err, ErrInvalidInput))
}

func TestErrno_WithMessageKeepsCode(t *testing.T) {
	err := ErrInvalidInput.WithMessage("question is required")

	assert.True(t, Is(err, ErrInvalidInput))
	assert.Contains(t, err.Error(), "question is required")
}

func TestErrno_WrappedThroughFmt(t *testing.T) {
	err := fmt.Errorf("loading index: %w", ErrUpstream)

	assert.True(t, Is(err, ErrUpstream))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestModelExhaustedError(t *testing.T) {
	err := &ModelExhaustedError{
		Models:  []string{"m1", "m2", "m3"},
		LastErr: New("empty completion"),
	}

	assert.True(t, Is(err, ErrModelExhausted))
	assert.Contains(t, err.Error(), "m1, m2, m3")
	assert.Contains(t, err.Error(), "empty completion")
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(err))

	var me *ModelExhaustedError
	assert.True(t, As(err, &me))
	assert.Equal(t, []string{"m1", "m2", "m3"}, me.Models)
}

func TestHTTPStatus_UnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(New("boom")))
}
