package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromKeepsAppError(t *testing.T) {
	orig := NotFound("post not found")
	wrapped := fmt.Errorf("load post: %w", orig)

	got := From(wrapped)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.Equal(t, CodeNotFound, got.Code)
	assert.Equal(t, "post not found", got.Message)
}

func TestFromDefaultsToInternal(t *testing.T) {
	cause := errors.New("connection reset")
	got := From(cause)

	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, cause)
}

func TestWrapDoesNotMutateShared(t *testing.T) {
	base := Conflict("username taken")
	wrapped := base.Wrap(errors.New("pq: duplicate key"))

	assert.Equal(t, "username taken", base.Error())
	assert.Equal(t, "username taken: pq: duplicate key", wrapped.Error())
	assert.Equal(t, CodeConflict, wrapped.Code)
}
