package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Expired, http.StatusGone},
		{StorageUnavailable, http.StatusInternalServerError},
		{Internal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(New(tc.kind, "boom")), string(tc.kind))
	}
}

func TestHTTPStatusUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(StorageUnavailable, "database unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StorageUnavailable, KindOf(err))
	assert.Equal(t, "database unreachable", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(Conflict, "already exists")
	outer := fmt.Errorf("saving offer: %w", inner)

	assert.Equal(t, Conflict, KindOf(outer))
	assert.True(t, Is(outer, Conflict))
	assert.False(t, Is(outer, NotFound))
}

func TestMessageOfPlainError(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(errors.New("secret detail")))
}
