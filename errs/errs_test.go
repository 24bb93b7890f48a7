package errs

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApiErr_SentinelMatching(t *testing.T) {
	cases := []struct {
		err      *ApiErr
		sentinel error
		status   int
	}{
		{NewValidationError("bad field"), ErrValidationFailed, http.StatusBadRequest},
		{NewNotFound("project"), ErrNotFound, http.StatusNotFound},
		{NewInsufficientData("no examples"), ErrInsufficientData, http.StatusConflict},
		{NewInvalidTransition("draft", "testing"), ErrInvalidTransition, http.StatusConflict},
		{NewConflict("concurrent write"), ErrConflict, http.StatusConflict},
		{NewLimitExceeded("too many labels"), ErrLimitExceeded, http.StatusBadRequest},
		{NewDuplicateLabel("cats"), ErrDuplicateLabel, http.StatusConflict},
		{NewIndexOutOfRange("cats", 9, 2), ErrIndexOutOfRange, http.StatusBadRequest},
		{NewUnauthorizedError("bad token"), ErrUnauthorized, http.StatusUnauthorized},
		{NewPayloadTooLarge(100), ErrPayloadTooLarge, http.StatusBadRequest},
		{NewUnsupportedMediaType("image/gif", []string{"text/csv"}), ErrUnsupportedMediaType, http.StatusBadRequest},
		{NewInternalError("boom", errors.New("cause")), ErrInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.ErrorIs(t, tc.err, tc.sentinel)
		assert.Equal(t, tc.status, tc.err.StatusCode, tc.err.Error())
	}
}

func TestApiErr_GetFullError(t *testing.T) {
	inner := NewNotFound("project")
	outer := NewInternalError("lookup blew up", inner)

	assert.Equal(t, "internal server error -> project not found", outer.GetFullError())
	assert.Equal(t, "internal server error", outer.Error(), "the cause never leaks into the response")
}

func TestNewNotFound_MessageNamesEntity(t *testing.T) {
	err := NewNotFound("session")
	assert.Equal(t, "session not found", err.Error())
	assert.True(t, IsNotFound(err))
}
