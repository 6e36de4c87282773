package handlers

import (
	"errors"
	"net/http"
)

// apiError is a failure with a client-facing status and message.
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func fail(status int, msg string) error {
	return &apiError{status: status, msg: msg}
}

var (
	errActivityNotFound = fail(http.StatusNotFound, "Activity not found")
	errUserNotFound     = fail(http.StatusNotFound, "User not found")
	errInvalidAmount    = fail(http.StatusBadRequest, "Valid amount is required")
	errInsufficient     = fail(http.StatusBadRequest, "Insufficient points")
)

// respondErr writes an apiError as-is and anything else as a 500.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.status, apiErr.msg)
		return
	}
	internalError(w, r, err)
}
