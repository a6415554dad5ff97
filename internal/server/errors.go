package server

import (
	"net/http"

	"github.com/matzehuels/stagegraph/pkg/errors"
)

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch {
	case code == errors.ErrCodeNotFound, code == errors.ErrCodeNodeNotFound,
		code == errors.ErrCodeFileNotFound, code == errors.ErrCodeSessionNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case code == errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.IsClientError(code):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as JSON. Internal errors are reported without
// their cause.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}
