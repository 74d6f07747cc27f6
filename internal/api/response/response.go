// Package response provides utilities for sending consistent HTTP responses.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every non-2xx JSON response.
// Details is optional and carries the underlying error text.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// If data is nil, only the status code is sent.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Warn("failed to encode JSON response")
		}
	}
}

// RespondError sends a structured error response with the given status code.
//
// Example:
//
//	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
func RespondError(w http.ResponseWriter, status int, message string, details any) {
	RespondJSON(w, status, ErrorResponse{
		Error:   message,
		Details: details,
	})
}
