// Package handlers adapts HTTP requests to the service layer. Handlers parse
// and validate input, delegate to a service and map the outcome to a status.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/middleware"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/validation"
)

const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T, rejecting unknown fields and
// bodies over 1 MiB.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is empty")
		}
		return v, fmt.Errorf("malformed JSON: %w", err)
	}
	return v, nil
}

// userID returns the identity stored by middleware.RequireUserID.
func userID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, apperrors.ErrInvalidPeriod),
		errors.Is(err, apperrors.ErrInvalidCategory),
		errors.Is(err, apperrors.ErrInvalidAssetClass),
		errors.Is(err, apperrors.ErrInvalidReportScope),
		errors.Is(err, apperrors.ErrInvalidUUID),
		errors.Is(err, apperrors.ErrAssetClassMismatch):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrAssetNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrLiabilityNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConcurrentRecompute):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrRenderFailed),
		errors.Is(err, apperrors.ErrArtifactStoreFailed),
		errors.Is(err, apperrors.ErrNotificationFailed),
		errors.Is(err, apperrors.ErrQuoteUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with the status chosen by statusFor. message
// is used for 500s; other statuses report the matched sentinel instead.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		var verr *validation.Error
		if errors.As(err, &verr) {
			response.RespondError(w, status, "validation failed", verr.Fields)
			return
		}
		message = http.StatusText(status)
		if sentinel := sentinelOf(err); sentinel != nil {
			message = sentinel.Error()
		}
	}
	response.RespondError(w, status, message, err.Error())
}

var sentinels = []error{
	apperrors.ErrInvalidPeriod,
	apperrors.ErrInvalidCategory,
	apperrors.ErrInvalidAssetClass,
	apperrors.ErrInvalidReportScope,
	apperrors.ErrInvalidUUID,
	apperrors.ErrAssetClassMismatch,
	apperrors.ErrUserNotFound,
	apperrors.ErrAssetNotFound,
	apperrors.ErrTransactionNotFound,
	apperrors.ErrLiabilityNotFound,
	apperrors.ErrConcurrentRecompute,
	apperrors.ErrRenderFailed,
	apperrors.ErrArtifactStoreFailed,
	apperrors.ErrNotificationFailed,
	apperrors.ErrQuoteUnavailable,
}

func sentinelOf(err error) error {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s
		}
	}
	return nil
}
