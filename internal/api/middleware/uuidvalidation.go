// Package middleware provides HTTP middleware for identity, authentication
// and request validation.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/apperrors"
	"github.com/ndewijer/Capital-Gains-Tax-Backend/internal/validation"
)

// ValidateUUIDMiddleware validates that the uuid URL parameter is present and
// is a valid UUID. Returns 400 Bad Request otherwise.
//
// Example usage in router:
//
//	r.Route("/{uuid}", func(r chi.Router) {
//	    r.Use(middleware.ValidateUUIDMiddleware)
//	    r.Get("/", handler.GetTransaction)
//	})
func ValidateUUIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "uuid")

		if id == "" {
			response.RespondError(w, http.StatusBadRequest, "valid UUID is required", "")
			return
		}

		if err := validation.ValidateUUID(id); err != nil {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidUUID.Error(), err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
