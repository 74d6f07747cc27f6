package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORS allows the frontend origins to call the API with the identity
// header and to read the filename of exported workbooks.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "Authorization", UserIDHeader, "X-API-Key", "X-Time-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
