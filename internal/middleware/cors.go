package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS allows the read-only API to be called from allowedOrigins. "*"
// allows any origin.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         600,
	})
	return c.Handler(next)
}
