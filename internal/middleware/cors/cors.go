// Package cors opens the expenses API to browser pages served from other
// origins.
package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// New returns middleware allowing the given origins. "*" allows any.
func New(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	})
	return c.Handler
}
