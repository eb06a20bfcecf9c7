package httpCors

import (
	"net/http"

	"github.com/rs/cors"

	"careerhub-backend/config"
)

// CorsSettings builds the CORS middleware for the configured origins.
// Credentials are only allowed when origins are listed explicitly.
func CorsSettings(c config.CORSConfig) *cors.Cors {
	origins := c.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		AllowedOrigins:   origins,
		AllowCredentials: !wildcard,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"Authorization", "X-Request-ID", "Content-Disposition"},
		MaxAge:           600,
		Debug:            c.Debug,
	})
}
