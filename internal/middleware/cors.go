package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors answers cross-origin requests from the origins allow accepts.
func Cors(allow func(origin string) bool) Middleware {
	options := cors.Options{
		AllowOriginFunc: allow,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
	}
	return cors.New(options).Handler
}
