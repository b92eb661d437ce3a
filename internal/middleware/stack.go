// Package middleware provides HTTP middleware for the API server.
package middleware

import "net/http"

// Stack combines multiple middleware into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	public := Stack(cors.Handler, leadLimit.Limit)
//	mux.Handle("POST /api/leads", public(leadHandler))
//
// This is equivalent to:
//
//	mux.Handle("POST /api/leads", cors.Handler(leadLimit.Limit(leadHandler)))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
