package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// CORSMiddleware lets host pages on other origins call the public API.
type CORSMiddleware struct {
	origins []string
	anyHost bool
	methods string
	headers string
	maxAge  string
}

// NewCORSMiddleware creates a CORS middleware for the given origins. "*"
// allows any origin.
func NewCORSMiddleware(origins []string) *CORSMiddleware {
	return &CORSMiddleware{
		origins: origins,
		anyHost: slices.Contains(origins, "*"),
		methods: "POST, OPTIONS",
		headers: "Content-Type",
		maxAge:  "600",
	}
}

// Handler returns middleware that sets CORS headers and answers preflight
// requests with 204.
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowed := m.allowOrigin(origin); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", m.methods)
			w.Header().Set("Access-Control-Allow-Headers", m.headers)
			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Max-Age", m.maxAge)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed.
func (m *CORSMiddleware) allowOrigin(origin string) string {
	if m.anyHost {
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, o := range m.origins {
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}
