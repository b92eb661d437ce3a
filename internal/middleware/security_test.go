package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// Security Headers Middleware Tests
// =============================================================================

func serveWithSecurityHeaders(mw *SecurityHeadersMiddleware, method string) *httptest.ResponseRecorder {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(method, "/api/leads", nil)
	rec := httptest.NewRecorder()
	mw.Handler(handler).ServeHTTP(rec, req)
	return rec
}

func TestSecurityHeadersMiddleware_SetsAllHeaders(t *testing.T) {
	rec := serveWithSecurityHeaders(NewSecurityHeadersMiddleware(true, nil), http.MethodGet)

	tests := []struct {
		header   string
		expected string
	}{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	}

	for _, tc := range tests {
		got := rec.Header().Get(tc.header)
		if got != tc.expected {
			t.Errorf("%s: expected %q, got %q", tc.header, tc.expected, got)
		}
	}
}

func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	tests := []struct {
		name     string
		isSecure bool
		want     bool
	}{
		{"production", true, true},
		{"development", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithSecurityHeaders(NewSecurityHeadersMiddleware(tt.isSecure, nil), http.MethodGet)
			hsts := rec.Header().Get("Strict-Transport-Security")
			if got := hsts != ""; got != tt.want {
				t.Errorf("expected HSTS set=%v, got %q", tt.want, hsts)
			}
			if tt.want && !strings.Contains(hsts, "max-age=31536000") {
				t.Errorf("HSTS should have max-age of 1 year, got %q", hsts)
			}
		})
	}
}

func TestSecurityHeadersMiddleware_FrameAncestors(t *testing.T) {
	tests := []struct {
		name          string
		ancestors     []string
		wantCSP       string
		wantFrameDeny bool
	}{
		{"no embedding", nil, "frame-ancestors 'none'", true},
		{"any host", []string{"*"}, "frame-ancestors *", false},
		{"allow list", []string{"https://ordoflow.com", "https://*.ordoflow.com"}, "frame-ancestors https://ordoflow.com https://*.ordoflow.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveWithSecurityHeaders(NewSecurityHeadersMiddleware(false, tt.ancestors), http.MethodGet)

			csp := rec.Header().Get("Content-Security-Policy")
			if !strings.Contains(csp, tt.wantCSP) {
				t.Errorf("expected CSP to contain %q, got %q", tt.wantCSP, csp)
			}
			if !strings.Contains(csp, "default-src 'none'") {
				t.Errorf("expected restrictive default-src, got %q", csp)
			}

			deny := rec.Header().Get("X-Frame-Options") == "DENY"
			if deny != tt.wantFrameDeny {
				t.Errorf("expected X-Frame-Options DENY=%v, got %q", tt.wantFrameDeny, rec.Header().Get("X-Frame-Options"))
			}
		})
	}
}

func TestSecurityHeadersMiddleware_PassesThroughRequests(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	NewSecurityHeadersMiddleware(false, nil).Handler(handler).ServeHTTP(rec, req)

	if !called {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
}
