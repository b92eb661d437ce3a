package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		method     string
		origin     string
		wantStatus int
		wantAllow  string
		wantCalled bool
	}{
		{"wildcard post", []string{"*"}, http.MethodPost, "https://client.example", http.StatusOK, "*", true},
		{"wildcard preflight", []string{"*"}, http.MethodOptions, "https://client.example", http.StatusNoContent, "*", false},
		{"listed origin", []string{"https://ordoflow.com"}, http.MethodPost, "https://ordoflow.com", http.StatusOK, "https://ordoflow.com", true},
		{"unlisted origin", []string{"https://ordoflow.com"}, http.MethodPost, "https://evil.example", http.StatusOK, "", true},
		{"unlisted preflight", []string{"https://ordoflow.com"}, http.MethodOptions, "https://evil.example", http.StatusNoContent, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/api/leads", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			NewCORSMiddleware(tt.origins).Handler(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("expected Allow-Origin %q, got %q", tt.wantAllow, got)
			}
			if called != tt.wantCalled {
				t.Errorf("expected handler called=%v, got %v", tt.wantCalled, called)
			}
			if tt.wantAllow != "" && rec.Header().Get("Access-Control-Allow-Methods") != "POST, OPTIONS" {
				t.Errorf("unexpected Allow-Methods %q", rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}
