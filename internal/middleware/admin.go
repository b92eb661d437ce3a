package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

// SetupKeyHeader carries the catalog import key.
const SetupKeyHeader = "X-Setup-Key"

// =============================================================================
// Admin Basic Auth
// =============================================================================

// AdminAuthMiddleware guards the admin API with HTTP basic auth checked
// against a bcrypt hash.
type AdminAuthMiddleware struct {
	username     string
	passwordHash []byte
	logger       *slog.Logger
}

// NewAdminAuthMiddleware creates an admin auth middleware. An empty hash
// rejects every request.
func NewAdminAuthMiddleware(username, passwordHash string, logger *slog.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		username:     username,
		passwordHash: []byte(passwordHash),
		logger:       logger,
	}
}

// RequireAdmin returns middleware that requires admin credentials.
func (m *AdminAuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || len(m.passwordHash) == 0 {
			m.unauthorized(w, r)
			return
		}

		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
		// Always run bcrypt so a wrong username costs the same as a wrong password.
		passErr := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(pass))
		if !userMatch || passErr != nil {
			m.logger.Warn("admin authentication failed", "ip", handler.ClientIP(r), "path", r.URL.Path)
			m.unauthorized(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AdminAuthMiddleware) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
	handler.UnauthorizedResponse(w, r, m.logger)
}

// =============================================================================
// Setup Key
// =============================================================================

// SetupKeyMiddleware guards catalog import with a shared key, read from the
// X-Setup-Key header or the setup_key query parameter.
type SetupKeyMiddleware struct {
	key    string
	logger *slog.Logger
}

// NewSetupKeyMiddleware creates a setup key middleware. An empty key
// rejects every request.
func NewSetupKeyMiddleware(key string, logger *slog.Logger) *SetupKeyMiddleware {
	return &SetupKeyMiddleware{key: key, logger: logger}
}

// Require returns middleware that requires the setup key.
func (m *SetupKeyMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(SetupKeyHeader)
		if got == "" {
			got = r.URL.Query().Get("setup_key")
		}

		if m.key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(m.key)) != 1 {
			m.logger.Warn("setup key rejected", "ip", handler.ClientIP(r))
			handler.ErrorResponse(w, r, m.logger, domain.Errorf(domain.EFORBIDDEN, "setup.authorize", "Niepoprawny klucz konfiguracji."))
			return
		}

		next.ServeHTTP(w, r)
	})
}
