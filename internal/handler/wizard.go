package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/session"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
)

// WizardHandler exposes server-side wizard sessions.
type WizardHandler struct {
	wizard        service.WizardService
	secureCookies bool
	logger        *slog.Logger
}

// NewWizardHandler creates a new WizardHandler. secureCookies marks the
// session cookie Secure.
func NewWizardHandler(wizard service.WizardService, secureCookies bool, logger *slog.Logger) *WizardHandler {
	return &WizardHandler{
		wizard:        wizard,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// RegisterRoutes registers wizard session routes.
func (h *WizardHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/wizard/sessions", h.Create)
	mux.HandleFunc("GET /api/wizard/sessions/{id}", h.Get)
	mux.HandleFunc("POST /api/wizard/sessions/{id}/commands", h.Dispatch)
	mux.HandleFunc("DELETE /api/wizard/sessions/{id}", h.Delete)
}

// Create starts a session, or resumes the one named by the session cookie
// when it was opened in the same embed mode.
// POST /api/wizard/sessions?embed=true
func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request) {
	embed, _ := strconv.ParseBool(r.URL.Query().Get("embed"))

	if cookie, err := r.Cookie(session.CookieName); err == nil {
		if id, err := uuid.Parse(cookie.Value); err == nil {
			if v, err := h.wizard.Get(r.Context(), id); err == nil && v.State.Embed == embed {
				writeJSON(w, http.StatusOK, v)
				return
			}
		}
	}

	v, err := h.wizard.Create(r.Context(), embed)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.setCookie(w, v.SessionID, embed)
	writeJSON(w, http.StatusCreated, v)
}

// Get returns a session view.
// GET /api/wizard/sessions/{id}
func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	v, err := h.wizard.Get(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Dispatch applies one command.
// POST /api/wizard/sessions/{id}/commands
func (h *WizardHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var cmd wizard.Command
	if err := decodeJSON(w, r, &cmd); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	v, err := h.wizard.Dispatch(r.Context(), id, cmd)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Delete drops a session and clears the cookie.
// DELETE /api/wizard/sessions/{id}
func (h *WizardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.wizard.Delete(r.Context(), id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     session.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *WizardHandler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.NotFound("wizard.session", "session", r.PathValue("id")))
		return uuid.Nil, false
	}
	return id, true
}

// setCookie remembers the session. Embedded wizards run in a third-party
// frame and need SameSite=None, which browsers only accept with Secure.
func (h *WizardHandler) setCookie(w http.ResponseWriter, id uuid.UUID, embed bool) {
	cookie := &http.Cookie{
		Name:     session.CookieName,
		Value:    id.String(),
		Path:     session.CookiePath,
		MaxAge:   session.CookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if embed && h.secureCookies {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, cookie)
}
