package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/session"
	"github.com/DukeRupert/ordoflow/internal/wizard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWizardHandler(w *fakeWizard) *http.ServeMux {
	mux := http.NewServeMux()
	NewWizardHandler(w, true, testLogger()).RegisterRoutes(mux)
	return mux
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestWizardHandler_Create(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wizard/sessions?embed=true", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var v service.WizardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.NotEqual(t, uuid.Nil, v.SessionID)
	assert.True(t, v.State.Embed)
	assert.Equal(t, []bool{true}, fw.embeds)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, v.SessionID.String(), cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestWizardHandler_Create_Resumes(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wizard/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/sessions", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie.Value})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var v service.WizardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, cookie.Value, v.SessionID.String())
	assert.Len(t, fw.embeds, 1)
}

func TestWizardHandler_Create_EmbedMismatchStartsFresh(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wizard/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	page := sessionCookie(rec)
	require.NotNil(t, page)
	assert.Equal(t, http.SameSiteLaxMode, page.SameSite)

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/sessions?embed=true", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: page.Value})
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var v service.WizardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.NotEqual(t, page.Value, v.SessionID.String())
	assert.True(t, v.State.Embed)
	assert.Equal(t, []bool{false, true}, fw.embeds)

	embedded := sessionCookie(rec)
	require.NotNil(t, embedded)
	assert.Equal(t, v.SessionID.String(), embedded.Value)
	assert.Equal(t, http.SameSiteNoneMode, embedded.SameSite)
}

func TestWizardHandler_Create_StaleCookie(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/sessions", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: uuid.NewString()})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, fw.embeds, 1)
}

func TestWizardHandler_Dispatch(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)
	v, err := fw.Create(t.Context(), false)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/sessions/"+v.SessionID.String()+"/commands",
		strings.NewReader(`{"type":"SET_CURRENCY","currency":"EUR"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, fw.commands, 1)
	assert.Equal(t, wizard.ActionSetCurrency, fw.commands[0].Type)
	assert.Equal(t, "EUR", fw.commands[0].Currency)
}

func TestWizardHandler_Dispatch_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       func(id uuid.UUID) string
		body       string
		err        error
		wantStatus int
	}{
		{
			name:       "malformed id",
			path:       func(uuid.UUID) string { return "/api/wizard/sessions/abc/commands" },
			body:       `{"type":"NEXT_STEP"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unknown session",
			path:       func(uuid.UUID) string { return "/api/wizard/sessions/" + uuid.NewString() + "/commands" },
			body:       `{"type":"NEXT_STEP"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed body",
			path:       func(id uuid.UUID) string { return "/api/wizard/sessions/" + id.String() + "/commands" },
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "blocked step",
			path:       func(id uuid.UUID) string { return "/api/wizard/sessions/" + id.String() + "/commands" },
			body:       `{"type":"NEXT_STEP"}`,
			err:        domain.NewValidationError("wizard.dispatch", "step", "Wybierz przynajmniej jedną kategorię"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "conflict",
			path:       func(id uuid.UUID) string { return "/api/wizard/sessions/" + id.String() + "/commands" },
			body:       `{"type":"NEXT_STEP"}`,
			err:        domain.Conflict("session.update", "session was modified concurrently"),
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := newFakeWizard()
			fw.err = tt.err
			mux := setupWizardHandler(fw)
			v, err := fw.Create(t.Context(), false)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPost, tt.path(v.SessionID), strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestWizardHandler_GetAndDelete(t *testing.T) {
	fw := newFakeWizard()
	mux := setupWizardHandler(fw)
	v, err := fw.Create(t.Context(), false)
	require.NoError(t, err)
	path := "/api/wizard/sessions/" + v.SessionID.String()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Negative(t, cookie.MaxAge)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
