package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/service"
	"github.com/DukeRupert/ordoflow/internal/validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupReportHandler(leads *fakeLeads, reports *fakeReports) *http.ServeMux {
	mux := http.NewServeMux()
	NewReportHandler(leads, reports, validation.New(), testLogger()).RegisterRoutes(mux, passthrough, passthrough)
	return mux
}

func sendReportBody(leadID uuid.UUID) map[string]any {
	body := validSavings()
	body["leadId"] = leadID.String()
	body["firstName"] = "Anna"
	body["email"] = "anna@example.com"
	body["phone"] = "600100200"
	return body
}

func TestReportHandler_Send(t *testing.T) {
	tests := []struct {
		name        string
		result      *service.DeliveryResult
		wantStatus  int
		wantSuccess bool
	}{
		{
			name:        "both delivered",
			result:      &service.DeliveryResult{Client: service.Delivery{Success: true}, Admin: service.Delivery{Success: true}},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name: "client failed",
			result: &service.DeliveryResult{
				Client:  service.Delivery{Error: "Nie udało się wysłać raportu."},
				Admin:   service.Delivery{Success: true},
				Retried: true,
			},
			wantStatus:  http.StatusOK,
			wantSuccess: true,
		},
		{
			name: "both failed",
			result: &service.DeliveryResult{
				Client: service.Delivery{Error: "x"},
				Admin:  service.Delivery{Error: "y"},
			},
			wantStatus:  http.StatusBadGateway,
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leads := newFakeLeads()
			lead := leads.add("Anna")
			reports := &fakeReports{result: tt.result}
			mux := setupReportHandler(leads, reports)

			req := httptest.NewRequest(http.MethodPost, "/api/send-report", jsonBody(t, sendReportBody(lead.ID)))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantSuccess, resp["success"])
			assert.Contains(t, resp, "clientEmail")
			assert.Contains(t, resp, "adminEmail")

			require.Len(t, reports.sent, 1)
			assert.Equal(t, lead.ID, reports.sent[0].LeadID)
			assert.Equal(t, domain.CurrencyPLN, reports.sent[0].Currency)
		})
	}
}

func TestReportHandler_Send_UnknownLead(t *testing.T) {
	reports := &fakeReports{}
	mux := setupReportHandler(newFakeLeads(), reports)

	req := httptest.NewRequest(http.MethodPost, "/api/send-report", jsonBody(t, sendReportBody(uuid.New())))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, reports.sent)
}

func TestReportHandler_Send_MissingLeadID(t *testing.T) {
	mux := setupReportHandler(newFakeLeads(), &fakeReports{})

	body := sendReportBody(uuid.New())
	delete(body, "leadId")
	req := httptest.NewRequest(http.MethodPost, "/api/send-report", jsonBody(t, body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Brak identyfikatora zgłoszenia", decodeError(t, rec).Details["leadId"])
}

func TestReportHandler_Export(t *testing.T) {
	leads := newFakeLeads()
	lead := leads.add("Anna")
	reports := &fakeReports{}
	mux := setupReportHandler(leads, reports)

	body := sendReportBody(lead.ID)
	body["firstName"] = "Anna-Maria"
	req := httptest.NewRequest(http.MethodPost, "/api/report/pdf", jsonBody(t, body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ordoflow-raport-annamaria-2026-10-14.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
	require.Len(t, reports.exported, 1)
	assert.Equal(t, lead.ID, reports.exported[0].LeadID)
}

func TestReportHandler_Export_Anonymous(t *testing.T) {
	reports := &fakeReports{}
	mux := setupReportHandler(newFakeLeads(), reports)

	body := validSavings()
	body["firstName"] = "Anna"
	req := httptest.NewRequest(http.MethodPost, "/api/report/pdf", jsonBody(t, body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, reports.exported, 1)
	assert.Equal(t, uuid.Nil, reports.exported[0].LeadID)
}

func TestReportHandler_Export_RenderFailure(t *testing.T) {
	reports := &fakeReports{exportErr: domain.Internal(assert.AnError, "report.export", "failed to render report")}
	mux := setupReportHandler(newFakeLeads(), reports)

	body := validSavings()
	body["firstName"] = "Anna"
	req := httptest.NewRequest(http.MethodPost, "/api/report/pdf", jsonBody(t, body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}
