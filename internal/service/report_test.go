package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/DukeRupert/ordoflow/internal/report"
	"github.com/DukeRupert/ordoflow/internal/storage"
	"github.com/DukeRupert/ordoflow/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	svc     ReportService
	leads   LeadService
	queries *fakeLeadQueries
	emails  *fakeEmailService
	queue   *fakeQueue
	dir     string
}

func setupReport(t *testing.T, withArchive bool) *reportFixture {
	t.Helper()
	f := &reportFixture{
		queries: newFakeLeadQueries(),
		emails:  &fakeEmailService{},
		queue:   &fakeQueue{},
	}
	f.leads = NewLeadService(f.queries, testLogger())

	var archiver Archiver
	if withArchive {
		f.dir = t.TempDir()
		local, err := storage.NewDisk(storage.LocalConfig{BasePath: f.dir, BaseURL: "/files"}, testLogger())
		require.NoError(t, err)
		archiver = NewStorageArchiver(local)
	}

	f.svc = NewReportService(
		f.leads,
		f.emails,
		report.NewPDFGenerator(),
		archiver,
		f.queue,
		ReportConfig{AppURL: "https://kalkulator.example.com", ContactURL: "https://example.com/kontakt", EmailTimeout: time.Second},
		testLogger(),
	)
	return f
}

func (f *reportFixture) createLead(t *testing.T) *domain.Lead {
	t.Helper()
	lead, err := f.leads.Create(context.Background(), validLeadParams())
	require.NoError(t, err)
	return lead
}

func TestReportService_Send(t *testing.T) {
	errSMTP := errors.New("smtp: 421 service not available")

	tests := []struct {
		name        string
		clientErr   error
		adminErr    error
		wantClient  bool
		wantAdmin   bool
		wantRetried bool
		wantMarked  bool
	}{
		{"both delivered", nil, nil, true, true, false, true},
		{"client failed", errSMTP, nil, false, true, true, false},
		{"admin failed", nil, errSMTP, true, false, false, true},
		{"both failed", errSMTP, errSMTP, false, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupReport(t, false)
			f.emails.clientErr = tt.clientErr
			f.emails.adminErr = tt.adminErr
			lead := f.createLead(t)

			data := domain.ReportDataFromLead(lead, "", time.Now())
			result := f.svc.Send(context.Background(), data)

			assert.Equal(t, tt.wantClient, result.Client.Success)
			assert.Equal(t, tt.wantAdmin, result.Admin.Success)
			assert.Equal(t, tt.wantRetried, result.Retried)
			assert.Equal(t, tt.wantClient || tt.wantAdmin, result.AnyDelivered())
			if !tt.wantClient {
				assert.Equal(t, msgClientEmailFailed, result.Client.Error)
				assert.NotContains(t, result.Client.Error, "smtp")
			}

			if tt.wantRetried {
				assert.Equal(t, []string{worker.JobTypeSendClientReport}, f.queue.types())
			} else {
				assert.Empty(t, f.queue.types())
			}

			got, err := f.leads.GetByID(context.Background(), lead.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMarked, got.ReportSent())

			require.Len(t, f.emails.clients, 1)
			assert.Equal(t, "https://kalkulator.example.com", f.emails.clients[0].AppURL)
			assert.Equal(t, "https://example.com/kontakt", f.emails.clients[0].ContactURL)
		})
	}
}

func TestReportService_Send_Anonymous(t *testing.T) {
	f := setupReport(t, false)
	f.emails.clientErr = errors.New("boom")

	result := f.svc.Send(context.Background(), &domain.ReportData{
		Contact:  domain.Contact{FirstName: "Jan", Email: "jan@example.com"},
		Currency: domain.CurrencyEUR,
	})

	assert.False(t, result.Client.Success)
	assert.False(t, result.Retried, "reports without a lead cannot be retried")
	assert.Empty(t, f.queue.types())
}

func TestReportService_Export(t *testing.T) {
	f := setupReport(t, true)
	lead := f.createLead(t)

	var buf bytes.Buffer
	n, err := f.svc.Export(context.Background(), domain.ReportDataFromLead(lead, "", time.Now()), &buf)
	require.NoError(t, err)

	assert.Equal(t, int64(buf.Len()), n)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Equal(t, []string{worker.JobTypeArchiveReport}, f.queue.types())
}

func TestReportService_Export_NoArchive(t *testing.T) {
	f := setupReport(t, false)
	lead := f.createLead(t)

	var buf bytes.Buffer
	_, err := f.svc.Export(context.Background(), domain.ReportDataFromLead(lead, "", time.Now()), &buf)
	require.NoError(t, err)
	assert.Empty(t, f.queue.types())
}

func TestReportService_Archive(t *testing.T) {
	f := setupReport(t, true)
	lead := f.createLead(t)
	ctx := context.Background()

	key, err := f.svc.Archive(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.ReportKey(lead.ID, lead.CreatedAt, "pdf"), key)

	body, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	got, err := f.leads.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, key, got.ReportStorageKey)

	again, err := f.svc.Archive(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	link, err := f.svc.ArchiveLink(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "/files/"+key, link)
}

func TestReportService_ArchiveLink_NotArchived(t *testing.T) {
	f := setupReport(t, true)
	lead := f.createLead(t)

	_, err := f.svc.ArchiveLink(context.Background(), lead.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	f = setupReport(t, false)
	_, err = f.svc.ArchiveLink(context.Background(), lead.ID)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestReportService_Archive_Errors(t *testing.T) {
	f := setupReport(t, false)
	_, err := f.svc.Archive(context.Background(), uuid.New())
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))

	f = setupReport(t, true)
	_, err = f.svc.Archive(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestReportService_DeliverClientReport(t *testing.T) {
	f := setupReport(t, false)
	lead := f.createLead(t)
	ctx := context.Background()

	sent, err := f.svc.DeliverClientReport(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = f.svc.DeliverClientReport(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, sent, "delivered reports are not sent twice")
	assert.Len(t, f.emails.clients, 1)
	assert.Empty(t, f.emails.admins)
}

func TestReportService_DeliverClientReport_Failure(t *testing.T) {
	f := setupReport(t, false)
	f.emails.clientErr = errors.New("connection reset")
	lead := f.createLead(t)

	sent, err := f.svc.DeliverClientReport(context.Background(), lead.ID)
	assert.Error(t, err)
	assert.False(t, sent)

	got, err := f.leads.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.False(t, got.ReportSent())
}
