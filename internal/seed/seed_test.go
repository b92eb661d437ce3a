package seed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DukeRupert/ordoflow/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseSavings(t *testing.T) {
	tests := []struct {
		in  string
		min float64
		max float64
	}{
		{"8-12h", 8, 12},
		{"8 - 12 h", 8, 12},
		{"0.5-1.5h", 0.5, 1.5},
		{"1h", 1, 1},
		{"3", 3, 3},
		{"około 2 h", 2, 2},
		{"", 0, 0},
		{"brak", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lo, hi := ParseSavings(tt.in)
			assert.Equal(t, tt.min, lo)
			assert.Equal(t, tt.max, hi)
		})
	}
}

func TestIconFor(t *testing.T) {
	assert.Equal(t, "Headphones", IconFor("obsluga-klienta-crm"))
	assert.Equal(t, "Wallet", IconFor("finanse-analityka"))
	assert.Equal(t, DefaultIcon, IconFor("nieznana"))
}

func TestFromRows(t *testing.T) {
	rows := []Row{
		{ColumnLp: 1.0, ColumnName: "Faktury", ColumnCategory: "Finanse & Analityka", ColumnSavings: "2-4h"},
		{ColumnLp: 2.0, ColumnName: "Zgłoszenia", ColumnCategory: "Obsługa klienta / CRM", ColumnSavings: "1h"},
		{ColumnLp: "3", ColumnName: "Bilety", ColumnCategory: "Obsługa klienta / CRM", ColumnActive: "nie"},
		{ColumnLp: 4.0, ColumnName: "", ColumnCategory: "Finanse & Analityka"},
		{ColumnName: "Bez numeru", ColumnCategory: "IT & DevOps"},
	}

	doc := FromRows(rows)

	require.Len(t, doc.Categories, 3)
	// Finanse has 2 rows (one skipped later), Obsługa 2, IT 1: ties keep
	// first appearance.
	assert.Equal(t, CategoryEntry{Name: "Finanse & Analityka", Slug: "finanse-analityka", Icon: "Wallet", DisplayOrder: 1}, doc.Categories[0])
	assert.Equal(t, CategoryEntry{Name: "Obsługa klienta / CRM", Slug: "obsluga-klienta-crm", Icon: "Headphones", DisplayOrder: 2}, doc.Categories[1])
	assert.Equal(t, "it-devops", doc.Categories[2].Slug)
	assert.Equal(t, "Terminal", doc.Categories[2].Icon)

	require.Len(t, doc.Automations, 3)
	first := doc.Automations[0]
	assert.Equal(t, 1, first.Lp)
	assert.Equal(t, "finanse-analityka", first.CategorySlug)
	assert.Equal(t, 2.0, first.SavingsMin)
	assert.Equal(t, 4.0, first.SavingsMax)
	require.NotNil(t, first.AutomationPercent)
	assert.Equal(t, ImportedAutomationPercent, *first.AutomationPercent)
	assert.True(t, first.Active())

	assert.Equal(t, 3, doc.Automations[2].Lp)
	assert.False(t, doc.Automations[2].Active())
}

func TestParseDocument(t *testing.T) {
	valid := `{
		"categories": [{"name": "Finanse", "slug": "finanse", "icon": "Wallet", "displayOrder": 1}],
		"automations": [{"lp": 1, "name": "Faktury", "categorySlug": "finanse", "savingsMin": 2, "savingsMax": 4}]
	}`

	doc, err := ParseDocument([]byte(valid))
	require.NoError(t, err)
	require.Len(t, doc.Automations, 1)
	assert.Nil(t, doc.Automations[0].AutomationPercent)
	assert.True(t, doc.Automations[0].Active())

	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing automations", `{"categories": [{"name": "A", "slug": "a", "displayOrder": 1}]}`},
		{"bad slug", `{"categories": [{"name": "A", "slug": "Ą B", "displayOrder": 1}], "automations": []}`},
		{"percent out of range", `{"categories": [{"name": "A", "slug": "a", "displayOrder": 1}],
			"automations": [{"lp": 1, "name": "x", "categorySlug": "a", "savingsMin": 1, "savingsMax": 1, "automationPercent": 120}]}`},
		{"unknown category", `{"categories": [{"name": "A", "slug": "a", "displayOrder": 1}],
			"automations": [{"lp": 1, "name": "x", "categorySlug": "b", "savingsMin": 1, "savingsMax": 1}]}`},
		{"duplicate lp", `{"categories": [{"name": "A", "slug": "a", "displayOrder": 1}],
			"automations": [{"lp": 1, "name": "x", "categorySlug": "a", "savingsMin": 1, "savingsMax": 1},
			                {"lp": 1, "name": "y", "categorySlug": "a", "savingsMin": 1, "savingsMax": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.doc))
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		})
	}
}

func TestFromRows_ProducesValidDocument(t *testing.T) {
	doc := FromRows([]Row{
		{ColumnLp: 1.0, ColumnName: "Posty", ColumnCategory: "Social Media & Wideo", ColumnSavings: "3-5h"},
	})
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	parsed, err := ParseDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name            string
		data            string
		wantErr         bool
		wantAutomations int
	}{
		{
			name: "document",
			data: `{"categories": [{"name": "A", "slug": "a", "displayOrder": 1}],
				"automations": [{"lp": 1, "name": "x", "categorySlug": "a", "savingsMin": 1, "savingsMax": 2}]}`,
			wantAutomations: 1,
		},
		{
			name:            "rows",
			data:            "  \n" + `[{"LP": 1, "Nazwa po polsku": "Faktury", "Kategoria": "Finanse", "Oszczędność (tyg.)": "2-4h"}]`,
			wantAutomations: 1,
		},
		{name: "malformed rows", data: `[{"LP": }]`, wantErr: true},
		{
			name:    "duplicate lp in rows",
			data:    `[{"LP": 1, "Nazwa po polsku": "a", "Kategoria": "K"}, {"LP": 1, "Nazwa po polsku": "b", "Kategoria": "K"}]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.data))
			if tt.wantErr {
				assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Automations, tt.wantAutomations)
		})
	}
}

var categoryColumnNames = []string{
	"id", "name", "slug", "icon", "description", "display_order", "is_active", "created_at", "updated_at",
}

func TestImporter_Import(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	categoryID := uuid.New()
	now := time.Now()
	percent := 60
	inactive := false
	doc := &Document{
		Categories: []CategoryEntry{{Name: "Finanse", Slug: "finanse", Icon: "Wallet", DisplayOrder: 1}},
		Automations: []AutomationEntry{
			{Lp: 1, Name: "Faktury", CategorySlug: "finanse", SavingsMin: 2, SavingsMax: 4, AutomationPercent: &percent},
			{Lp: 2, Name: "Stare", CategorySlug: "finanse", IsActive: &inactive},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs("Finanse", "finanse", "Wallet", nil, int32(1)).
		WillReturnRows(sqlmock.NewRows(categoryColumnNames).
			AddRow(categoryID.String(), "Finanse", "finanse", "Wallet", nil, 1, true, now, now))
	mock.ExpectQuery(`INSERT INTO automations`).
		WithArgs(int32(1), "Faktury", sqlmock.AnyArg(), nil, nil, nil, 2.0, 4.0, int64(60)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectCommit()

	result, err := NewImporter(db, testLogger()).Import(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CategoriesUpserted)
	assert.Equal(t, 1, result.AutomationsUpserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImporter_Import_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	doc := &Document{
		Categories: []CategoryEntry{{Name: "Finanse", Slug: "finanse", DisplayOrder: 1}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO categories`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = NewImporter(db, testLogger()).Import(context.Background(), doc)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
