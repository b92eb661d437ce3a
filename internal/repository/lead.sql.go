package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const leadColumns = `id, first_name, email, phone, company, currency, hourly_rate, selected_automations,
    total_weekly, total_monthly, total_yearly, marketing_consent, submitter_ip,
    report_sent_at, report_storage_key, created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (Lead, error) {
	var i Lead
	err := row.Scan(
		&i.ID,
		&i.FirstName,
		&i.Email,
		&i.Phone,
		&i.Company,
		&i.Currency,
		&i.HourlyRate,
		&i.SelectedAutomations,
		&i.TotalWeekly,
		&i.TotalMonthly,
		&i.TotalYearly,
		&i.MarketingConsent,
		&i.SubmitterIp,
		&i.ReportSentAt,
		&i.ReportStorageKey,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createLead = `INSERT INTO leads (
    first_name, email, phone, company, currency, hourly_rate, selected_automations,
    total_weekly, total_monthly, total_yearly, marketing_consent, submitter_ip
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + leadColumns

type CreateLeadParams struct {
	FirstName           string
	Email               string
	Phone               string
	Company             sql.NullString
	Currency            string
	HourlyRate          float64
	SelectedAutomations pqtype.NullRawMessage
	TotalWeekly         float64
	TotalMonthly        float64
	TotalYearly         float64
	MarketingConsent    bool
	SubmitterIp         pqtype.Inet
}

func (q *Queries) CreateLead(ctx context.Context, arg CreateLeadParams) (Lead, error) {
	row := q.db.QueryRowContext(ctx, createLead,
		arg.FirstName,
		arg.Email,
		arg.Phone,
		arg.Company,
		arg.Currency,
		arg.HourlyRate,
		arg.SelectedAutomations,
		arg.TotalWeekly,
		arg.TotalMonthly,
		arg.TotalYearly,
		arg.MarketingConsent,
		arg.SubmitterIp,
	)
	return scanLead(row)
}

const getLead = `SELECT ` + leadColumns + `
FROM leads
WHERE id = $1`

func (q *Queries) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	return scanLead(q.db.QueryRowContext(ctx, getLead, id))
}

// ListLeadsParams filters the admin lead list.
type ListLeadsParams struct {
	UnsentOnly bool
	Limit      int32
	Offset     int32
}

func leadFilter(b squirrel.SelectBuilder, unsentOnly bool) squirrel.SelectBuilder {
	if unsentOnly {
		b = b.Where(squirrel.Eq{"report_sent_at": nil})
	}
	return b
}

// ListLeads returns leads newest first.
func (q *Queries) ListLeads(ctx context.Context, arg ListLeadsParams) ([]Lead, error) {
	query, args, err := leadFilter(psql.Select(leadColumns).From("leads"), arg.UnsentOnly).
		OrderBy("created_at DESC").
		Limit(uint64(arg.Limit)).
		Offset(uint64(arg.Offset)).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Lead{}
	for rows.Next() {
		i, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// CountLeads counts the leads ListLeads would return without paging.
func (q *Queries) CountLeads(ctx context.Context, unsentOnly bool) (int64, error) {
	query, args, err := leadFilter(psql.Select("COUNT(*)").From("leads"), unsentOnly).ToSql()
	if err != nil {
		return 0, err
	}
	var count int64
	err = q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

const markLeadReportSent = `UPDATE leads
SET report_sent_at = $2, updated_at = NOW()
WHERE id = $1 AND report_sent_at IS NULL`

// MarkLeadReportSent records the delivery time once. It returns the number
// of rows changed, which is 0 when the report was already marked.
func (q *Queries) MarkLeadReportSent(ctx context.Context, id uuid.UUID, sentAt time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, markLeadReportSent, id, sentAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setLeadReportStorageKey = `UPDATE leads
SET report_storage_key = $2, updated_at = NOW()
WHERE id = $1`

func (q *Queries) SetLeadReportStorageKey(ctx context.Context, id uuid.UUID, key string) error {
	_, err := q.db.ExecContext(ctx, setLeadReportStorageKey, id, key)
	return err
}

const listUnsentLeadsWithoutJob = `SELECT ` + leadColumns + `
FROM leads l
WHERE l.report_sent_at IS NULL
  AND l.created_at < $1
  AND NOT EXISTS (
    SELECT 1 FROM jobs j
    WHERE j.job_type = $2
      AND j.status IN ('pending', 'running')
      AND j.payload->>'lead_id' = l.id::text
  )
ORDER BY l.created_at ASC
LIMIT $3`

// ListUnsentLeadsWithoutJob returns leads created before cutoff whose report
// was never delivered and that have no queued job of jobType.
func (q *Queries) ListUnsentLeadsWithoutJob(ctx context.Context, cutoff time.Time, jobType string, limit int32) ([]Lead, error) {
	rows, err := q.db.QueryContext(ctx, listUnsentLeadsWithoutJob, cutoff, jobType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Lead{}
	for rows.Next() {
		i, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
