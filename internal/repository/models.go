package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Category struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Icon         sql.NullString
	Description  sql.NullString
	DisplayOrder int32
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Automation struct {
	ID                   uuid.UUID
	Lp                   int32
	Name                 string
	CategoryID           uuid.UUID
	Integrations         sql.NullString
	DescriptionTechnical sql.NullString
	DescriptionMarketing sql.NullString
	SavingsMin           float64
	SavingsMax           float64
	AutomationPercent    sql.NullInt32
	IsActive             bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Lead struct {
	ID                  uuid.UUID
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
	ReportSentAt        sql.NullTime
	ReportStorageKey    sql.NullString
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      []byte
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}
