// Package reportgen implements report periods, the report builder, weekly
// export rendering and the multi-tenant batch orchestration. It depends on
// the analytics core for computation and on repository interfaces for data.
package reportgen

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ppetrack/internal/core/id"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/safety"
)

// ReportType discriminates the two scheduled report kinds.
type ReportType string

const (
	ReportMonthly ReportType = "monthly"
	ReportWeekly  ReportType = "weekly"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	return t == ReportMonthly || t == ReportWeekly
}

// DeliveryPending marks a freshly generated report awaiting pickup by the
// notification collaborator.
const DeliveryPending = "pending"

// Period is one reporting window [Start, End).
type Period struct {
	Type  ReportType
	Start time.Time
	End   time.Time
}

// Window returns the movement filter window of the period.
func (p Period) Window() movements.Window {
	return movements.Window{Start: p.Start, End: p.End}
}

// Label renders a human-readable period name used in object paths and batch
// summaries: "2026-03" for monthly, "2026-03-01_2026-03-07" for weekly.
func (p Period) Label() string {
	if p.Type == ReportMonthly {
		return p.Start.Format("2006-01")
	}
	last := p.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%s_%s", p.Start.Format("2006-01-02"), last.Format("2006-01-02"))
}

// Key is the uniqueness key matching the storage unique index.
func (p Period) Key() string {
	return fmt.Sprintf("%s|%s|%s", p.Type, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// Attachment references one uploaded export file.
type Attachment struct {
	Name        string `json:"name"`
	ObjectName  string `json:"objectName"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// RollupEntry is one row of a grouped breakdown.
type RollupEntry struct {
	Key      string          `json:"key"`
	Quantity float64         `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
	Share    float64         `json:"share"`
}

// Summary holds the scalar figures of a report.
type Summary struct {
	MaterialCount   int `json:"materialCount"`
	EntryCount      int `json:"entryCount"`
	ExitCount       int `json:"exitCount"`
	DaysInPeriod    int `json:"daysInPeriod"`
	CriticalCount   int `json:"criticalCount"`
	AttentionCount  int `json:"attentionCount"`
	ControlledCount int `json:"controlledCount"`
	AlertCount      int `json:"alertCount"`

	TotalMovementValue decimal.Decimal `json:"totalMovementValue"`

	ActivePeople         int     `json:"activePeople"`
	PerCapitaConsumption float64 `json:"perCapitaConsumption"`

	Narrative string `json:"narrative"`
}

// ReportPayload is the JSONB document persisted with a report row.
type ReportPayload struct {
	ParetoByQuantity []analytics.ParetoEntry `json:"paretoByQuantity"`
	ParetoByValue    []analytics.ParetoEntry `json:"paretoByValue"`
	ParetoByRisk     []analytics.ParetoEntry `json:"paretoByRisk"`

	Risks []analytics.RiskRecord `json:"risks"`

	Stock []analytics.StockBalanceItem `json:"stock"`

	Categories  []RollupEntry `json:"categories"`
	Sectors     []RollupEntry `json:"sectors"`
	CostCenters []RollupEntry `json:"costCenters"`

	Summary Summary `json:"summary"`

	// Weekly only.
	Accidents   []safety.Accident   `json:"accidents,omitempty"`
	LaborMonths []safety.LaborMonth `json:"laborMonths,omitempty"`
	Attachments []Attachment        `json:"attachments,omitempty"`
}

// ReportRecord is one persisted report.
type ReportRecord struct {
	ID             id.ID          `db:"id" json:"id"`
	Type           ReportType     `db:"report_type" json:"type"`
	PeriodStart    time.Time      `db:"period_start" json:"periodStart"`
	PeriodEnd      time.Time      `db:"period_end" json:"periodEnd"`
	GeneratedAt    time.Time      `db:"generated_at" json:"generatedAt"`
	DeliveryStatus string         `db:"delivery_status" json:"deliveryStatus"`
	Payload        *ReportPayload `db:"-" json:"payload,omitempty"`
}

// Batch outcome statuses and skip reasons.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"

	ReasonNoMovements     = "no_movements"
	ReasonNoDataInPeriod  = "no_data_in_period"
	ReasonAlreadyReported = "already_reported"
)

// PeriodOutcome is the per-period line of a tenant result.
type PeriodOutcome struct {
	Period string `json:"period"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// TenantResult is the per-tenant line of a batch summary.
type TenantResult struct {
	TenantID  string          `json:"tenantId"`
	Slug      string          `json:"slug"`
	Generated int             `json:"generated"`
	Skipped   int             `json:"skipped"`
	Periods   []PeriodOutcome `json:"periods,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Failed reports whether the tenant run ended with an error.
func (r *TenantResult) Failed() bool { return r.Error != "" }

// BatchSummary is the JSON body returned by the job endpoints.
type BatchSummary struct {
	OK      bool           `json:"ok"`
	Total   int            `json:"total"`
	Results []TenantResult `json:"resultados"`
}
