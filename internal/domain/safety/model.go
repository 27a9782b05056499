// Package safety provides the accident and labor-hours read models consumed
// by the weekly report exports. The CRUD and XLSX-import layers that produce
// these records are external collaborators.
package safety

import (
	"context"
	"time"

	"ppetrack/internal/core/id"

	"ppetrack/internal/domain/movements"
)

// Accident is one workplace accident record.
type Accident struct {
	ID          id.ID     `db:"id" json:"id"`
	PersonName  string    `db:"person_name" json:"personName"`
	Department  string    `db:"department" json:"department"`
	OccurredAt  time.Time `db:"occurred_at" json:"occurredAt"`
	Kind        string    `db:"kind" json:"kind"`
	DaysOff     int       `db:"days_off" json:"daysOff"`
	Description string    `db:"description" json:"description"`
}

// LaborMonth aggregates worked hours for one calendar month.
type LaborMonth struct {
	Year      int     `db:"year" json:"year"`
	Month     int     `db:"month" json:"month"`
	HeadCount int     `db:"head_count" json:"headCount"`
	Hours     float64 `db:"hours" json:"hours"`
}

// Repository defines read-only access to safety records.
type Repository interface {
	// ListAccidents returns accidents, window-filtered when window is non-nil.
	ListAccidents(ctx context.Context, window *movements.Window) ([]Accident, error)

	// ListLaborMonths returns the labor-hours dataset, most recent first.
	ListLaborMonths(ctx context.Context) ([]LaborMonth, error)
}
