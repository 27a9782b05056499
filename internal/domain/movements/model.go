// Package movements provides typed stock movement records (entries and
// exits) and the repository adapter contract that produces them.
//
// Movements are append-only from the report engine's perspective: the engine
// reads them and writes report artifacts, never the other way around.
package movements

import (
	"context"
	"time"

	"ppetrack/internal/core/id"
)

// Kind discriminates entries (stock-in) from exits (stock-out).
type Kind string

const (
	KindEntry Kind = "entry"
	KindExit  Kind = "exit"
)

// Movement is one normalized stock transaction. Foreign-key references are
// resolved to display names at the repository boundary; downstream consumers
// never re-guess property names.
type Movement struct {
	ID         id.ID     `db:"id" json:"id"`
	Kind       Kind      `db:"kind" json:"kind"`
	MaterialID id.ID     `db:"material_id" json:"materialId"`
	Quantity   float64   `db:"quantity" json:"quantity"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`

	// Cancelled movements are excluded from every aggregate.
	Cancelled bool `db:"cancelled" json:"cancelled"`

	// Entry attributes.
	StorageLocation string `db:"storage_location" json:"storageLocation,omitempty"`

	// Exit attributes.
	PersonID   *id.ID `db:"person_id" json:"personId,omitempty"`
	PersonName string `db:"person_name" json:"personName,omitempty"`
	CostCenter string `db:"cost_center" json:"costCenter,omitempty"`
	Department string `db:"department" json:"department,omitempty"`

	// ExchangeAt is the scheduled replacement date for handed-out equipment.
	ExchangeAt *time.Time `db:"exchange_at" json:"exchangeAt,omitempty"`
}

// IsEntry reports whether the movement adds stock.
func (m *Movement) IsEntry() bool { return m.Kind == KindEntry }

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Start) && ts.Before(w.End)
}

// Days returns the inclusive day count of the window, floored at 1.
func (w Window) Days() int {
	days := int(w.End.Sub(w.Start).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// Repository is the movement repository adapter: read-only, tenant-scoped
// through the connection in context.
type Repository interface {
	// ListEntries returns entries, window-filtered when window is non-nil.
	ListEntries(ctx context.Context, window *Window) ([]Movement, error)

	// ListExits returns exits, window-filtered when window is non-nil.
	ListExits(ctx context.Context, window *Window) ([]Movement, error)

	// EarliestMovement returns the timestamp of the oldest non-cancelled
	// entry or exit, or nil when the tenant has no movements at all.
	EarliestMovement(ctx context.Context) (*time.Time, error)
}
