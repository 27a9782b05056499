// Package materials provides the Material catalog: the protective-equipment
// reference data every report run is computed against.
package materials

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/core/id"
)

// Material represents one catalog item owned by a tenant. Reference data is
// immutable for the duration of a report run.
type Material struct {
	ID   id.ID  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`

	// Category is the resolved category/group display name.
	Category string `db:"category" json:"category"`

	// UnitValue is the monetary value of one unit.
	UnitValue decimal.Decimal `db:"unit_value" json:"unitValue"`

	// MinimumStock is the restocking threshold in units.
	MinimumStock float64 `db:"minimum_stock" json:"minimumStock"`

	// ShelfLifeDays is the certified shelf life; 0 means not tracked.
	ShelfLifeDays int `db:"shelf_life_days" json:"shelfLifeDays"`

	// StorageLocationID references the storage location catalog.
	StorageLocationID *id.ID `db:"storage_location_id" json:"storageLocationId,omitempty"`

	// StorageLocation is the resolved display name. When the location lookup
	// fails the raw identifier is carried here instead.
	StorageLocation string `db:"storage_location" json:"storageLocation,omitempty"`
}

// Validate checks invariants after the normalization step. Rows that fail
// here indicate malformed reference data upstream.
func (m *Material) Validate(ctx context.Context) error {
	if id.IsNil(m.ID) {
		return apperror.NewValidation("material id is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("material name is required").
			WithDetail("material_id", m.ID.String())
	}
	if m.UnitValue.IsNegative() {
		return apperror.NewValidation("unit value cannot be negative").
			WithDetail("material_id", m.ID.String())
	}
	if m.MinimumStock < 0 {
		return apperror.NewValidation("minimum stock cannot be negative").
			WithDetail("material_id", m.ID.String())
	}
	if m.ShelfLifeDays < 0 {
		return apperror.NewValidation("shelf life cannot be negative").
			WithDetail("material_id", m.ID.String())
	}
	return nil
}

// Repository defines read-only access to the material catalog.
// Materials are always fetched unfiltered: balances are lifetime snapshots.
type Repository interface {
	// ListAll returns every material of the tenant.
	ListAll(ctx context.Context) ([]Material, error)
}
