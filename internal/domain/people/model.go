// Package people provides the personnel read model. The report engine uses
// it only for per-capita consumption and to discount exits tied to inactive
// people; it never mutates personnel records.
package people

import (
	"context"

	"ppetrack/internal/core/id"
)

// Person is one personnel record.
type Person struct {
	ID           id.ID  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Registration string `db:"registration" json:"registration"`
	Active       bool   `db:"active" json:"active"`
}

// Repository defines read-only access to personnel.
type Repository interface {
	// ListAll returns every person of the tenant.
	ListAll(ctx context.Context) ([]Person, error)
}

// ActiveSet builds a lookup of active person IDs.
func ActiveSet(persons []Person) map[id.ID]struct{} {
	set := make(map[id.ID]struct{}, len(persons))
	for _, p := range persons {
		if p.Active {
			set[p.ID] = struct{}{}
		}
	}
	return set
}
