// Package tenantrepo implements the read-side repositories over a tenant
// database: materials, movements, people and safety records. All repositories
// are stateless; the connection comes from the TxManager in context.
package tenantrepo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/infrastructure/storage/postgres"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// MaterialRepository reads the material catalog.
type MaterialRepository struct{}

var _ materials.Repository = (*MaterialRepository)(nil)

func NewMaterialRepository() *MaterialRepository {
	return &MaterialRepository{}
}

// ListAll returns the full catalog with category and storage-location names
// resolved. A missing catalog row degrades to the raw identifier instead of
// failing the fetch.
func (r *MaterialRepository) ListAll(ctx context.Context) ([]materials.Material, error) {
	q := sb.Select(
		"m.id",
		"m.name",
		"COALESCE(c.name, '') AS category",
		"m.unit_value",
		"m.minimum_stock",
		"m.shelf_life_days",
		"m.storage_location_id",
		"COALESCE(sl.name, m.storage_location_id::text, '') AS storage_location",
	).
		From("materials m").
		LeftJoin("categories c ON c.id = m.category_id").
		LeftJoin("storage_locations sl ON sl.id = m.storage_location_id").
		OrderBy("m.name")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build materials query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []materials.Material
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list materials: %w", err))
	}
	return out, nil
}
