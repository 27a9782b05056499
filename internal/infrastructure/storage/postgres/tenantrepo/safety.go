package tenantrepo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/safety"
	"ppetrack/internal/infrastructure/storage/postgres"
)

// SafetyRepository reads accident and labor-hours records.
type SafetyRepository struct{}

var _ safety.Repository = (*SafetyRepository)(nil)

func NewSafetyRepository() *SafetyRepository {
	return &SafetyRepository{}
}

func (r *SafetyRepository) ListAccidents(ctx context.Context, window *movements.Window) ([]safety.Accident, error) {
	q := sb.Select(
		"id",
		"COALESCE(person_name, '') AS person_name",
		"COALESCE(department, '') AS department",
		"occurred_at",
		"COALESCE(kind, '') AS kind",
		"days_off",
		"COALESCE(description, '') AS description",
	).
		From("accidents").
		OrderBy("occurred_at")

	q = withWindow(q, "occurred_at", window)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build accidents query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []safety.Accident
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list accidents: %w", err))
	}
	return out, nil
}

func (r *SafetyRepository) ListLaborMonths(ctx context.Context) ([]safety.LaborMonth, error) {
	q := sb.Select(
		"year",
		"month",
		"head_count",
		"hours",
	).
		From("labor_months").
		OrderBy("year DESC", "month DESC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build labor months query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []safety.LaborMonth
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list labor months: %w", err))
	}
	return out, nil
}
