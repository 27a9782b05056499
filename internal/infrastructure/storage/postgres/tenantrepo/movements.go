package tenantrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/infrastructure/storage/postgres"
)

// MovementRepository reads stock entries and exits.
type MovementRepository struct{}

var _ movements.Repository = (*MovementRepository)(nil)

func NewMovementRepository() *MovementRepository {
	return &MovementRepository{}
}

func withWindow(q squirrel.SelectBuilder, column string, window *movements.Window) squirrel.SelectBuilder {
	if window == nil {
		return q
	}
	return q.Where(squirrel.GtOrEq{column: window.Start}).
		Where(squirrel.Lt{column: window.End})
}

// ListEntries returns entries ordered by occurrence, window-filtered when
// window is non-nil. Cancelled entries are included; aggregation decides what
// to do with them.
func (r *MovementRepository) ListEntries(ctx context.Context, window *movements.Window) ([]movements.Movement, error) {
	q := sb.Select(
		"e.id",
		"'entry' AS kind",
		"e.material_id",
		"e.quantity",
		"e.occurred_at",
		"e.cancelled",
		"COALESCE(sl.name, e.storage_location_id::text, '') AS storage_location",
	).
		From("entries e").
		LeftJoin("storage_locations sl ON sl.id = e.storage_location_id").
		OrderBy("e.occurred_at")

	q = withWindow(q, "e.occurred_at", window)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build entries query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []movements.Movement
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list entries: %w", err))
	}
	return out, nil
}

// ListExits returns exits with person names resolved.
func (r *MovementRepository) ListExits(ctx context.Context, window *movements.Window) ([]movements.Movement, error) {
	q := sb.Select(
		"x.id",
		"'exit' AS kind",
		"x.material_id",
		"x.quantity",
		"x.occurred_at",
		"x.cancelled",
		"x.person_id",
		"COALESCE(p.name, '') AS person_name",
		"COALESCE(x.cost_center, '') AS cost_center",
		"COALESCE(x.department, '') AS department",
		"x.exchange_at",
	).
		From("exits x").
		LeftJoin("people p ON p.id = x.person_id").
		OrderBy("x.occurred_at")

	q = withWindow(q, "x.occurred_at", window)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build exits query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []movements.Movement
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list exits: %w", err))
	}
	return out, nil
}

// EarliestMovement returns the oldest non-cancelled movement timestamp.
// LEAST ignores NULL sides, so a tenant with only entries still resolves.
func (r *MovementRepository) EarliestMovement(ctx context.Context) (*time.Time, error) {
	const query = `
		SELECT LEAST(
			(SELECT MIN(occurred_at) FROM entries WHERE NOT cancelled),
			(SELECT MIN(occurred_at) FROM exits WHERE NOT cancelled)
		)`

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var earliest *time.Time
	if err := querier.QueryRow(ctx, query).Scan(&earliest); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("earliest movement: %w", err))
	}
	return earliest, nil
}
