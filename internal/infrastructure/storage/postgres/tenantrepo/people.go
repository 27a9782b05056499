package tenantrepo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/people"
	"ppetrack/internal/infrastructure/storage/postgres"
)

// PeopleRepository reads the personnel registry.
type PeopleRepository struct{}

var _ people.Repository = (*PeopleRepository)(nil)

func NewPeopleRepository() *PeopleRepository {
	return &PeopleRepository{}
}

func (r *PeopleRepository) ListAll(ctx context.Context) ([]people.Person, error) {
	q := sb.Select(
		"id",
		"name",
		"COALESCE(registration, '') AS registration",
		"active",
	).
		From("people").
		OrderBy("name")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build people query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []people.Person
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list people: %w", err))
	}
	return out, nil
}
