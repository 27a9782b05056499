// Package reportrepo persists generated reports in a tenant database. The
// unique index on (report_type, period_start, period_end) is the
// authoritative idempotency guarantee for the whole engine.
package reportrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/klauspost/compress/zstd"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/internal/infrastructure/storage/postgres"
)

var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// uniqueViolation is the PostgreSQL error code for unique index violations.
const uniqueViolation = "23505"

// DefaultCompressThreshold is the payload size above which the JSON document
// is stored zstd-compressed instead of as plain JSONB.
const DefaultCompressThreshold = 64 * 1024

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// ReportRepository stores and lists report rows.
type ReportRepository struct {
	// CompressThreshold in bytes; 0 means DefaultCompressThreshold.
	CompressThreshold int
}

var _ reportgen.Repository = (*ReportRepository)(nil)

func NewReportRepository() *ReportRepository {
	return &ReportRepository{CompressThreshold: DefaultCompressThreshold}
}

func (r *ReportRepository) threshold() int {
	if r.CompressThreshold > 0 {
		return r.CompressThreshold
	}
	return DefaultCompressThreshold
}

type periodRow struct {
	ReportType  string    `db:"report_type"`
	PeriodStart time.Time `db:"period_start"`
	PeriodEnd   time.Time `db:"period_end"`
}

func (r *ReportRepository) ListReportedPeriods(ctx context.Context, reportType reportgen.ReportType) ([]reportgen.Period, error) {
	q := sb.Select("report_type", "period_start", "period_end").
		From("reports").
		Where(squirrel.Eq{"report_type": string(reportType)}).
		OrderBy("period_start")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build reported periods query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var rows []periodRow
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list reported periods: %w", err))
	}

	periods := make([]reportgen.Period, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, reportgen.Period{
			Type:  reportgen.ReportType(row.ReportType),
			Start: row.PeriodStart,
			End:   row.PeriodEnd,
		})
	}
	return periods, nil
}

// InsertReport persists one report. A unique violation on the period index is
// mapped to the canonical already-reported error.
func (r *ReportRepository) InsertReport(ctx context.Context, rec *reportgen.ReportRecord) error {
	payloadJSON, payloadZstd, err := r.encodePayload(rec.Payload)
	if err != nil {
		return fmt.Errorf("encode report payload: %w", err)
	}

	q := sb.Insert("reports").
		Columns("id", "report_type", "period_start", "period_end",
			"generated_at", "delivery_status", "payload", "payload_zstd").
		Values(rec.ID, string(rec.Type), rec.PeriodStart, rec.PeriodEnd,
			rec.GeneratedAt, rec.DeliveryStatus, payloadJSON, payloadZstd)

	query, args, err := q.ToSql()
	if err != nil {
		return apperror.NewDatabase(fmt.Errorf("build report insert: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperror.NewAlreadyReported(string(rec.Type),
				rec.PeriodStart.Format("2006-01-02"), rec.PeriodEnd.Format("2006-01-02"))
		}
		return apperror.NewDatabase(fmt.Errorf("insert report: %w", err))
	}
	return nil
}

// encodePayload returns exactly one non-nil column value: plain JSON under
// the threshold, zstd bytes above it.
func (r *ReportRepository) encodePayload(payload *reportgen.ReportPayload) ([]byte, []byte, error) {
	if payload == nil {
		return nil, nil, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	if len(data) > r.threshold() {
		return nil, zstdEncoder.EncodeAll(data, nil), nil
	}
	return data, nil, nil
}

func decodePayload(payloadJSON, payloadZstd []byte) (*reportgen.ReportPayload, error) {
	data := payloadJSON
	if len(payloadZstd) > 0 {
		plain, err := zstdDecoder.DecodeAll(payloadZstd, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress payload: %w", err)
		}
		data = plain
	}
	if len(data) == 0 {
		return nil, nil
	}

	var payload reportgen.ReportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &payload, nil
}

func (r *ReportRepository) ListReports(ctx context.Context, reportType reportgen.ReportType, limit int) ([]reportgen.ReportRecord, error) {
	q := sb.Select("id", "report_type", "period_start", "period_end",
		"generated_at", "delivery_status").
		From("reports").
		OrderBy("period_start DESC")

	if reportType != "" {
		q = q.Where(squirrel.Eq{"report_type": string(reportType)})
	}
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build reports query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	var out []reportgen.ReportRecord
	if err := pgxscan.Select(ctx, querier, &out, query, args...); err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("list reports: %w", err))
	}
	return out, nil
}

func (r *ReportRepository) GetReport(ctx context.Context, reportID string) (*reportgen.ReportRecord, error) {
	q := sb.Select("id", "report_type", "period_start", "period_end",
		"generated_at", "delivery_status", "payload", "payload_zstd").
		From("reports").
		Where(squirrel.Eq{"id": reportID})

	query, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("build report query: %w", err))
	}

	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)

	type reportRow struct {
		reportgen.ReportRecord
		PayloadJSON []byte `db:"payload"`
		PayloadZstd []byte `db:"payload_zstd"`
	}

	var row reportRow
	err = pgxscan.Get(ctx, querier, &row, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewNotFound("report", reportID)
	}
	if err != nil {
		return nil, apperror.NewDatabase(fmt.Errorf("get report: %w", err))
	}

	rec := row.ReportRecord
	rec.Payload, err = decodePayload(row.PayloadJSON, row.PayloadZstd)
	if err != nil {
		return nil, apperror.NewDatabase(err)
	}
	return &rec, nil
}
