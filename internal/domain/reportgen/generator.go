package reportgen

import (
	"context"
	"fmt"
	"time"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/core/id"
	"ppetrack/internal/core/tenant"
	"ppetrack/internal/core/tx"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/materials"
	"ppetrack/internal/domain/movements"
	"ppetrack/internal/domain/people"
	"ppetrack/internal/domain/safety"
	"ppetrack/pkg/logger"
)

// criticalExprSetting is the tenant setting holding the optional
// critical-material override expression.
const criticalExprSetting = "critical_expr"

// Generator runs the full report pipeline for one tenant. All repositories
// are tenant-scoped through the connection carried in context.
type Generator struct {
	Materials materials.Repository
	Movements movements.Repository
	People    people.Repository
	Safety    safety.Repository
	Reports   Repository
	Blobs     BlobStore

	// Tx, when set, wraps reads in a read-only transaction so every dataset
	// of a period comes from one snapshot.
	Tx tx.ReadOnlyManager

	Pareto analytics.ParetoConfig
	Risk   analytics.RiskConfig

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

func (g *Generator) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.Tx != nil {
		return g.Tx.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

func (g *Generator) transactional(ctx context.Context, fn func(ctx context.Context) error) error {
	if g.Tx != nil {
		return g.Tx.RunInTransaction(ctx, fn)
	}
	return fn(ctx)
}

// RunTenant generates every owed period of the given type for one tenant,
// oldest first. Errors never propagate: they end up in the result so the
// batch can keep going for the other tenants.
func (g *Generator) RunTenant(ctx context.Context, t *tenant.Tenant, reportType ReportType) TenantResult {
	result := TenantResult{TenantID: t.ID, Slug: t.Slug}
	log := logger.FromContext(ctx)

	riskCfg := g.Risk
	if expr := t.SettingString(criticalExprSetting); expr != "" {
		cfg, err := g.Risk.WithCriticalRule(expr)
		if err != nil {
			log.Warn("invalid critical rule, using marker match", "error", err)
		} else {
			riskCfg = cfg
		}
	}

	builder := &Builder{
		Materials: g.Materials,
		Movements: g.Movements,
		People:    g.People,
		Safety:    g.Safety,
		Pareto:    g.Pareto,
		Risk:      riskCfg,
	}

	periods, skip, err := g.periodsFor(ctx, reportType)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	if skip != "" {
		result.Skipped++
		result.Periods = append(result.Periods, PeriodOutcome{Status: OutcomeSkipped, Reason: skip})
		return result
	}

	reported, err := g.reportedSet(ctx, reportType)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	for _, p := range periods {
		if _, ok := reported[p.Key()]; ok {
			result.Skipped++
			result.Periods = append(result.Periods, PeriodOutcome{
				Period: p.Label(), Status: OutcomeSkipped, Reason: ReasonAlreadyReported,
			})
			continue
		}

		outcome, err := g.generatePeriod(ctx, builder, t, p)
		if err != nil {
			// Stop this tenant: later periods would inherit the same failure
			// and out-of-order generation is not allowed.
			result.Error = fmt.Sprintf("period %s: %v", p.Label(), err)
			log.Error("report generation failed", "period", p.Label(), "error", err)
			break
		}

		result.Periods = append(result.Periods, outcome)
		if outcome.Status == OutcomeGenerated {
			result.Generated++
			reported[p.Key()] = struct{}{}
			log.Info("report generated", "period", p.Label(), "type", reportType)
		} else {
			result.Skipped++
		}
	}

	return result
}

// periodsFor enumerates owed periods oldest first. A non-empty skip reason
// means the whole tenant is skipped.
func (g *Generator) periodsFor(ctx context.Context, reportType ReportType) ([]Period, string, error) {
	now := g.now()

	if reportType == ReportWeekly {
		return []Period{WeeklyPeriod(now)}, "", nil
	}

	var earliest *time.Time
	err := g.readOnly(ctx, func(ctx context.Context) error {
		var err error
		earliest, err = g.Movements.EarliestMovement(ctx)
		return err
	})
	if err != nil {
		return nil, "", fmt.Errorf("earliest movement: %w", err)
	}
	if earliest == nil {
		return nil, ReasonNoMovements, nil
	}

	return EnumerateMonthly(*earliest, now), "", nil
}

func (g *Generator) reportedSet(ctx context.Context, reportType ReportType) (map[string]struct{}, error) {
	var periods []Period
	err := g.readOnly(ctx, func(ctx context.Context) error {
		var err error
		periods, err = g.Reports.ListReportedPeriods(ctx, reportType)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reported periods: %w", err)
	}

	set := make(map[string]struct{}, len(periods))
	for _, p := range periods {
		p.Type = reportType
		set[p.Key()] = struct{}{}
	}
	return set, nil
}

// generatePeriod builds, uploads and persists one report.
func (g *Generator) generatePeriod(ctx context.Context, builder *Builder, t *tenant.Tenant, p Period) (PeriodOutcome, error) {
	var res *BuildResult
	err := g.readOnly(ctx, func(ctx context.Context) error {
		var err error
		res, err = builder.Build(ctx, p)
		return err
	})
	if apperror.IsNoData(err) {
		return PeriodOutcome{Period: p.Label(), Status: OutcomeSkipped, Reason: ReasonNoDataInPeriod}, nil
	}
	if err != nil {
		return PeriodOutcome{}, err
	}

	// Weekly exports are uploaded before the insert; the insert is the
	// commit point of the period.
	var attachments []Attachment
	if p.Type == ReportWeekly {
		files, err := BuildWeeklyExports(res)
		if err != nil {
			return PeriodOutcome{}, err
		}
		attachments, err = UploadExports(ctx, g.Blobs, t.Slug, p, files)
		if err != nil {
			return PeriodOutcome{}, err
		}
		res.Payload.Attachments = attachments
	}

	rec := &ReportRecord{
		ID:             id.New(),
		Type:           p.Type,
		PeriodStart:    p.Start,
		PeriodEnd:      p.End,
		GeneratedAt:    g.now(),
		DeliveryStatus: DeliveryPending,
		Payload:        res.Payload,
	}

	err = g.transactional(ctx, func(ctx context.Context) error {
		return g.Reports.InsertReport(ctx, rec)
	})
	if apperror.IsAlreadyReported(err) {
		// A concurrent run won the unique index. Uploaded objects are left in
		// place: the paths are deterministic, so they belong to that report.
		return PeriodOutcome{Period: p.Label(), Status: OutcomeSkipped, Reason: ReasonAlreadyReported}, nil
	}
	if err != nil {
		cleanupUploads(ctx, g.Blobs, attachments)
		return PeriodOutcome{}, fmt.Errorf("insert report: %w", err)
	}

	return PeriodOutcome{Period: p.Label(), Status: OutcomeGenerated}, nil
}
