package reportgen

import (
	"context"
	"fmt"
	"sync"

	appctx "ppetrack/internal/core/context"
	"ppetrack/internal/core/tenant"
	"ppetrack/pkg/logger"
)

// TenantSource lists the tenants a batch run iterates over.
type TenantSource interface {
	GetActiveRoots(ctx context.Context) ([]*tenant.Tenant, error)
}

// TenantRunner executes the report pipeline for one tenant. The runner owns
// acquiring the tenant's database connection and wiring the repositories; the
// orchestrator only schedules it.
type TenantRunner func(ctx context.Context, t *tenant.Tenant, reportType ReportType) TenantResult

// Orchestrator fans a batch run out over active root tenants with a bounded
// worker pool. Periods within a tenant stay strictly sequential; tenants run
// concurrently.
type Orchestrator struct {
	tenants TenantSource
	run     TenantRunner
	workers int
	log     *logger.Logger
}

// NewOrchestrator creates an orchestrator with the given concurrency bound.
func NewOrchestrator(src TenantSource, run TenantRunner, workers int, log *logger.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		tenants: src,
		run:     run,
		workers: workers,
		log:     log.WithComponent("orchestrator"),
	}
}

// Run executes one batch over all active root tenants and returns the
// summary. Only tenant enumeration errors propagate; tenant failures land in
// the summary.
func (o *Orchestrator) Run(ctx context.Context, reportType ReportType) (*BatchSummary, error) {
	tenants, err := o.tenants.GetActiveRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	runID := appctx.GetRunID(ctx)
	o.log.Info("batch run started",
		"run_id", runID,
		"type", reportType,
		"tenants", len(tenants),
		"workers", o.workers,
	)

	results := make([]TenantResult, len(tenants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.runOne(ctx, tenants[idx], reportType)
			}
		}()
	}

	for idx := range tenants {
		select {
		case <-ctx.Done():
			// Stop feeding; tenants never scheduled are reported as failed
			// with the context error.
			for rest := idx; rest < len(tenants); rest++ {
				results[rest] = TenantResult{
					TenantID: tenants[rest].ID,
					Slug:     tenants[rest].Slug,
					Error:    ctx.Err().Error(),
				}
			}
			close(jobs)
			wg.Wait()
			return o.summarize(results), nil
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	summary := o.summarize(results)
	o.log.Info("batch run finished",
		"run_id", runID,
		"type", reportType,
		"ok", summary.OK,
		"tenants", summary.Total,
	)
	return summary, nil
}

// runOne isolates one tenant: panics and errors stay in its result.
func (o *Orchestrator) runOne(ctx context.Context, t *tenant.Tenant, reportType ReportType) (result TenantResult) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("tenant run panicked", "tenant_id", t.ID, "panic", r)
			result = TenantResult{
				TenantID: t.ID,
				Slug:     t.Slug,
				Error:    fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	tenantCtx := appctx.ForTenant(ctx, t.ID)
	tenantCtx = tenant.WithTenant(tenantCtx, t)

	return o.run(tenantCtx, t, reportType)
}

func (o *Orchestrator) summarize(results []TenantResult) *BatchSummary {
	summary := &BatchSummary{
		OK:      true,
		Total:   len(results),
		Results: results,
	}
	for i := range results {
		if results[i].Failed() {
			summary.OK = false
		}
	}
	return summary
}
