package reportgen

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "ppetrack/internal/core/context"
	"ppetrack/internal/core/id"
	"ppetrack/internal/core/tenant"
	"ppetrack/pkg/logger"
)

type staticTenants struct {
	tenants []*tenant.Tenant
	err     error
}

func (s *staticTenants) GetActiveRoots(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.tenants, s.err
}

func namedTenants(slugs ...string) []*tenant.Tenant {
	out := make([]*tenant.Tenant, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, &tenant.Tenant{ID: id.New().String(), Slug: slug, Status: tenant.StatusActive})
	}
	return out
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	tenants := namedTenants("alpha", "beta", "gamma")

	run := func(ctx context.Context, tn *tenant.Tenant, rt ReportType) TenantResult {
		res := TenantResult{TenantID: tn.ID, Slug: tn.Slug, Generated: 1}
		if tn.Slug == "beta" {
			res.Generated = 0
			res.Error = "database unreachable"
		}
		return res
	}

	o := NewOrchestrator(&staticTenants{tenants: tenants}, run, 2, logger.Default())
	summary, err := o.Run(context.Background(), ReportMonthly)
	require.NoError(t, err)

	assert.False(t, summary.OK)
	assert.Equal(t, 3, summary.Total)
	require.Len(t, summary.Results, 3)

	// Results keep the enumeration order regardless of worker scheduling.
	assert.Equal(t, "alpha", summary.Results[0].Slug)
	assert.Equal(t, "beta", summary.Results[1].Slug)
	assert.Equal(t, "gamma", summary.Results[2].Slug)

	assert.Equal(t, 1, summary.Results[0].Generated)
	assert.Equal(t, "database unreachable", summary.Results[1].Error)
	assert.Equal(t, 1, summary.Results[2].Generated)
}

func TestOrchestrator_PanicIsolation(t *testing.T) {
	tenants := namedTenants("alpha", "beta")

	run := func(ctx context.Context, tn *tenant.Tenant, rt ReportType) TenantResult {
		if tn.Slug == "alpha" {
			panic("corrupt settings")
		}
		return TenantResult{TenantID: tn.ID, Slug: tn.Slug, Generated: 1}
	}

	o := NewOrchestrator(&staticTenants{tenants: tenants}, run, 1, logger.Default())
	summary, err := o.Run(context.Background(), ReportWeekly)
	require.NoError(t, err)

	assert.False(t, summary.OK)
	assert.Contains(t, summary.Results[0].Error, "panic")
	assert.Equal(t, 1, summary.Results[1].Generated)
}

func TestOrchestrator_BoundedConcurrency(t *testing.T) {
	tenants := namedTenants("a", "b", "c", "d", "e", "f")

	var current, peak atomic.Int32
	var mu sync.Mutex

	run := func(ctx context.Context, tn *tenant.Tenant, rt ReportType) TenantResult {
		n := current.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		defer current.Add(-1)
		return TenantResult{TenantID: tn.ID, Slug: tn.Slug}
	}

	o := NewOrchestrator(&staticTenants{tenants: tenants}, run, 2, logger.Default())
	summary, err := o.Run(context.Background(), ReportMonthly)
	require.NoError(t, err)

	assert.True(t, summary.OK)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestOrchestrator_TenantContextCarriesRunInfo(t *testing.T) {
	tenants := namedTenants("alpha")

	var seenTenantID string
	run := func(ctx context.Context, tn *tenant.Tenant, rt ReportType) TenantResult {
		if r := appctx.GetRun(ctx); r != nil {
			seenTenantID = r.TenantID
		}
		return TenantResult{TenantID: tn.ID, Slug: tn.Slug}
	}

	o := NewOrchestrator(&staticTenants{tenants: tenants}, run, 1, logger.Default())

	ctx := appctx.WithRun(context.Background(), appctx.NewRunContext("http"))
	_, err := o.Run(ctx, ReportMonthly)
	require.NoError(t, err)
	assert.Equal(t, tenants[0].ID, seenTenantID)
}

func TestOrchestrator_EnumerationErrorPropagates(t *testing.T) {
	o := NewOrchestrator(&staticTenants{err: assert.AnError}, nil, 2, logger.Default())

	_, err := o.Run(context.Background(), ReportMonthly)
	assert.Error(t, err)
}

func TestOrchestrator_EmptyTenantList(t *testing.T) {
	o := NewOrchestrator(&staticTenants{}, nil, 2, logger.Default())

	summary, err := o.Run(context.Background(), ReportWeekly)
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.Results)
}
