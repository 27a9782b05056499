// Package context provides request-scoped values extraction.
package context

import (
	"context"

	"ppetrack/internal/core/id"
)

// RunContext identifies one batch invocation and, once a tenant has been
// picked up, the tenant being processed. It is what log lines are tagged with.
type RunContext struct {
	RunID    string
	TenantID string
	Trigger  string // "http", "cli"
}

type runContextKey struct{}

// WithRun adds RunContext to context.
func WithRun(ctx context.Context, run *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, run)
}

// GetRun returns RunContext from context.
func GetRun(ctx context.Context) *RunContext {
	if v, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return v
	}
	return nil
}

// NewRunContext creates a run with a fresh run ID.
func NewRunContext(trigger string) *RunContext {
	return &RunContext{
		RunID:   id.New().String(),
		Trigger: trigger,
	}
}

// ForTenant derives a context whose run is scoped to one tenant.
func ForTenant(ctx context.Context, tenantID string) context.Context {
	return WithRun(ctx, GetRun(ctx).ForTenant(tenantID))
}

// ForTenant returns a copy of the run scoped to a single tenant.
func (r *RunContext) ForTenant(tenantID string) *RunContext {
	if r == nil {
		return &RunContext{TenantID: tenantID}
	}
	return &RunContext{
		RunID:    r.RunID,
		TenantID: tenantID,
		Trigger:  r.Trigger,
	}
}

// GetRunID returns run ID from context or empty string.
func GetRunID(ctx context.Context) string {
	if r := GetRun(ctx); r != nil {
		return r.RunID
	}
	return ""
}
