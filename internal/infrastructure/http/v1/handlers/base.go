// Package handlers contains the gin handlers of the HTTP surface: batch
// triggers, report reads and health probes.
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/core/tenant"
	"ppetrack/internal/infrastructure/storage/postgres"
)

const tenantHeader = "X-Tenant-ID"

// tenantContext resolves the tenant named by the request and returns a
// context carrying its pool and transaction manager. The caller must invoke
// release when done with the request.
func tenantContext(c *gin.Context, manager *tenant.Manager) (context.Context, func(), error) {
	tenantID := c.GetHeader(tenantHeader)
	if tenantID == "" {
		tenantID = c.Query("tenant")
	}
	if tenantID == "" {
		return nil, nil, apperror.NewValidation("tenant is required (X-Tenant-ID header or ?tenant=)")
	}

	mp, err := manager.GetPool(c.Request.Context(), tenantID)
	if err != nil {
		return nil, nil, apperror.NewNotFound("tenant", tenantID).WithCause(err)
	}
	mp.AcquireRef()

	ctx := c.Request.Context()
	ctx = tenant.WithTenant(ctx, mp.Tenant())
	ctx = tenant.WithPool(ctx, mp.Pool())
	ctx = tenant.WithTxManager(ctx, postgres.NewTxManagerFromRawPool(mp.Pool()))

	return ctx, mp.ReleaseRef, nil
}
