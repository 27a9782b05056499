// Package v1 wires the HTTP surface: middleware chain, job triggers, report
// reads and health probes.
package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"ppetrack/internal/core/tenant"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/internal/infrastructure/http/v1/handlers"
	"ppetrack/internal/infrastructure/http/v1/middleware"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Orchestrator *reportgen.Orchestrator
	Manager      *tenant.Manager
	JobAuth      middleware.JobAuthConfig

	// MetaPing verifies the meta database for the readiness probe.
	MetaPing func(ctx context.Context) error
}

// NewRouter builds the gin engine.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Trace())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())

	health := handlers.NewHealthHandler(cfg.MetaPing)
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)

	api := r.Group("/api/v1", middleware.JobAuth(cfg.JobAuth))

	jobs := handlers.NewJobsHandler(cfg.Orchestrator)
	api.POST("/jobs/reports/monthly", jobs.TriggerMonthly)
	api.POST("/jobs/reports/weekly", jobs.TriggerWeekly)

	reports := handlers.NewReportsHandler(cfg.Manager)
	api.GET("/reports", reports.List)
	api.GET("/reports/:id", reports.Get)
	api.GET("/exports/inventory", reports.InventoryXLSX)

	return r
}
