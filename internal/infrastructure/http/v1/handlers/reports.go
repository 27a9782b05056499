package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ppetrack/internal/core/apperror"
	"ppetrack/internal/core/tenant"
	"ppetrack/internal/domain/analytics"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/internal/infrastructure/storage/postgres/reportrepo"
	"ppetrack/internal/infrastructure/storage/postgres/tenantrepo"
)

const defaultListLimit = 20

// ReportsHandler serves generated reports and on-demand exports for one
// tenant, resolved per request.
type ReportsHandler struct {
	manager *tenant.Manager
	reports *reportrepo.ReportRepository
}

func NewReportsHandler(manager *tenant.Manager) *ReportsHandler {
	return &ReportsHandler{
		manager: manager,
		reports: reportrepo.NewReportRepository(),
	}
}

// List handles GET /api/v1/reports.
func (h *ReportsHandler) List(c *gin.Context) {
	ctx, release, err := tenantContext(c, h.manager)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer release()

	reportType := reportgen.ReportType(c.Query("type"))
	if reportType != "" && !reportType.Valid() {
		_ = c.Error(apperror.NewValidation(fmt.Sprintf("unknown report type %q", reportType)))
		return
	}

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			_ = c.Error(apperror.NewValidation("limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.reports.ListReports(ctx, reportType, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": records})
}

// Get handles GET /api/v1/reports/:id, payload included.
func (h *ReportsHandler) Get(c *gin.Context) {
	ctx, release, err := tenantContext(c, h.manager)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer release()

	rec, err := h.reports.GetReport(ctx, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// InventoryXLSX handles GET /api/v1/exports/inventory: the full stock
// snapshot, zero-movement materials included.
func (h *ReportsHandler) InventoryXLSX(c *gin.Context) {
	ctx, release, err := tenantContext(c, h.manager)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer release()

	materialsRepo := tenantrepo.NewMaterialRepository()
	movementsRepo := tenantrepo.NewMovementRepository()

	mats, err := materialsRepo.ListAll(ctx)
	if err != nil {
		_ = c.Error(err)
		return
	}
	entries, err := movementsRepo.ListEntries(ctx, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}
	exits, err := movementsRepo.ListExits(ctx, nil)
	if err != nil {
		_ = c.Error(err)
		return
	}

	items := analytics.ComputeBalances(mats, entries, exits, analytics.BalanceOptions{IncludeAll: true})

	data, err := reportgen.BuildInventoryXLSX(items)
	if err != nil {
		_ = c.Error(apperror.NewInternal(err))
		return
	}

	filename := fmt.Sprintf("estoque_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
