package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appctx "ppetrack/internal/core/context"
	"ppetrack/internal/domain/reportgen"
	"ppetrack/pkg/logger"
)

// JobsHandler triggers batch report runs. Runs execute synchronously: the
// external scheduler that calls these endpoints owns the retry policy and
// wants the summary in the response.
type JobsHandler struct {
	orchestrator *reportgen.Orchestrator
}

func NewJobsHandler(orchestrator *reportgen.Orchestrator) *JobsHandler {
	return &JobsHandler{orchestrator: orchestrator}
}

// TriggerMonthly handles POST /api/v1/jobs/reports/monthly.
func (h *JobsHandler) TriggerMonthly(c *gin.Context) {
	h.trigger(c, reportgen.ReportMonthly)
}

// TriggerWeekly handles POST /api/v1/jobs/reports/weekly.
func (h *JobsHandler) TriggerWeekly(c *gin.Context) {
	h.trigger(c, reportgen.ReportWeekly)
}

func (h *JobsHandler) trigger(c *gin.Context, reportType reportgen.ReportType) {
	ctx := appctx.WithRun(c.Request.Context(), appctx.NewRunContext("http"))

	summary, err := h.orchestrator.Run(ctx, reportType)
	if err != nil {
		logger.Error(ctx, "batch run aborted", "type", reportType, "error", err)
		_ = c.Error(err)
		return
	}

	// Per-tenant failures are reported inside the body; the request itself
	// succeeded.
	c.JSON(http.StatusOK, summary)
}
