// Package middleware contains the gin middleware chain: tracing, request
// logging, error mapping and job-endpoint authentication.
package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "ppetrack/internal/core/context"
)

const requestIDHeader = "X-Request-ID"

// Trace attaches a TraceContext to every request and echoes the request id.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace := appctx.NewTraceContext()
		if rid := c.GetHeader(requestIDHeader); rid != "" {
			trace.RequestID = rid
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, trace.RequestID)

		c.Next()
	}
}
