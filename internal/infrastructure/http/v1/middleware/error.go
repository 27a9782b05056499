package middleware

import (
	"github.com/gin-gonic/gin"

	"ppetrack/internal/core/apperror"
	"ppetrack/pkg/logger"
)

// ErrorHandler converts errors attached to the gin context into the JSON
// error envelope. AppError codes drive the HTTP status; everything else is a
// masked 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if appErr, ok := apperror.AsAppError(err); ok {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error": gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
					"details": appErr.Details,
				},
			})
			return
		}

		logger.Error(c.Request.Context(), "unhandled error", "error", err)
		c.JSON(500, gin.H{
			"error": gin.H{
				"code":    apperror.CodeInternal,
				"message": "internal server error",
			},
		})
	}
}
