package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/casacolor/casacolor-backend-go/pkg/errors"
	"github.com/casacolor/casacolor-backend-go/pkg/utils"
)

// ErrorHandlingMiddleware recovers from panics and converts errors to
// standardized responses
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"ip":          c.ClientIP(),
			"request_id":  RequestID(c),
			"panic":       fmt.Sprintf("%v", recovered),
			"stack_trace": string(debug.Stack()),
		}).Error("Panic recovered in API middleware")

		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}

// ErrorResponseMiddleware converts handler errors into standardized responses
func ErrorResponseMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": RequestID(c),
			"error":      err.Error(),
		}).Error("Request failed")

		if errors.IsAppError(err) {
			utils.SendError(c, errors.GetStatusCode(err), err.Error())
			return
		}

		utils.SendError(c, errors.GetStatusCode(err), "Internal server error")
	}
}
