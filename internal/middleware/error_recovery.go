package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponder writes err to the client
type ErrorResponder func(c *gin.Context, err error)

// ErrorRecoveryMiddleware converts panics in later handlers into an INTERNAL_SERVER_ERROR
// response written by respond. The session and process survive.
func ErrorRecoveryMiddleware(logger *observability.Logger, respond ErrorResponder) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if respond == nil {
		respond = func(c *gin.Context, err error) {
			var appErr *contextutils.AppError
			if !contextutils.AsError(err, &appErr) {
				appErr = contextutils.ErrInternalError
			}
			c.JSON(http.StatusInternalServerError, appErr.ToJSON())
		}
	}

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := string(debug.Stack())

				// Convert panic value to error if needed
				var panicErr error
				if e, ok := r.(error); ok {
					panicErr = e
				} else {
					panicErr = fmt.Errorf("panic: %v", r)
				}

				logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
					"method":      c.Request.Method,
					"path":        c.Request.URL.Path,
					"stack_trace": stackTrace,
				})

				appErr := contextutils.NewAppErrorWithCause(
					contextutils.ErrorCodeInternalError,
					contextutils.SeverityFatal,
					"Internal server error",
					"A panic occurred while processing the request",
					panicErr,
				)

				// Add stack trace to error details in development
				if gin.Mode() == gin.DebugMode {
					appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
				}

				_ = c.Error(appErr)
				respond(c, appErr)
				c.Abort()
			}
		}()

		c.Next()
	}
}
