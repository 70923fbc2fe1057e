package observability

import (
	"errors"

	"tutorapp/internal/config"
	contextutils "tutorapp/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string, opts ...otelgin.Option) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, opts...)
}

// GinMiddlewareWithErrorHandling returns the otelgin server middleware followed by a
// handler that annotates the request span when the response status is 4xx or 5xx.
// Register both: router.Use(GinMiddlewareWithErrorHandling("svc")...)
func GinMiddlewareWithErrorHandling(serviceName string, opts ...otelgin.Option) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName, opts...), errorAttributes}
}

// errorAttributes runs inside the otelgin span, so the span is still open after c.Next
func errorAttributes(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	statusCode := c.Writer.Status()
	if statusCode < 400 || !span.IsRecording() {
		return
	}

	severity := determineErrorSeverity(statusCode, c.Errors)

	errorMsg := "client error"
	if statusCode >= 500 {
		errorMsg = "server error"
	}
	appErr := firstAppError(c.Errors)
	switch {
	case appErr != nil:
		errorMsg = appErr.Message
	case len(c.Errors) > 0:
		errorMsg = c.Errors.Last().Error()
	}

	span.RecordError(errors.New(errorMsg), trace.WithStackTrace(true))
	span.SetStatus(codes.Error, errorMsg)
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.path", c.Request.URL.Path),
		attribute.String("error.handler", c.HandlerName()),
		attribute.String("error.severity", severity),
	)

	// Only look at the cookie session when the sessions middleware ran
	if _, ok := c.Get(sessions.DefaultKey); ok {
		if id, ok := sessions.Default(c).Get(config.SessionIDKey).(string); ok {
			span.SetAttributes(AttributeSessionID(id))
		}
	}

	if c.Request.ContentLength > 0 {
		span.SetAttributes(attribute.Int64("error.request_size", c.Request.ContentLength))
	}

	if appErr != nil {
		span.SetAttributes(
			attribute.String("error.code", string(appErr.Code)),
			attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
		)
	}

	if statusCode >= 500 {
		span.SetAttributes(attribute.Bool("error.server_error", true))
	}
}

func firstAppError(errs []*gin.Error) *contextutils.AppError {
	for _, err := range errs {
		var appErr *contextutils.AppError
		if errors.As(err.Err, &appErr) {
			return appErr
		}
	}
	return nil
}

// determineErrorSeverity determines the severity level based on status code and error types
func determineErrorSeverity(statusCode int, errs []*gin.Error) string {
	if appErr := firstAppError(errs); appErr != nil {
		return string(appErr.Severity)
	}

	switch {
	case statusCode >= 500:
		return string(contextutils.SeverityError)
	case statusCode >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
