package handlers

import (
	"fmt"
	"net/http"

	contextutils "tutorapp/internal/utils"

	"github.com/gin-gonic/gin"
)

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	var errorCode contextutils.ErrorCode
	var severity contextutils.SeverityLevel

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
		severity = contextutils.SeverityWarn
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeMissingCredential
		severity = contextutils.SeverityWarn
	case http.StatusNotFound:
		errorCode = contextutils.ErrorCodeSessionNotFound
		severity = contextutils.SeverityInfo
	case http.StatusServiceUnavailable:
		errorCode = contextutils.ErrorCodeServiceUnavailable
		severity = contextutils.SeverityError
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	appErr := contextutils.NewAppError(errorCode, severity, message, details)

	// Send response with the original status code
	c.JSON(statusCode, errorBody(c, appErr))
}

// StandardizeAppError sends a structured error response using AppError
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	c.JSON(mapErrorCodeToHTTPStatus(err.Code), errorBody(c, err))
}

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	)

	StandardizeAppError(c, appErr)
}

// HandleBindError reports a request body that failed to bind or validate
func HandleBindError(c *gin.Context, err error) {
	StandardizeAppError(c, contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeValidationFailed,
		contextutils.SeverityWarn,
		"Invalid request body",
		err.Error(),
		err,
	))
}

// HandleAppError handles any AppError and sends appropriate HTTP response
func HandleAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		StandardizeAppError(c, appErr)
		return
	}
	// Fallback for non-AppError types
	StandardizeHTTPError(c, http.StatusInternalServerError, "Internal server error", err.Error())
}

// errorBody renders err in the locale named by Accept-Language; English keeps the error's own message
func errorBody(c *gin.Context, err *contextutils.AppError) map[string]interface{} {
	locale := contextutils.ParseLocale(c.GetHeader("Accept-Language"))
	if locale == contextutils.LocaleEnglish {
		return err.ToJSON()
	}
	return err.ToJSONWithLocale(string(locale))
}

// mapErrorCodeToHTTPStatus maps AppError codes to appropriate HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeValidationFailed, contextutils.ErrorCodeEmptySubmission:
		return http.StatusBadRequest

	case contextutils.ErrorCodeMissingCredential:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeSessionNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeNoQuestionPosed:
		return http.StatusConflict

	// 5xx Server Errors
	case contextutils.ErrorCodeOracleUnavailable:
		return http.StatusBadGateway

	case contextutils.ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable

	// Default to internal server error for unknown codes
	default:
		return http.StatusInternalServerError
	}
}
