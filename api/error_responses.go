package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	ErrorCodeDatasetNotFound     ErrorCode = "DATASET_NOT_FOUND"
	ErrorCodeJobNotFound         ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeDatasetExists       ErrorCode = "DATASET_ALREADY_EXISTS"
	ErrorCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON         ErrorCode = "INVALID_JSON"
	ErrorCodeMalformedPool       ErrorCode = "MALFORMED_POOL"
	ErrorCodeRequestTooLarge     ErrorCode = "REQUEST_TOO_LARGE"
	ErrorCodeInsufficientContext ErrorCode = "INSUFFICIENT_CONTEXT"
	ErrorCodeCapacityExceeded    ErrorCode = "CAPACITY_EXCEEDED"
	ErrorCodeJobNotCompleted     ErrorCode = "JOB_NOT_COMPLETED"
	ErrorCodeJobFinished         ErrorCode = "JOB_ALREADY_FINISHED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendDatasetNotFoundError sends a standardized dataset not found error
func SendDatasetNotFoundError(c *gin.Context, datasetName string) {
	SendError(c, http.StatusNotFound, ErrorCodeDatasetNotFound,
		"Dataset '"+datasetName+"' not found")
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendDatasetExistsError sends a standardized dataset already exists error
func SendDatasetExistsError(c *gin.Context, datasetName string) {
	SendError(c, http.StatusConflict, ErrorCodeDatasetExists,
		"Dataset '"+datasetName+"' already exists")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendJobExecutionError sends a standardized job execution error
func SendJobExecutionError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeJobExecutionFailed,
		"Failed to start "+operation+" job: "+err.Error())
}

// SendServiceError maps an error returned by the selection service to a status code
// and error code. Errors of unknown kind are reported as internal errors of operation.
func SendServiceError(c *gin.Context, operation string, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, internalErrors.ErrDatasetNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeDatasetNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrDatasetAlreadyExists):
		SendError(c, http.StatusConflict, ErrorCodeDatasetExists, err.Error())
	case errors.As(err, &tooLarge):
		SendError(c, http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge, err.Error())
	case errors.Is(err, internalErrors.ErrMalformedInput):
		SendError(c, http.StatusBadRequest, ErrorCodeMalformedPool, err.Error())
	case errors.Is(err, internalErrors.ErrInvalidInput), errors.Is(err, internalErrors.ErrIndexOutOfRange):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
	case errors.Is(err, internalErrors.ErrInsufficientContext):
		SendError(c, http.StatusUnprocessableEntity, ErrorCodeInsufficientContext, err.Error())
	case errors.Is(err, internalErrors.ErrCapacityExceeded):
		SendError(c, http.StatusUnprocessableEntity, ErrorCodeCapacityExceeded, err.Error())
	default:
		SendInternalError(c, operation, err)
	}
}
