// Package api provides validation utilities for API request handling.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-cmicot/internal/engine"
	"github.com/gcbaptista/go-cmicot/internal/pool"
	"github.com/gcbaptista/go-cmicot/model"
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateDatasetName validates a dataset name parameter
func ValidateDatasetName(datasetName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if datasetName == "" {
		result.AddError("name", "Dataset name is required")
		return result
	}

	if strings.TrimSpace(datasetName) != datasetName {
		result.AddError("name", "Dataset name cannot have leading or trailing whitespace")
		return result
	}

	if err := engine.ValidateDatasetName(datasetName); err != nil {
		result.AddError("name", "Dataset name may only contain letters, digits, '.', '_' or '-' and must start with a letter or digit")
	}

	return result
}

// UploadParts tells which pool files came with a dataset upload
type UploadParts struct {
	Pool       bool
	BinaryPool bool
	BinMap     bool
}

// ValidateDatasetUpload checks that an upload carries either a raw pool or a binary pool with its map
func ValidateDatasetUpload(name string, parts UploadParts) *ValidationResult {
	result := ValidateDatasetName(name)

	switch {
	case parts.Pool && (parts.BinaryPool || parts.BinMap):
		result.AddError("pool", "Upload either a raw pool or a binary pool with its bin map, not both")
	case parts.Pool:
	case parts.BinaryPool && parts.BinMap:
	case parts.BinaryPool:
		result.AddError("bin_map", "A binary pool needs a bin map")
	case parts.BinMap:
		result.AddError("binary_pool", "A bin map needs a binary pool")
	default:
		result.AddError("pool", "A raw pool or a binary pool with its bin map is required")
	}

	return result
}

// ValidateSelectionRequest validates the body of a selection request.
// Zero values are allowed and fall back to the service settings.
func ValidateSelectionRequest(req *model.SelectionRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.EvalStepCount < 0 {
		result.AddError("eval_step_count", "Eval step count cannot be negative")
	}
	if req.ThreadCount < 0 {
		result.AddError("thread_count", "Thread count cannot be negative")
	}
	if req.SelectCount < 0 {
		result.AddError("select_count", "Select count cannot be negative")
	}

	return result
}

// ValidateScoreRequest validates the body of a scoring request
func ValidateScoreRequest(req *model.ScoreRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if req.FeatureIndex < 0 {
		result.AddError("feature_index", "Feature index cannot be negative")
	}
	for i, f := range req.EnabledFeatures {
		if f < 0 {
			result.AddError(fmt.Sprintf("enabled_features[%d]", i), "Feature index cannot be negative")
		}
	}
	switch req.Method {
	case "", model.ScoreMethodMiximizer, model.ScoreMethodCMIM:
	default:
		result.AddError("method", fmt.Sprintf("Unknown score method '%s', use '%s' or '%s'",
			req.Method, model.ScoreMethodMiximizer, model.ScoreMethodCMIM))
	}
	if req.EvalStepCount < 0 {
		result.AddError("eval_step_count", "Eval step count cannot be negative")
	}
	if req.ThreadCount < 0 {
		result.AddError("thread_count", "Thread count cannot be negative")
	}

	return result
}

// ValidateExportFormat parses the format of a dataset export
func ValidateExportFormat(name string) (pool.Format, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	switch format := pool.Format(name); format {
	case pool.FormatPool, pool.FormatBinFeatureMap, pool.FormatFeatureSizes:
		return format, result
	}
	result.AddError("format", fmt.Sprintf("Unknown export format '%s', use '%s', '%s' or '%s'",
		name, pool.FormatPool, pool.FormatBinFeatureMap, pool.FormatFeatureSizes))
	return "", result
}

// ValidateJobStatus parses an optional job status filter
func ValidateJobStatus(status string) (*model.JobStatus, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	if status == "" {
		return nil, result
	}

	switch s := model.JobStatus(status); s {
	case model.JobStatusPending, model.JobStatusRunning, model.JobStatusCancelling,
		model.JobStatusCompleted, model.JobStatusFailed, model.JobStatusCancelled:
		return &s, result
	}
	result.AddError("status", fmt.Sprintf("Unknown job status '%s'", status))
	return nil, result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
