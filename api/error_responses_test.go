package api

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/model"
	"github.com/gcbaptista/go-cmicot/services"
)

// stubService answers every call it implements with err. Calls it does not
// implement panic on the nil embedded interface.
type stubService struct {
	services.SelectionService
	err error
}

func (s *stubService) CreateDatasetFromRawPool(name string, rawPool io.Reader) (model.DatasetInfo, error) {
	return model.DatasetInfo{}, s.err
}

func (s *stubService) StartSelection(datasetName string, req model.SelectionRequest) (string, error) {
	return "", s.err
}

func (s *stubService) ScoreFeature(datasetName string, req model.ScoreRequest) (*services.ScoreResult, error) {
	return nil, s.err
}

func (s *stubService) GetSelectionResult(jobID string) (*model.SelectionResult, error) {
	return nil, s.err
}

func (s *stubService) MetricsGatherer() prometheus.Gatherer {
	return prometheus.NewRegistry()
}

func TestSendServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   ErrorCode
	}{
		{"dataset not found", internalErrors.NewDatasetNotFoundError("d"), http.StatusNotFound, ErrorCodeDatasetNotFound},
		{"job not found", internalErrors.NewJobNotFoundError("j"), http.StatusNotFound, ErrorCodeJobNotFound},
		{"dataset exists", internalErrors.NewDatasetAlreadyExistsError("d"), http.StatusConflict, ErrorCodeDatasetExists},
		{"wrapped parse error", fmt.Errorf("failed to read pool: %w", internalErrors.NewParseError(3, "x", "not a number")), http.StatusBadRequest, ErrorCodeMalformedPool},
		{"validation error", internalErrors.NewValidationError("policy", "unknown"), http.StatusBadRequest, ErrorCodeInvalidRequest},
		{"index out of range", internalErrors.NewIndexOutOfRangeError("feature", 9, 3), http.StatusBadRequest, ErrorCodeInvalidRequest},
		{"insufficient context", internalErrors.NewInsufficientContextError(1, 3), http.StatusUnprocessableEntity, ErrorCodeInsufficientContext},
		{"capacity exceeded", internalErrors.NewCapacityExceededError(64), http.StatusUnprocessableEntity, ErrorCodeCapacityExceeded},
		{"body too large", fmt.Errorf("failed to read pool: %w", &http.MaxBytesError{Limit: 16}), http.StatusRequestEntityTooLarge, ErrorCodeRequestTooLarge},
		{"unknown error", fmt.Errorf("disk on fire"), http.StatusInternalServerError, ErrorCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&stubService{err: tt.err})

			w := performRequest(router, http.MethodPost, "/datasets/any/_select", nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			apiErr := decodeError(t, w)
			if apiErr.Code != tt.expectedCode {
				t.Errorf("Expected code %s, got %s", tt.expectedCode, apiErr.Code)
			}
			if apiErr.Message == "" || apiErr.Timestamp.IsZero() {
				t.Errorf("Expected a message and a timestamp, got %+v", apiErr)
			}
		})
	}
}

func TestGetSelectionResultHandler_NotCompleted(t *testing.T) {
	router := setupTestRouter(&stubService{
		err: internalErrors.NewValidationError("job_id", "job with ID 'j' has no result, its status is running"),
	})

	w := performRequest(router, http.MethodGet, "/jobs/j/result", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d", http.StatusConflict, w.Code)
	}
	if apiErr := decodeError(t, w); apiErr.Code != ErrorCodeJobNotCompleted {
		t.Errorf("Expected code %s, got %s", ErrorCodeJobNotCompleted, apiErr.Code)
	}
}
