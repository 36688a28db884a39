package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIndexOutOfRangeError(t *testing.T) {
	err := NewIndexOutOfRangeError("bin", 7, 5)

	expectedMsg := "bin index 7 is out of range [0; 4]"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Error("Expected error to match ErrIndexOutOfRange sentinel")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("Error should not match ErrInvalidInput")
	}

	empty := NewIndexOutOfRangeError("feature", 0, 0)
	expectedMsg = "feature index 0 is out of range, there are no features"
	if empty.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, empty.Error())
	}
}

func TestInsufficientContextError(t *testing.T) {
	err := NewInsufficientContextError(3, 7)

	expectedMsg := "not enough enabled bins: 3 enabled, must be at least 7"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrInsufficientContext) {
		t.Error("Expected error to match ErrInsufficientContext sentinel")
	}
}

func TestCapacityExceededError(t *testing.T) {
	err := NewCapacityExceededError(64)

	if !errors.Is(err, ErrCapacityExceeded) {
		t.Error("Expected error to match ErrCapacityExceeded sentinel")
	}
	if err.Max != 64 {
		t.Errorf("Expected Max 64, got %d", err.Max)
	}
}

func TestParseError(t *testing.T) {
	err := NewParseError(12, "abc", "not a number")

	expectedMsg := `failed to parse "abc" in line 12: not a number`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	noToken := NewParseError(3, "", "there are 4 columns while line 1 has 5")
	expectedMsg = "line 3: there are 4 columns while line 1 has 5"
	if noToken.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, noToken.Error())
	}

	if !errors.Is(err, ErrMalformedInput) {
		t.Error("Expected error to match ErrMalformedInput sentinel")
	}
}

func TestBinMapError(t *testing.T) {
	err := NewBinMapError(4, "shows up twice in the map")

	expectedMsg := "bin 4 shows up twice in the map"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}
	if !errors.Is(err, ErrMalformedInput) {
		t.Error("Expected error to match ErrMalformedInput sentinel")
	}
}

func TestJobNotFoundError(t *testing.T) {
	jobID := "job-456"
	err := NewJobNotFoundError(jobID)

	expectedMsg := "job with ID 'job-456' not found"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	if !errors.Is(err, ErrJobNotFound) {
		t.Error("Expected error to match ErrJobNotFound sentinel")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("eval_step_count", "must be positive")

	expectedMsg := "validation error for field 'eval_step_count': must be positive"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg, err.Error())
	}

	err2 := NewValidationError("", "general validation error")
	expectedMsg2 := "validation error: general validation error"
	if err2.Error() != expectedMsg2 {
		t.Errorf("Expected error message '%s', got '%s'", expectedMsg2, err2.Error())
	}

	if !errors.Is(err, ErrInvalidInput) {
		t.Error("Expected error to match ErrInvalidInput sentinel")
	}
}

func TestDatasetErrors(t *testing.T) {
	notFound := NewDatasetNotFoundError("credit")
	if notFound.Error() != "dataset named 'credit' not found" {
		t.Errorf("Unexpected error message '%s'", notFound.Error())
	}
	if !errors.Is(notFound, ErrDatasetNotFound) {
		t.Error("Expected error to match ErrDatasetNotFound sentinel")
	}

	exists := NewDatasetAlreadyExistsError("credit")
	if exists.Error() != "dataset named 'credit' already exists" {
		t.Errorf("Unexpected error message '%s'", exists.Error())
	}
	if !errors.Is(exists, ErrDatasetAlreadyExists) {
		t.Error("Expected error to match ErrDatasetAlreadyExists sentinel")
	}
	if errors.Is(exists, ErrDatasetNotFound) {
		t.Error("Error should not match ErrDatasetNotFound")
	}
}

func TestWrappedErrors(t *testing.T) {
	err := fmt.Errorf("reading pool: %w", NewParseError(1, "x", "not a number"))

	if !errors.Is(err, ErrMalformedInput) {
		t.Error("Expected wrapped error to match ErrMalformedInput sentinel")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatal("Expected wrapped error to unwrap to *ParseError")
	}
	if parseErr.Line != 1 {
		t.Errorf("Expected line 1, got %d", parseErr.Line)
	}
}
