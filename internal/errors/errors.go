package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrIndexOutOfRange is returned when a bin, feature or sample index is out of bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInsufficientContext is returned when fewer bins are enabled than a search needs.
	ErrInsufficientContext = errors.New("not enough enabled bins")

	// ErrCapacityExceeded is carried by the panic raised when an entropy counter overflows.
	ErrCapacityExceeded = errors.New("entropy counter capacity exceeded")

	// ErrMalformedInput is returned when a pool or a bin map cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrJobNotFound is returned when a job is not found.
	ErrJobNotFound = errors.New("job not found")

	// ErrDatasetNotFound is returned when a dataset is not found.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrDatasetAlreadyExists is returned when trying to register a dataset name twice.
	ErrDatasetAlreadyExists = errors.New("dataset already exists")
)

// IndexOutOfRangeError represents an out of bounds index with context.
type IndexOutOfRangeError struct {
	Kind  string
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	if e.Size == 0 {
		return fmt.Sprintf("%s index %d is out of range, there are no %ss", e.Kind, e.Index, e.Kind)
	}
	return fmt.Sprintf("%s index %d is out of range [0; %d]", e.Kind, e.Index, e.Size-1)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// NewIndexOutOfRangeError creates a new IndexOutOfRangeError.
func NewIndexOutOfRangeError(kind string, index, size int) *IndexOutOfRangeError {
	return &IndexOutOfRangeError{Kind: kind, Index: index, Size: size}
}

// InsufficientContextError reports how many bins were enabled and how many were required.
type InsufficientContextError struct {
	Enabled  int
	Required int
}

func (e *InsufficientContextError) Error() string {
	return fmt.Sprintf("not enough enabled bins: %d enabled, must be at least %d", e.Enabled, e.Required)
}

func (e *InsufficientContextError) Is(target error) bool {
	return target == ErrInsufficientContext
}

// NewInsufficientContextError creates a new InsufficientContextError.
func NewInsufficientContextError(enabled, required int) *InsufficientContextError {
	return &InsufficientContextError{Enabled: enabled, Required: required}
}

// CapacityExceededError is the panic value of an overflowing entropy counter.
type CapacityExceededError struct {
	Max int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("you can use no more than %d bins in one entropy counter", e.Max)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

// NewCapacityExceededError creates a new CapacityExceededError.
func NewCapacityExceededError(max int) *CapacityExceededError {
	return &CapacityExceededError{Max: max}
}

// ParseError locates a bad record in pool or map input.
type ParseError struct {
	Line   int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("failed to parse %q in line %d: %s", e.Token, e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewParseError creates a new ParseError.
func NewParseError(line int, token, reason string) *ParseError {
	return &ParseError{Line: line, Token: token, Reason: reason}
}

// BinMapError represents an inconsistent bin to feature map.
type BinMapError struct {
	BinIndex int
	Message  string
}

func (e *BinMapError) Error() string {
	return fmt.Sprintf("bin %d %s", e.BinIndex, e.Message)
}

func (e *BinMapError) Is(target error) bool {
	return target == ErrMalformedInput
}

// NewBinMapError creates a new BinMapError.
func NewBinMapError(binIndex int, message string) *BinMapError {
	return &BinMapError{BinIndex: binIndex, Message: message}
}

// JobNotFoundError represents a job not found error with context.
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError.
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DatasetNotFoundError represents a dataset not found error with context.
type DatasetNotFoundError struct {
	Name string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset named '%s' not found", e.Name)
}

func (e *DatasetNotFoundError) Is(target error) bool {
	return target == ErrDatasetNotFound
}

// NewDatasetNotFoundError creates a new DatasetNotFoundError.
func NewDatasetNotFoundError(name string) *DatasetNotFoundError {
	return &DatasetNotFoundError{Name: name}
}

// DatasetAlreadyExistsError represents a duplicate dataset registration.
type DatasetAlreadyExistsError struct {
	Name string
}

func (e *DatasetAlreadyExistsError) Error() string {
	return fmt.Sprintf("dataset named '%s' already exists", e.Name)
}

func (e *DatasetAlreadyExistsError) Is(target error) bool {
	return target == ErrDatasetAlreadyExists
}

// NewDatasetAlreadyExistsError creates a new DatasetAlreadyExistsError.
func NewDatasetAlreadyExistsError(name string) *DatasetAlreadyExistsError {
	return &DatasetAlreadyExistsError{Name: name}
}
