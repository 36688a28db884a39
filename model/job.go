package model

import (
	"time"
)

// JobStatus represents the status of a long-running job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsFinished reports whether the job will not change status anymore
func (s JobStatus) IsFinished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobType represents the type of job being executed
type JobType string

const (
	JobTypeSelection JobType = "selection"
)

// Job represents a long-running background operation on a dataset
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	DatasetName string            `json:"dataset_name"`
	Progress    *JobProgress      `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobProgress tracks the progress of a job. For selection jobs Current is the
// number of features selected so far.
type JobProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// GetProgressPercentage returns the progress as a percentage (0-100)
func (jp *JobProgress) GetProgressPercentage() float64 {
	if jp.Total == 0 {
		return 0
	}
	return float64(jp.Current) / float64(jp.Total) * 100
}
