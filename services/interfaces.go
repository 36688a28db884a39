// Package services defines the operations the HTTP API needs from the engine.
package services

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/jobs"
	"github.com/gcbaptista/go-cmicot/internal/pool"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
	"github.com/gcbaptista/go-cmicot/model"
)

// ScoreResult is the outcome of scoring one feature of a dataset.
// Exactly one of Feature and CMIM is set, depending on Method.
type ScoreResult struct {
	DatasetName     string                `json:"dataset_name"`
	FeatureIndex    int                   `json:"feature_index"`
	Method          model.ScoreMethod     `json:"method"`
	Policy          string                `json:"policy,omitempty"`
	Normalization   string                `json:"normalization,omitempty"`
	EvalStepCount   int                   `json:"eval_step_count,omitempty"`
	EnabledFeatures []int                 `json:"enabled_features"`
	Score           float64               `json:"score"`
	Feature         *scoring.FeatureScore `json:"feature,omitempty"`
	CMIM            *scoring.CMIMScore    `json:"cmim,omitempty"`
}

// DatasetManager manages the lifecycle of datasets
type DatasetManager interface {
	CreateDatasetFromRawPool(name string, rawPool io.Reader) (model.DatasetInfo, error)
	CreateDatasetFromBinaryPool(name string, binaryPool, binMap io.Reader) (model.DatasetInfo, error)
	GetDataset(name string) (model.DatasetInfo, error)
	ListDatasets() []model.DatasetInfo
	DeleteDataset(name string) error
	ExportDataset(name string, format pool.Format, w io.Writer) error
}

// Selector runs greedy feature selection in the background
type Selector interface {
	StartSelection(datasetName string, req model.SelectionRequest) (string, error) // Returns job ID
	GetSelectionResult(jobID string) (*model.SelectionResult, error)
	ListSelectionResults(datasetName string) []*model.SelectionResult
}

// Scorer scores single features synchronously
type Scorer interface {
	ScoreFeature(datasetName string, req model.ScoreRequest) (*ScoreResult, error)
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(datasetName string, status *model.JobStatus) []*model.Job
	CancelJob(jobID string) error
}

// MetricsProvider exposes the collectors served at /metrics and the job counters
type MetricsProvider interface {
	MetricsGatherer() prometheus.Gatherer
	GetJobMetrics() jobs.JobMetricsData
	GetJobSuccessRate() float64
	GetCurrentWorkload() int64
}

// SelectionService is everything the HTTP API uses
type SelectionService interface {
	DatasetManager
	Selector
	Scorer
	JobManager
	MetricsProvider
	SelectionSettings() config.SelectionSettings
}
