package model

import "time"

// SelectionRequest starts a greedy selection on a dataset.
// Zero values fall back to the service's selection settings.
type SelectionRequest struct {
	EvalStepCount int `json:"eval_step_count,omitempty"`
	ThreadCount   int `json:"thread_count,omitempty"`
	SelectCount   int `json:"select_count,omitempty"`
}

// SelectionResult is what a finished selection job produced
type SelectionResult struct {
	JobID            string        `json:"job_id"`
	DatasetName      string        `json:"dataset_name"`
	SelectedFeatures []int         `json:"selected_features"`
	EvalStepCount    int           `json:"eval_step_count"`
	SelectCount      int           `json:"select_count"`
	StartedAt        time.Time     `json:"started_at"`
	CompletedAt      time.Time     `json:"completed_at"`
	Duration         time.Duration `json:"duration_ns"`
}

// ScoreMethod picks how a feature is scored
type ScoreMethod string

const (
	ScoreMethodMiximizer ScoreMethod = "miximizer"
	ScoreMethodCMIM      ScoreMethod = "cmim"
)

// ScoreRequest scores one feature against a context of enabled features.
//
// With no EnabledFeatures every other feature is enabled. Empty names fall back to
// the service's selection settings.
type ScoreRequest struct {
	FeatureIndex    int         `json:"feature_index"`
	EnabledFeatures []int       `json:"enabled_features,omitempty"`
	Method          ScoreMethod `json:"method,omitempty"`
	Policy          string      `json:"policy,omitempty"`
	Normalization   string      `json:"normalization,omitempty"`
	EvalStepCount   int         `json:"eval_step_count,omitempty"`
	ThreadCount     int         `json:"thread_count,omitempty"`
}
