package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/selection"
	"github.com/gcbaptista/go-cmicot/model"
)

// StartSelection starts a greedy selection job on a dataset and returns its ID.
// Job progress counts the features selected so far.
func (e *Engine) StartSelection(datasetName string, req model.SelectionRequest) (string, error) {
	ds, err := e.dataset(datasetName)
	if err != nil {
		return "", err
	}
	settings, err := e.selectionSettings(req)
	if err != nil {
		return "", err
	}
	label, fs := ds.Data()
	if label.BinCount()+2*settings.EvalStepCount > entropy.MaxBinCount {
		return "", errors.NewCapacityExceededError(entropy.MaxBinCount)
	}

	cfg := selection.Config{
		EvalStepCount: settings.EvalStepCount,
		ThreadCount:   settings.ThreadCount,
		FeatureCount:  settings.SelectCount,
	}
	total := selection.SelectionCount(fs, cfg.FeatureCount)

	jobID := e.jobManager.CreateJob(model.JobTypeSelection, datasetName, map[string]string{
		"operation":       "select",
		"eval_step_count": strconv.Itoa(cfg.EvalStepCount),
		"thread_count":    strconv.Itoa(cfg.ThreadCount),
		"select_count":    strconv.Itoa(total),
	})

	err = e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job model.Job) error {
		return e.executeSelectionJob(ctx, job, label, fs, cfg, total)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start selection job: %w", err)
	}
	return jobID, nil
}

// executeSelectionJob runs the caching selection and stores its result.
func (e *Engine) executeSelectionJob(ctx context.Context, job model.Job, label, fs *features.FeatureSet, cfg selection.Config, total int) error {
	startedAt := time.Now()
	selected := make([]int, 0, total)
	e.jobManager.UpdateJobProgress(job.ID, 0, total, "Selecting features")

	err := selection.FastFeatureSelection(label, fs, cfg, func(featureIndex int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		selected = append(selected, featureIndex)
		e.jobManager.UpdateJobProgress(job.ID, len(selected), total, fmt.Sprintf("Selected feature %d", featureIndex))
		return nil
	})
	if err != nil {
		return err
	}

	completedAt := time.Now()
	result := &model.SelectionResult{
		JobID:            job.ID,
		DatasetName:      job.DatasetName,
		SelectedFeatures: selected,
		EvalStepCount:    cfg.EvalStepCount,
		SelectCount:      total,
		StartedAt:        startedAt,
		CompletedAt:      completedAt,
		Duration:         completedAt.Sub(startedAt),
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.datasets[job.DatasetName]; !exists {
		return fmt.Errorf("dataset '%s' was deleted while the selection was running", job.DatasetName)
	}
	if err := e.persistResult(result); err != nil {
		return err
	}
	e.results[job.ID] = result
	log.Printf("Selection job %s on dataset '%s' selected %d features", job.ID, job.DatasetName, len(selected))
	return nil
}

// GetSelectionResult returns the result of a completed selection job.
func (e *Engine) GetSelectionResult(jobID string) (*model.SelectionResult, error) {
	e.mu.RLock()
	result, exists := e.results[jobID]
	e.mu.RUnlock()
	if exists {
		resultCopy := *result
		resultCopy.SelectedFeatures = append([]int(nil), result.SelectedFeatures...)
		return &resultCopy, nil
	}

	job, err := e.jobManager.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	return nil, errors.NewValidationError("job_id",
		fmt.Sprintf("job with ID '%s' has no result, its status is %s", jobID, job.Status))
}

// ListSelectionResults returns the results of a dataset, or of every dataset when
// datasetName is empty, oldest first.
func (e *Engine) ListSelectionResults(datasetName string) []*model.SelectionResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	results := make([]*model.SelectionResult, 0, len(e.results))
	for _, result := range e.results {
		if datasetName != "" && result.DatasetName != datasetName {
			continue
		}
		resultCopy := *result
		resultCopy.SelectedFeatures = append([]int(nil), result.SelectedFeatures...)
		results = append(results, &resultCopy)
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CompletedAt.Equal(results[j].CompletedAt) {
			return results[i].CompletedAt.Before(results[j].CompletedAt)
		}
		return results[i].JobID < results[j].JobID
	})
	return results
}

// GetJob retrieves a job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the jobs of a dataset, or of every dataset when datasetName is empty.
func (e *Engine) ListJobs(datasetName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(datasetName, status)
}

// CancelJob asks a job to stop.
func (e *Engine) CancelJob(jobID string) error {
	return e.jobManager.CancelJob(jobID)
}

// selectionSettings merges a request into the engine settings and validates the result.
func (e *Engine) selectionSettings(req model.SelectionRequest) (config.SelectionSettings, error) {
	settings := e.settings
	if req.EvalStepCount != 0 {
		settings.EvalStepCount = req.EvalStepCount
	}
	if req.ThreadCount != 0 {
		settings.ThreadCount = req.ThreadCount
	}
	if req.SelectCount != 0 {
		settings.SelectCount = req.SelectCount
	}
	if problems := settings.Validate(); len(problems) > 0 {
		return config.SelectionSettings{}, errors.NewValidationError("selection", problems[0])
	}
	return settings, nil
}
