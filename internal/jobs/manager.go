// Package jobs runs long operations such as feature selection in the background
// and tracks their status and progress.
package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/model"
)

// JobFunc is the body of a job. It must return once ctx is cancelled.
type JobFunc func(ctx context.Context, job model.Job) error

// Manager handles background job execution and tracking.
type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*model.Job
	cancels  map[string]context.CancelFunc
	workers  chan struct{} // Limits concurrent jobs
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	metrics  *JobMetrics
	registry *prometheus.Registry
}

// NewManager creates a new job manager running at most maxWorkers jobs at a time.
func NewManager(maxWorkers int) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	registry := prometheus.NewRegistry()
	return &Manager{
		jobs:     make(map[string]*model.Job),
		cancels:  make(map[string]context.CancelFunc),
		workers:  make(chan struct{}, maxWorkers),
		stopChan: make(chan struct{}),
		metrics:  NewJobMetrics(registry),
		registry: registry,
	}
}

// Start begins the job manager and starts background cleanup.
func (m *Manager) Start() {
	log.Printf("Job manager started with %d max workers", cap(m.workers))
	go m.cleanupRoutine()
}

// Stop cancels every unfinished job and waits for the running ones to return.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)

		m.mu.Lock()
		for _, cancel := range m.cancels {
			cancel()
		}
		m.mu.Unlock()

		m.wg.Wait()
		log.Printf("Job manager stopped")
	})
}

// CreateJob creates a new job and returns its ID.
func (m *Manager) CreateJob(jobType model.JobType, datasetName string, metadata map[string]string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := &model.Job{
		ID:          uuid.New().String(),
		Type:        jobType,
		Status:      model.JobStatusPending,
		DatasetName: datasetName,
		CreatedAt:   time.Now(),
		Metadata:    metadata,
	}

	m.jobs[job.ID] = job
	m.metrics.RecordJobCreated(jobType)
	log.Printf("Created job %s (type: %s) for dataset '%s'", job.ID, job.Type, job.DatasetName)
	return job.ID
}

// GetJob retrieves a copy of a job by ID.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return nil, errors.NewJobNotFoundError(jobID)
	}
	return copyJob(job), nil
}

// ListJobs returns the jobs of a dataset, or of every dataset when datasetName is empty,
// optionally filtered by status. Jobs are ordered by creation time.
func (m *Manager) ListJobs(datasetName string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*model.Job, 0)
	for _, job := range m.jobs {
		if datasetName != "" && job.DatasetName != datasetName {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, copyJob(job))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// ExecuteJob runs a pending job in a goroutine. The job stays pending until a
// worker slot frees up.
func (m *Manager) ExecuteJob(jobID string, jobFunc JobFunc) error {
	m.mu.Lock()
	select {
	case <-m.stopChan:
		m.mu.Unlock()
		return fmt.Errorf("job manager is shutting down")
	default:
	}

	job, exists := m.jobs[jobID]
	if !exists {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return errors.NewValidationError("job_id",
			fmt.Sprintf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status))
	}
	if _, started := m.cancels[jobID]; started {
		m.mu.Unlock()
		return errors.NewValidationError("job_id", fmt.Sprintf("job with ID '%s' is already scheduled", jobID))
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancels[jobID] = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer cancel()

		select {
		case m.workers <- struct{}{}:
		case <-ctx.Done():
			m.finishJob(jobID, model.JobStatusCancelled, "Job cancelled before it started", 0)
			return
		}
		defer func() { <-m.workers }()

		snapshot, ok := m.startJob(jobID)
		if !ok {
			m.finishJob(jobID, model.JobStatusCancelled, "Job cancelled before it started", 0)
			return
		}

		startTime := time.Now()
		err := jobFunc(ctx, snapshot)
		executionTime := time.Since(startTime)

		switch {
		case err == nil:
			m.finishJob(jobID, model.JobStatusCompleted, "", executionTime)
			log.Printf("Job %s completed successfully in %v", jobID, executionTime)
		case ctx.Err() != nil && stderrors.Is(err, context.Canceled):
			m.finishJob(jobID, model.JobStatusCancelled, "Job cancelled", executionTime)
			log.Printf("Job %s cancelled after %v", jobID, executionTime)
		default:
			m.finishJob(jobID, model.JobStatusFailed, err.Error(), executionTime)
			log.Printf("Job %s failed after %v: %v", jobID, executionTime, err)
		}
	}()

	return nil
}

// CancelJob asks an unfinished job to stop. The job turns cancelled once its function returns.
func (m *Manager) CancelJob(jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status.IsFinished() {
		return errors.NewValidationError("job_id",
			fmt.Sprintf("job with ID '%s' already finished with status %s", jobID, job.Status))
	}

	cancel, scheduled := m.cancels[jobID]
	if !scheduled {
		m.setStatusLocked(job, model.JobStatusCancelled, "Job cancelled before it started")
		m.metrics.RecordJobFinished(job.Type, model.JobStatusCancelled, 0)
		return nil
	}
	if job.Status != model.JobStatusCancelling {
		m.setStatusLocked(job, model.JobStatusCancelling, "")
	}
	cancel()
	log.Printf("Cancellation requested for job %s", jobID)
	return nil
}

// UpdateJobProgress updates the progress of a running job.
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists {
		return
	}

	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}

	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

// startJob moves a pending job to running and returns a copy for the job function.
func (m *Manager) startJob(jobID string) (model.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job := m.jobs[jobID]
	if job == nil || job.Status != model.JobStatusPending {
		return model.Job{}, false
	}
	now := time.Now()
	job.StartedAt = &now
	m.setStatusLocked(job, model.JobStatusRunning, "")
	return *copyJob(job), true
}

func (m *Manager) finishJob(jobID string, status model.JobStatus, message string, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.cancels, jobID)
	job, exists := m.jobs[jobID]
	if !exists || job.Status.IsFinished() {
		return
	}
	m.setStatusLocked(job, status, message)
	m.metrics.RecordJobFinished(job.Type, status, executionTime)
}

// setStatusLocked updates the status of a job. The caller holds m.mu.
func (m *Manager) setStatusLocked(job *model.Job, status model.JobStatus, errorMsg string) {
	oldStatus := job.Status
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if status.IsFinished() {
		now := time.Now()
		job.CompletedAt = &now
	}
	m.metrics.RecordJobStatusChange(oldStatus, status)
}

// cleanupRoutine runs periodic job cleanup.
func (m *Manager) cleanupRoutine() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(24 * time.Hour)
		case <-m.stopChan:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs older than maxAge and returns their IDs.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var cleaned []string

	for jobID, job := range m.jobs {
		if job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, jobID)
			cleaned = append(cleaned, jobID)
		}
	}

	if len(cleaned) > 0 {
		log.Printf("Cleaned up %d old jobs", len(cleaned))
	}
	return cleaned
}

// Registry returns the Prometheus registry holding the job collectors.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// GetMetrics returns current job performance metrics.
func (m *Manager) GetMetrics() JobMetricsData {
	return m.metrics.GetMetrics()
}

// GetJobSuccessRate returns the overall job success rate.
func (m *Manager) GetJobSuccessRate() float64 {
	return m.metrics.GetSuccessRate()
}

// GetCurrentWorkload returns the number of currently active jobs.
func (m *Manager) GetCurrentWorkload() int64 {
	return m.metrics.GetCurrentWorkload()
}

func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy
}
