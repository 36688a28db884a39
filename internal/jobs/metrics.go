package jobs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gcbaptista/go-cmicot/model"
)

const (
	metricsNamespace = "cmicot"
	jobsSubsystem    = "jobs"
)

// JobMetricsData represents job metrics data without mutex (safe for copying).
type JobMetricsData struct {
	JobsCreated          int64                     `json:"jobs_created"`
	JobsCompleted        int64                     `json:"jobs_completed"`
	JobsFailed           int64                     `json:"jobs_failed"`
	JobsCancelled        int64                     `json:"jobs_cancelled"`
	TotalExecutionTime   time.Duration             `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration             `json:"average_execution_time_ns"`
	JobsByType           map[model.JobType]int64   `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64 `json:"jobs_by_status"`
	LastUpdated          time.Time                 `json:"last_updated"`

	AverageExecutionTimeByType map[model.JobType]time.Duration `json:"average_execution_time_by_type_ns"`
}

// JobMetrics keeps counters for the JSON stats endpoint and mirrors them
// into Prometheus collectors registered on the manager's registry.
type JobMetrics struct {
	mu                   sync.RWMutex
	jobsCreated          int64
	jobsCompleted        int64
	jobsFailed           int64
	jobsCancelled        int64
	totalExecutionTime   time.Duration
	jobsByType           map[model.JobType]int64
	jobsByStatus         map[model.JobStatus]int64
	executionTimesByType map[model.JobType][]time.Duration
	lastUpdated          time.Time

	createdTotal  *prometheus.CounterVec
	finishedTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	active        prometheus.Gauge
}

// NewJobMetrics creates a new metrics collector whose Prometheus collectors are registered on reg.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	factory := promauto.With(reg)
	return &JobMetrics{
		jobsByType:           make(map[model.JobType]int64),
		jobsByStatus:         make(map[model.JobStatus]int64),
		executionTimesByType: make(map[model.JobType][]time.Duration),
		lastUpdated:          time.Now(),

		createdTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: jobsSubsystem,
			Name:      "created_total",
			Help:      "Total jobs created by type",
		}, []string{"type"}),
		finishedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: jobsSubsystem,
			Name:      "finished_total",
			Help:      "Total jobs finished by type and final status",
		}, []string{"type", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: jobsSubsystem,
			Name:      "duration_seconds",
			Help:      "Job execution time in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 1800, 7200},
		}, []string{"type"}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: jobsSubsystem,
			Name:      "active",
			Help:      "Jobs currently pending or running",
		}),
	}
}

// RecordJobCreated increments job creation counter.
func (m *JobMetrics) RecordJobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.jobsCreated++
	m.jobsByType[jobType]++
	m.jobsByStatus[model.JobStatusPending]++
	m.lastUpdated = time.Now()

	m.createdTotal.WithLabelValues(string(jobType)).Inc()
	m.active.Inc()
}

// RecordJobStatusChange updates status counters.
func (m *JobMetrics) RecordJobStatusChange(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" {
		m.jobsByStatus[oldStatus]--
		if m.jobsByStatus[oldStatus] < 0 {
			m.jobsByStatus[oldStatus] = 0
		}
	}
	m.jobsByStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordJobFinished records the final status and execution time of a job.
func (m *JobMetrics) RecordJobFinished(jobType model.JobType, status model.JobStatus, executionTime time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch status {
	case model.JobStatusCompleted:
		m.jobsCompleted++
		m.totalExecutionTime += executionTime
		m.executionTimesByType[jobType] = append(m.executionTimesByType[jobType], executionTime)
		// Keep only the last 100 execution times per type
		if len(m.executionTimesByType[jobType]) > 100 {
			m.executionTimesByType[jobType] = m.executionTimesByType[jobType][1:]
		}
	case model.JobStatusCancelled:
		m.jobsCancelled++
	default:
		m.jobsFailed++
	}
	m.lastUpdated = time.Now()

	m.finishedTotal.WithLabelValues(string(jobType), string(status)).Inc()
	m.duration.WithLabelValues(string(jobType)).Observe(executionTime.Seconds())
	m.active.Dec()
}

// GetMetrics returns a copy of current metrics without mutex (safe for copying).
func (m *JobMetrics) GetMetrics() JobMetricsData {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobsByType := make(map[model.JobType]int64, len(m.jobsByType))
	for k, v := range m.jobsByType {
		jobsByType[k] = v
	}
	jobsByStatus := make(map[model.JobStatus]int64, len(m.jobsByStatus))
	for k, v := range m.jobsByStatus {
		jobsByStatus[k] = v
	}

	averageByType := make(map[model.JobType]time.Duration, len(m.executionTimesByType))
	for jobType, times := range m.executionTimesByType {
		averageByType[jobType] = averageDuration(times)
	}

	var average time.Duration
	if m.jobsCompleted > 0 {
		average = m.totalExecutionTime / time.Duration(m.jobsCompleted)
	}

	return JobMetricsData{
		JobsCreated:          m.jobsCreated,
		JobsCompleted:        m.jobsCompleted,
		JobsFailed:           m.jobsFailed,
		JobsCancelled:        m.jobsCancelled,
		TotalExecutionTime:   m.totalExecutionTime,
		AverageExecutionTime: average,
		JobsByType:           jobsByType,
		JobsByStatus:         jobsByStatus,
		LastUpdated:          m.lastUpdated,

		AverageExecutionTimeByType: averageByType,
	}
}

func averageDuration(times []time.Duration) time.Duration {
	if len(times) == 0 {
		return 0
	}

	var total time.Duration
	for _, t := range times {
		total += t
	}
	return total / time.Duration(len(times))
}

// GetSuccessRate returns the share of finished jobs that completed, 1.0 when none finished.
func (m *JobMetrics) GetSuccessRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	finished := m.jobsCompleted + m.jobsFailed
	if finished == 0 {
		return 1.0
	}
	return float64(m.jobsCompleted) / float64(finished)
}

// GetCurrentWorkload returns the number of currently active jobs.
func (m *JobMetrics) GetCurrentWorkload() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.jobsByStatus[model.JobStatusPending] + m.jobsByStatus[model.JobStatusRunning] + m.jobsByStatus[model.JobStatusCancelling]
}
