// Package analytics summarizes datasets, jobs and selection results into a dashboard.
package analytics

import (
	"runtime"
	"sort"
	"time"

	"github.com/gcbaptista/go-cmicot/model"
)

const topFeatureCount = 5

// Source is what the dashboard reads from. services.SelectionService satisfies it.
type Source interface {
	ListDatasets() []model.DatasetInfo
	ListJobs(datasetName string, status *model.JobStatus) []*model.Job
	ListSelectionResults(datasetName string) []*model.SelectionResult
}

// Service builds analytics dashboards on demand.
type Service struct {
	source    Source
	startedAt time.Time
	now       func() time.Time
}

// NewService creates a new analytics service.
func NewService(source Source) *Service {
	return &Service{
		source:    source,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// GetDashboardData returns complete analytics dashboard data.
func (s *Service) GetDashboardData() (model.AnalyticsDashboard, error) {
	now := s.now()
	yesterday := now.Add(-24 * time.Hour)

	datasets := s.source.ListDatasets()
	jobs := s.source.ListJobs("", nil)
	results := s.source.ListSelectionResults("")
	last24hResults := filterResultsByTime(results, yesterday)

	dashboard := model.AnalyticsDashboard{
		TotalDatasets:        len(datasets),
		TotalSelections:      len(results),
		SelectionsLast24h:    len(last24hResults),
		AvgSelectionTime:     calculateAvgSelectionTime(results),
		Jobs:                 getJobStatusStats(jobs),
		SelectionPerformance: getHourlyPerformance(last24hResults),
		DatasetUsage:         getDatasetUsage(datasets, jobs, results),
		DurationDistribution: getDurationDistribution(results),
		SystemHealth:         s.getSystemHealth(now),
		GeneratedAt:          now,
	}
	for _, info := range datasets {
		dashboard.TotalSamples += info.SampleCount
		dashboard.TotalFeatures += info.FeatureCount
		dashboard.TotalBins += info.BinCount
	}

	return dashboard, nil
}

// filterResultsByTime returns results completed after the given time.
func filterResultsByTime(results []*model.SelectionResult, after time.Time) []*model.SelectionResult {
	var filtered []*model.SelectionResult
	for _, result := range results {
		if result.CompletedAt.After(after) {
			filtered = append(filtered, result)
		}
	}
	return filtered
}

// calculateAvgSelectionTime calculates the average selection duration in milliseconds.
func calculateAvgSelectionTime(results []*model.SelectionResult) int64 {
	if len(results) == 0 {
		return 0
	}

	var total time.Duration
	for _, result := range results {
		total += result.Duration
	}
	return (total / time.Duration(len(results))).Milliseconds()
}

func getJobStatusStats(jobs []*model.Job) model.JobStatusStats {
	var stats model.JobStatusStats
	for _, job := range jobs {
		switch job.Status {
		case model.JobStatusPending:
			stats.Pending++
		case model.JobStatusRunning:
			stats.Running++
		case model.JobStatusCancelling:
			stats.Cancelling++
		case model.JobStatusCompleted:
			stats.Completed++
		case model.JobStatusFailed:
			stats.Failed++
		case model.JobStatusCancelled:
			stats.Cancelled++
		}
	}
	return stats
}

// getHourlyPerformance groups results by the hour of the day they completed in.
func getHourlyPerformance(results []*model.SelectionResult) []model.SelectionPerformanceHourly {
	hourlyData := make(map[int][]*model.SelectionResult)
	for _, result := range results {
		hour := result.CompletedAt.Hour()
		hourlyData[hour] = append(hourlyData[hour], result)
	}

	performance := make([]model.SelectionPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		performance = append(performance, model.SelectionPerformanceHourly{
			Hour:             hour,
			SelectionCount:   len(hourlyData[hour]),
			AvgSelectionTime: calculateAvgSelectionTime(hourlyData[hour]),
		})
	}
	return performance
}

// getDatasetUsage returns usage statistics for each dataset, in the order of datasets.
func getDatasetUsage(datasets []model.DatasetInfo, jobs []*model.Job, results []*model.SelectionResult) []model.DatasetStats {
	resultsByDataset := make(map[string][]*model.SelectionResult)
	for _, result := range results {
		resultsByDataset[result.DatasetName] = append(resultsByDataset[result.DatasetName], result)
	}
	activeJobs := make(map[string]int)
	for _, job := range jobs {
		if !job.Status.IsFinished() {
			activeJobs[job.DatasetName]++
		}
	}

	usage := make([]model.DatasetStats, 0, len(datasets))
	for _, info := range datasets {
		datasetResults := resultsByDataset[info.Name]
		stats := model.DatasetStats{
			DatasetName:      info.Name,
			Source:           info.Source,
			SampleCount:      info.SampleCount,
			FeatureCount:     info.FeatureCount,
			BinCount:         info.BinCount,
			SelectionCount:   len(datasetResults),
			ActiveJobs:       activeJobs[info.Name],
			AvgSelectionTime: calculateAvgSelectionTime(datasetResults),
			TopFeatures:      getTopFeatures(datasetResults),
		}
		for _, result := range datasetResults {
			if stats.LastSelectionAt == nil || result.CompletedAt.After(*stats.LastSelectionAt) {
				completedAt := result.CompletedAt
				stats.LastSelectionAt = &completedAt
			}
		}
		usage = append(usage, stats)
	}
	return usage
}

// getTopFeatures returns the features picked most often, earlier average ranks first on ties.
func getTopFeatures(results []*model.SelectionResult) []model.FeaturePick {
	type pickCount struct {
		count   int
		rankSum int
	}
	counts := make(map[int]*pickCount)
	for _, result := range results {
		for i, feature := range result.SelectedFeatures {
			pc, ok := counts[feature]
			if !ok {
				pc = &pickCount{}
				counts[feature] = pc
			}
			pc.count++
			pc.rankSum += i + 1
		}
	}

	picks := make([]model.FeaturePick, 0, len(counts))
	for feature, pc := range counts {
		picks = append(picks, model.FeaturePick{
			FeatureIndex: feature,
			PickCount:    pc.count,
			AverageRank:  float64(pc.rankSum) / float64(pc.count),
		})
	}

	sort.Slice(picks, func(i, j int) bool {
		if picks[i].PickCount != picks[j].PickCount {
			return picks[i].PickCount > picks[j].PickCount
		}
		if picks[i].AverageRank != picks[j].AverageRank {
			return picks[i].AverageRank < picks[j].AverageRank
		}
		return picks[i].FeatureIndex < picks[j].FeatureIndex
	})

	if len(picks) > topFeatureCount {
		picks = picks[:topFeatureCount]
	}
	return picks
}

// getDurationDistribution returns the selection duration distribution.
func getDurationDistribution(results []*model.SelectionResult) model.SelectionDurationDistribution {
	dist := model.SelectionDurationDistribution{}
	total := len(results)
	if total == 0 {
		return dist
	}

	for _, result := range results {
		switch d := result.Duration; {
		case d <= time.Second:
			dist.Bucket0To1s++
		case d <= 10*time.Second:
			dist.Bucket1To10s++
		case d <= time.Minute:
			dist.Bucket10To60s++
		default:
			dist.Bucket60sPlus++
		}
	}

	dist.Percentage0To1 = float64(dist.Bucket0To1s) / float64(total) * 100
	dist.Percentage1To10 = float64(dist.Bucket1To10s) / float64(total) * 100
	dist.Percentage10To60 = float64(dist.Bucket10To60s) / float64(total) * 100
	dist.Percentage60Plus = float64(dist.Bucket60sPlus) / float64(total) * 100

	return dist
}

// getSystemHealth returns current process health metrics.
func (s *Service) getSystemHealth(now time.Time) model.SystemHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	memoryUsage := 0.0
	if m.Sys > 0 {
		memoryUsage = float64(m.Alloc) / float64(m.Sys) * 100
	}

	return model.SystemHealth{
		MemoryUsage:   memoryUsage,
		HeapAllocMB:   float64(m.HeapAlloc) / (1 << 20),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(now.Sub(s.startedAt).Seconds()),
	}
}
