package model

import "time"

// FeaturePick counts how often selections on a dataset picked a feature
type FeaturePick struct {
	FeatureIndex int     `json:"feature_index"`
	PickCount    int     `json:"pick_count"`
	AverageRank  float64 `json:"average_rank"` // 1 is the first feature picked
}

// DatasetStats represents statistics for a specific dataset
type DatasetStats struct {
	DatasetName      string        `json:"dataset_name"`
	Source           DatasetSource `json:"source"`
	SampleCount      int           `json:"sample_count"`
	FeatureCount     int           `json:"feature_count"`
	BinCount         int           `json:"bin_count"`
	SelectionCount   int           `json:"selection_count"`
	ActiveJobs       int           `json:"active_jobs"`
	AvgSelectionTime int64         `json:"avg_selection_time"` // in milliseconds
	LastSelectionAt  *time.Time    `json:"last_selection_at,omitempty"`
	TopFeatures      []FeaturePick `json:"top_features"`
}

// JobStatusStats counts the jobs the service currently knows in each status
type JobStatusStats struct {
	Pending    int `json:"pending"`
	Running    int `json:"running"`
	Cancelling int `json:"cancelling"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
}

// SelectionDurationDistribution represents selection duration buckets
type SelectionDurationDistribution struct {
	Bucket0To1s      int     `json:"bucket_0_1s"`
	Bucket1To10s     int     `json:"bucket_1_10s"`
	Bucket10To60s    int     `json:"bucket_10_60s"`
	Bucket60sPlus    int     `json:"bucket_60s_plus"`
	Percentage0To1   float64 `json:"percentage_0_1"`
	Percentage1To10  float64 `json:"percentage_1_10"`
	Percentage10To60 float64 `json:"percentage_10_60"`
	Percentage60Plus float64 `json:"percentage_60_plus"`
}

// SelectionPerformanceHourly represents the selections finished in one hour of the day
type SelectionPerformanceHourly struct {
	Hour             int   `json:"hour"`
	SelectionCount   int   `json:"selection_count"`
	AvgSelectionTime int64 `json:"avg_selection_time"` // in milliseconds
}

// SystemHealth represents process health metrics
type SystemHealth struct {
	MemoryUsage   float64 `json:"memory_usage_percent"`
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	Goroutines    int     `json:"goroutines"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	// Summary metrics
	TotalDatasets     int   `json:"total_datasets"`
	TotalSamples      int   `json:"total_samples"`
	TotalFeatures     int   `json:"total_features"`
	TotalBins         int   `json:"total_bins"`
	TotalSelections   int   `json:"total_selections"`
	SelectionsLast24h int   `json:"selections_last_24h"`
	AvgSelectionTime  int64 `json:"avg_selection_time"` // in milliseconds

	// Detailed analytics
	Jobs                 JobStatusStats                `json:"jobs"`
	SelectionPerformance []SelectionPerformanceHourly  `json:"selection_performance_24h"`
	DatasetUsage         []DatasetStats                `json:"dataset_usage"`
	DurationDistribution SelectionDurationDistribution `json:"duration_distribution"`
	SystemHealth         SystemHealth                  `json:"system_health"`
	GeneratedAt          time.Time                     `json:"generated_at"`
}
