// Package testing provides utilities and helpers for testing the feature selection engine.
package testing

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/model"
)

// NewRand creates a deterministic random source for a test.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// RandomBin returns a bin of the given size where exactly onesPercent percent of the values are set.
func RandomBin(r *rand.Rand, size, onesPercent int) features.Bin {
	bin := make(features.Bin, size)
	for i := 0; i < onesPercent*size/100; i++ {
		bin[i] = true
	}
	r.Shuffle(len(bin), func(i, j int) { bin[i], bin[j] = bin[j], bin[i] })
	return bin
}

// RandomFeature returns binCount independent random bins with half of the values set.
func RandomFeature(r *rand.Rand, binCount, size int) []features.Bin {
	bins := make([]features.Bin, binCount)
	for i := range bins {
		bins[i] = RandomBin(r, size, 50)
	}
	return bins
}

// RemoveInfo clears percent percent of the positions of a copy of bin, chosen at random.
func RemoveInfo(r *rand.Rand, bin features.Bin, percent int) features.Bin {
	result := make(features.Bin, len(bin))
	copy(result, bin)
	positions := r.Perm(len(bin))
	for _, p := range positions[:percent*len(positions)/100] {
		result[p] = false
	}
	return result
}

// InvertPermutation returns q such that q[p[i]] = i.
func InvertPermutation(permutation []int) []int {
	result := make([]int, len(permutation))
	for i, p := range permutation {
		result[p] = i
	}
	return result
}

// MakeRandomFeatures builds featureCount random features whose sizes are drawn from [minBins, maxBins).
func MakeRandomFeatures(t testing.TB, r *rand.Rand, featureCount, size, minBins, maxBins int) *features.FeatureSet {
	t.Helper()
	fs := features.NewFeatureSet()
	for i := 0; i < featureCount; i++ {
		binCount := minBins
		if maxBins > minBins {
			binCount = minBins + r.IntN(maxBins-minBins)
		}
		_, err := fs.AddFeature(RandomFeature(r, binCount, size))
		require.NoError(t, err)
	}
	return fs
}

// MakeRandomLabel builds a one-feature label with a bin count drawn from [minBins, maxBins).
func MakeRandomLabel(t testing.TB, r *rand.Rand, size, minBins, maxBins int) *features.FeatureSet {
	t.Helper()
	return MakeRandomFeatures(t, r, 1, size, minBins, maxBins)
}

// MustFeatureSet builds a feature set from literal features.
func MustFeatureSet(t testing.TB, featureBins ...[]features.Bin) *features.FeatureSet {
	t.Helper()
	fs := features.NewFeatureSet()
	for _, bins := range featureBins {
		_, err := fs.AddFeature(bins)
		require.NoError(t, err)
	}
	return fs
}

// JobGetter is the part of a job manager needed to poll jobs.
type JobGetter interface {
	GetJob(jobID string) (*model.Job, error)
}

// JobPollingOptions configures job polling behavior.
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling.
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      30 * time.Second,
		PollInterval: 20 * time.Millisecond,
		LogProgress:  false,
	}
}

// WaitForJobCompletion polls a job until it completes or times out.
func WaitForJobCompletion(t *testing.T, jobs JobGetter, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
		case <-ticker.C:
			job, err := jobs.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			switch job.Status {
			case model.JobStatusCompleted:
				if opts.LogProgress {
					t.Logf("Job %s completed successfully in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
				}
				return job
			case model.JobStatusFailed:
				t.Fatalf("Job %s failed: %s", jobID, job.Error)
			case model.JobStatusRunning:
				if opts.LogProgress && job.Progress != nil {
					t.Logf("Job %s progress: %d/%d - %s",
						jobID, job.Progress.Current, job.Progress.Total, job.Progress.Message)
				}
			}
		}
	}
}
