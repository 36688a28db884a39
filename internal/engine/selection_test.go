package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
	"github.com/gcbaptista/go-cmicot/internal/selection"
	testutil "github.com/gcbaptista/go-cmicot/internal/testing"
	"github.com/gcbaptista/go-cmicot/model"
)

func expectedSelection(t *testing.T, label, fs *features.FeatureSet, cfg selection.Config) []int {
	t.Helper()
	var selected []int
	require.NoError(t, selection.FastFeatureSelection(label, fs, cfg, func(f int) error {
		selected = append(selected, f)
		return nil
	}))
	return selected
}

func TestEngine_SelectionJob(t *testing.T) {
	dir := t.TempDir()
	eng := newTestEngine(t, dir)
	label, fs := createBinaryDataset(t, eng, "adult", 5)

	jobID, err := eng.StartSelection("adult", model.SelectionRequest{SelectCount: 4})
	require.NoError(t, err)

	job := testutil.WaitForJobCompletion(t, eng, jobID, testutil.DefaultJobPollingOptions())
	assert.Equal(t, model.JobTypeSelection, job.Type)
	assert.Equal(t, "adult", job.DatasetName)
	require.NotNil(t, job.Progress)
	assert.Equal(t, 4, job.Progress.Current)
	assert.Equal(t, 4, job.Progress.Total)
	assert.Equal(t, "3", job.Metadata["eval_step_count"])

	result, err := eng.GetSelectionResult(jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, result.JobID)
	assert.Equal(t, "adult", result.DatasetName)
	assert.Equal(t, 3, result.EvalStepCount)
	assert.Equal(t, 4, result.SelectCount)
	assert.Equal(t, expectedSelection(t, label, fs, selection.Config{EvalStepCount: 3, ThreadCount: 2, FeatureCount: 4}), result.SelectedFeatures)
	assert.Equal(t, fs.FeatureCount()-1, result.SelectedFeatures[0], "the noisy label copy carries the most information")

	_, err = os.Stat(filepath.Join(dir, "adult", "results", jobID+".gob"))
	require.NoError(t, err)

	jobs := eng.ListJobs("adult", nil)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)

	err = eng.CancelJob(jobID)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput), "got %v", err)
}

func TestEngine_SelectionResultSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	first := NewEngine(dir, testSettings(), 1)
	createBinaryDataset(t, first, "adult", 6)

	jobID, err := first.StartSelection("adult", model.SelectionRequest{})
	require.NoError(t, err)
	testutil.WaitForJobCompletion(t, first, jobID, testutil.DefaultJobPollingOptions())
	expected, err := first.GetSelectionResult(jobID)
	require.NoError(t, err)
	assert.Len(t, expected.SelectedFeatures, 7)
	first.Close()

	second := newTestEngine(t, dir)
	loaded, err := second.GetSelectionResult(jobID)
	require.NoError(t, err)
	assert.Equal(t, expected.SelectedFeatures, loaded.SelectedFeatures)
	assert.Equal(t, expected.Duration, loaded.Duration)

	_, err = second.GetJob(jobID)
	assert.True(t, errors.Is(err, internalErrors.ErrJobNotFound), "jobs are not persisted, got %v", err)

	listed := second.ListSelectionResults("adult")
	require.Len(t, listed, 1)
	assert.Equal(t, jobID, listed[0].JobID)
	assert.Len(t, second.ListSelectionResults(""), 1)
	assert.Empty(t, second.ListSelectionResults("other"))

	listed[0].SelectedFeatures[0] = -1
	assert.Equal(t, expected.SelectedFeatures, second.ListSelectionResults("adult")[0].SelectedFeatures)

	require.NoError(t, second.DeleteDataset("adult"))
	_, err = second.GetSelectionResult(jobID)
	assert.True(t, errors.Is(err, internalErrors.ErrJobNotFound), "got %v", err)
	assert.Empty(t, second.ListSelectionResults(""))
}

func TestEngine_StartSelectionErrors(t *testing.T) {
	eng := newTestEngine(t, "")
	createBinaryDataset(t, eng, "adult", 7)

	_, err := eng.StartSelection("missing", model.SelectionRequest{})
	assert.True(t, errors.Is(err, internalErrors.ErrDatasetNotFound), "got %v", err)

	_, err = eng.StartSelection("adult", model.SelectionRequest{EvalStepCount: -1})
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput), "got %v", err)

	_, err = eng.StartSelection("adult", model.SelectionRequest{EvalStepCount: 40})
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput), "got %v", err)

	_, err = eng.GetSelectionResult("missing")
	assert.True(t, errors.Is(err, internalErrors.ErrJobNotFound), "got %v", err)

	assert.Empty(t, eng.ListJobs("", nil))
}

func TestEngine_ScoreFeature(t *testing.T) {
	eng := newTestEngine(t, "")
	label, fs := createBinaryDataset(t, eng, "adult", 8)
	noisy := fs.FeatureCount() - 1

	result, err := eng.ScoreFeature("adult", model.ScoreRequest{FeatureIndex: noisy})
	require.NoError(t, err)
	assert.Equal(t, model.ScoreMethodMiximizer, result.Method)
	assert.Equal(t, "eval", result.Policy)
	assert.Equal(t, "labelEntropy", result.Normalization)
	assert.Equal(t, 3, result.EvalStepCount)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, result.EnabledFeatures)
	require.NotNil(t, result.Feature)
	assert.Len(t, result.Feature.BinScores, 2)

	bg := features.NewBackground(fs)
	require.NoError(t, bg.SetFeatureEnabled(noisy, false))
	scorer, err := scoring.NewBinScorer(label, scoring.StepConfig(scoring.PolicyEval, 3, 1))
	require.NoError(t, err)
	normalize, err := scoring.NewNormalizer(scoring.NormalizationLabelEntropy, label)
	require.NoError(t, err)
	expected, err := scoring.ScoreFeature(bg, noisy, scorer, normalize)
	require.NoError(t, err)
	assert.InDelta(t, expected.Score, result.Score, scoring.ScoreTolerance)

	restricted, err := eng.ScoreFeature("adult", model.ScoreRequest{
		FeatureIndex:    noisy,
		EnabledFeatures: []int{0, 1, 2, noisy},
		Policy:          "btm",
		Normalization:   "none",
		EvalStepCount:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, restricted.EnabledFeatures)
	assert.Equal(t, "btm", restricted.Policy)
	assert.Equal(t, 2, restricted.EvalStepCount)
}

func TestEngine_ScoreFeatureCMIM(t *testing.T) {
	eng := newTestEngine(t, "")
	label, fs := createBinaryDataset(t, eng, "adult", 9)
	noisy := fs.FeatureCount() - 1

	result, err := eng.ScoreFeature("adult", model.ScoreRequest{FeatureIndex: noisy, Method: model.ScoreMethodCMIM})
	require.NoError(t, err)
	require.NotNil(t, result.CMIM)
	assert.Nil(t, result.Feature)

	bg := features.NewBackground(fs)
	expected, err := scoring.ScoreCMIM(label, bg, noisy, 1)
	require.NoError(t, err)
	assert.Equal(t, expected.MinimizingFeatureIndex, result.CMIM.MinimizingFeatureIndex)
	assert.InDelta(t, expected.Score, result.Score, scoring.ScoreTolerance)

	alone, err := eng.ScoreFeature("adult", model.ScoreRequest{
		FeatureIndex:    noisy,
		EnabledFeatures: []int{},
		Method:          model.ScoreMethodCMIM,
	})
	require.NoError(t, err)
	assert.Equal(t, parallel.NotFound, alone.CMIM.MinimizingFeatureIndex)
	assert.Equal(t, []int{}, alone.EnabledFeatures)
}

func TestEngine_ScoreFeatureErrors(t *testing.T) {
	eng := newTestEngine(t, "")
	createBinaryDataset(t, eng, "adult", 10)

	tests := []struct {
		name     string
		dataset  string
		req      model.ScoreRequest
		expected error
	}{
		{"missing dataset", "missing", model.ScoreRequest{}, internalErrors.ErrDatasetNotFound},
		{"feature out of range", "adult", model.ScoreRequest{FeatureIndex: 70}, internalErrors.ErrIndexOutOfRange},
		{"enabled feature out of range", "adult", model.ScoreRequest{EnabledFeatures: []int{-1}}, internalErrors.ErrIndexOutOfRange},
		{"unknown policy", "adult", model.ScoreRequest{Policy: "greedy"}, internalErrors.ErrInvalidInput},
		{"unknown normalization", "adult", model.ScoreRequest{Normalization: "log"}, internalErrors.ErrInvalidInput},
		{"unknown method", "adult", model.ScoreRequest{Method: "mrmr"}, internalErrors.ErrInvalidInput},
		{"negative step count", "adult", model.ScoreRequest{EvalStepCount: -2}, internalErrors.ErrInvalidInput},
		{"empty context", "adult", model.ScoreRequest{FeatureIndex: 1, EnabledFeatures: []int{}}, internalErrors.ErrInsufficientContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.ScoreFeature(tt.dataset, tt.req)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}
