package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	testutil "github.com/gcbaptista/go-cmicot/internal/testing"
)

// recordingMiximizer remembers the backgrounds each phase was run on.
type recordingMiximizer struct {
	maxMask  []bool
	minMask  []bool
	gotMax   []StepResult
	maxSteps []StepResult
	minSteps []StepResult
	err      error
}

func (m *recordingMiximizer) MaximizePhase(bg *features.Background, _ int) ([]StepResult, error) {
	m.maxMask = bg.Mask()
	return m.maxSteps, m.err
}

func (m *recordingMiximizer) MinimizePhase(bg *features.Background, _ int, maxSteps []StepResult) ([]StepResult, error) {
	m.minMask = bg.Mask()
	m.gotMax = maxSteps
	return m.minSteps, nil
}

// policyBackground has features of 2, 3 and 1 bins with feature 0 and bin 2 enabled.
func policyBackground(t *testing.T) *features.Background {
	t.Helper()
	r := testutil.NewRand(7)
	fs := testutil.MustFeatureSet(t,
		testutil.RandomFeature(r, 2, 20),
		testutil.RandomFeature(r, 3, 20),
		testutil.RandomFeature(r, 1, 20),
	)
	bg := features.NewBackground(fs)
	bg.DisableAll()
	require.NoError(t, bg.SetFeatureEnabled(0, true))
	require.NoError(t, bg.SetBinEnabled(2, true))
	return bg
}

func TestParsePolicy(t *testing.T) {
	for _, p := range Policies {
		parsed, err := ParsePolicy(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}

	_, err := ParsePolicy("greedy")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}

func TestPolicyBackgrounds(t *testing.T) {
	tests := []struct {
		policy  Policy
		maxMask []bool
		minMask []bool
	}{
		{PolicyEval, []bool{true, true, true, true, false, false}, []bool{true, true, false, false, false, false}},
		{PolicyEFAM, []bool{true, true, true, true, true, false}, []bool{true, true, false, false, false, false}},
		{PolicyBTM, []bool{true, true, true, true, true, true}, []bool{true, true, true, false, false, false}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			bg := policyBackground(t)
			before := bg.Mask()

			m := &recordingMiximizer{
				maxSteps: []StepResult{{BinIndex: 0, CMI: 0.5}},
				minSteps: []StepResult{{BinIndex: 1, CMI: 0.3}, {BinIndex: 0, CMI: 0.1}},
			}
			scorer, err := NewMiximizerScorer(m, tt.policy)
			require.NoError(t, err)

			score, err := scorer.Score(bg, 3)
			require.NoError(t, err)

			assert.Equal(t, tt.maxMask, m.maxMask)
			assert.Equal(t, tt.minMask, m.minMask)
			assert.Equal(t, m.maxSteps, m.gotMax)
			assert.Equal(t, 0.1, score.Score)
			assert.Equal(t, []int{0}, score.MaximizingBinIndexes())
			assert.Equal(t, []int{1, 0}, score.MinimizingBinIndexes())
			assert.Equal(t, before, bg.Mask())
		})
	}
}

func TestMiximizerScorerErrors(t *testing.T) {
	bg := policyBackground(t)

	_, err := NewMiximizerScorer(&recordingMiximizer{}, Policy("unknown"))
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	scorer, err := NewMiximizerScorer(&recordingMiximizer{}, PolicyEval)
	require.NoError(t, err)
	_, err = scorer.Score(bg, 6)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))

	// no minimize steps
	_, err = scorer.Score(bg, 3)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	failing, err := NewMiximizerScorer(&recordingMiximizer{err: internalErrors.NewInsufficientContextError(1, 2)}, PolicyEval)
	require.NoError(t, err)
	_, err = failing.Score(bg, 3)
	assert.True(t, errors.Is(err, internalErrors.ErrInsufficientContext))
	assert.Contains(t, err.Error(), "maximize phase for bin 3")
}

func TestEvalScorer(t *testing.T) {
	r := testutil.NewRand(20160501)
	const size = 600
	label := testutil.MakeRandomLabel(t, r, size, 1, 3)
	fs := testutil.MakeRandomFeatures(t, r, 10, size, 2, 4)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	for f := 0; f < 6; f++ {
		require.NoError(t, bg.SetFeatureEnabled(f, true))
	}
	before := bg.Mask()

	scorer, err := NewBinScorer(label, StepConfig(PolicyEval, 3, 2))
	require.NoError(t, err)

	evalFeature := 8
	evalRange, err := fs.FeatureBinRange(evalFeature)
	require.NoError(t, err)
	score, err := scorer.Score(bg, evalRange.Begin)
	require.NoError(t, err)

	require.Len(t, score.MaximizingSteps, 2)
	require.Len(t, score.MinimizingSteps, 3)
	assert.Equal(t, score.MinimizingSteps[2].CMI, score.Score)
	for _, b := range score.MinimizingBinIndexes() {
		assert.False(t, evalRange.Contains(b), "minimize phase picked bin %d of the eval feature", b)
		enabled, err := bg.IsBinEnabled(b)
		require.NoError(t, err)
		assert.True(t, enabled)
	}
	assert.Equal(t, before, bg.Mask())

	// scoring is deterministic
	again, err := scorer.Score(bg, evalRange.Begin)
	require.NoError(t, err)
	assert.True(t, score.Equal(again, ScoreTolerance))
}

func TestStepConfig(t *testing.T) {
	cfg := StepConfig(PolicyBTM, 6, 8)
	assert.Equal(t, ScorerConfig{Policy: PolicyBTM, MaximizeSteps: 5, MinimizeSteps: 6, ThreadCount: 8}, cfg)
}

func TestBinScoreClone(t *testing.T) {
	score := BinScore{
		Score:           0.25,
		MaximizingSteps: []StepResult{{BinIndex: 1, CMI: 0.5}},
		MinimizingSteps: []StepResult{{BinIndex: 2, CMI: 0.25}},
	}
	clone := score.Clone()
	clone.MaximizingSteps[0].BinIndex = 9

	assert.Equal(t, 1, score.MaximizingSteps[0].BinIndex)
	assert.False(t, score.Equal(clone, ScoreTolerance))
	clone.MaximizingSteps[0].BinIndex = 1
	assert.True(t, score.Equal(clone, ScoreTolerance))
}
