package scoring

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
	testutil "github.com/gcbaptista/go-cmicot/internal/testing"
)

// expectedScore scores a bin the non-caching way, normalized like the caching scorer.
func expectedScore(t *testing.T, label *features.FeatureSet, bg *features.Background, binIndex, stepCount int) BinScore {
	t.Helper()
	reference, err := NewBinScorer(label, StepConfig(PolicyEval, stepCount, 4))
	require.NoError(t, err)
	score, err := reference.Score(bg, binIndex)
	require.NoError(t, err)
	score.Score /= entropy.BinsEntropy(label.AllBins()...)
	return score
}

func evaluateAll(t *testing.T, scorer *CachingBinScorer, bg *features.Background, stepCount int) []BinScore {
	t.Helper()
	scores, err := parallel.Map(bg.DisabledBinIndexes(), func(binIndex int) (BinScore, error) {
		return scorer.Evaluate(bg, binIndex, stepCount)
	}, 4)
	require.NoError(t, err)
	return scores
}

func enableRandomDisabledFeature(t *testing.T, r *rand.Rand, bg *features.Background) {
	t.Helper()
	for {
		f := r.IntN(bg.FeatureCount())
		enabled, err := bg.IsFeatureEnabled(f)
		require.NoError(t, err)
		if !enabled {
			require.NoError(t, bg.SetFeatureEnabled(f, true))
			return
		}
	}
}

func TestCachingScorerMatchesEvalScorer(t *testing.T) {
	r := testutil.NewRand(20160203)
	const size = 1500
	const stepCount = 6

	label := testutil.MakeRandomLabel(t, r, size, 2, 5)
	fs := testutil.MakeRandomFeatures(t, r, 20, size, 1, 4)
	f, err := fs.AddFeature(testutil.RandomFeature(r, stepCount, size))
	require.NoError(t, err)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	require.NoError(t, bg.SetFeatureEnabled(f, true))

	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)

	for round := 0; round < 4; round++ {
		disabled := bg.DisabledBinIndexes()
		got := evaluateAll(t, scorer, bg, stepCount)
		for i, binIndex := range disabled {
			expected := expectedScore(t, label, bg, binIndex, stepCount)
			assert.True(t, got[i].Equal(expected, ScoreTolerance),
				"round %d bin %d: got %+v, expected %+v", round, binIndex, got[i], expected)
		}
		enableRandomDisabledFeature(t, r, bg)
	}
}

// binOnlyScore scores a bin with only the bin itself removed for the minimize phase.
func binOnlyScore(t *testing.T, label *features.FeatureSet, bg *features.Background, binIndex, stepCount int) BinScore {
	t.Helper()
	m, err := NewParallelMiximizer(label, stepCount-1, stepCount, 4)
	require.NoError(t, err)

	maxBg := bg.Clone()
	require.NoError(t, maxBg.SetBinEnabled(binIndex, true))
	maxSteps, err := m.MaximizePhase(maxBg, binIndex)
	require.NoError(t, err)

	minBg := bg.Clone()
	require.NoError(t, minBg.SetBinEnabled(binIndex, false))
	minSteps, err := m.MinimizePhase(minBg, binIndex, maxSteps)
	require.NoError(t, err)

	return BinScore{
		Score:           minSteps[len(minSteps)-1].CMI / entropy.BinsEntropy(label.AllBins()...),
		MaximizingSteps: maxSteps,
		MinimizingSteps: minSteps,
	}
}

func TestCachingScorerKeepsSiblingBinsForMinimize(t *testing.T) {
	r := testutil.NewRand(20160204)
	const size = 1500
	const stepCount = 4

	label := testutil.MakeRandomLabel(t, r, size, 2, 5)
	fs := testutil.MakeRandomFeatures(t, r, 12, size, 2, 4)
	f, err := fs.AddFeature(testutil.RandomFeature(r, stepCount, size))
	require.NoError(t, err)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	require.NoError(t, bg.SetFeatureEnabled(f, true))

	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)

	withSibling := 0
	for round := 0; round < 6; round++ {
		disabled := bg.DisabledBinIndexes()
		got := evaluateAll(t, scorer, bg, stepCount)
		for i, binIndex := range disabled {
			expected := binOnlyScore(t, label, bg, binIndex, stepCount)
			assert.True(t, got[i].Equal(expected, ScoreTolerance),
				"round %d bin %d: got %+v, expected %+v", round, binIndex, got[i], expected)

			owner, err := bg.FeatureIndexByBinIndex(binIndex)
			require.NoError(t, err)
			if ownerEnabled(t, bg, fs, owner) {
				withSibling++
			}
		}

		// grow bin by bin, so features end up partly enabled
		next := disabled[r.IntN(len(disabled))]
		require.NoError(t, bg.SetBinEnabled(next, true))
	}
	assert.Positive(t, withSibling, "some scored bins must have an enabled sibling")
}

func ownerEnabled(t *testing.T, bg *features.Background, fs *features.FeatureSet, featureIndex int) bool {
	t.Helper()
	binRange, err := fs.FeatureBinRange(featureIndex)
	require.NoError(t, err)
	for _, b := range binRange.Indexes() {
		enabled, err := bg.IsBinEnabled(b)
		require.NoError(t, err)
		if enabled {
			return true
		}
	}
	return false
}

func TestCachingScorerFollowsGrowingStepCount(t *testing.T) {
	r := testutil.NewRand(20160204)
	const size = 1000
	const evalStepCount = 4

	label := testutil.MakeRandomLabel(t, r, size, 1, 3)
	fs := testutil.MakeRandomFeatures(t, r, 12, size, 1, 3)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	require.NoError(t, bg.SetFeatureEnabled(0, true))

	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)

	for round := 0; round < 6; round++ {
		stepCount := min(bg.EnabledBinCount(), evalStepCount)
		disabled := bg.DisabledBinIndexes()
		got := evaluateAll(t, scorer, bg, stepCount)
		for i, binIndex := range disabled {
			expected := expectedScore(t, label, bg, binIndex, stepCount)
			assert.True(t, got[i].Equal(expected, ScoreTolerance),
				"round %d bin %d step count %d", round, binIndex, stepCount)
			assert.Len(t, got[i].MaximizingSteps, stepCount-1)
			assert.Len(t, got[i].MinimizingSteps, stepCount)
		}
		enableRandomDisabledFeature(t, r, bg)
	}
}

func TestCachingScorerResetsOnShrinkingBackground(t *testing.T) {
	r := testutil.NewRand(20160205)
	const size = 800
	const stepCount = 3

	label := testutil.MakeRandomLabel(t, r, size, 1, 3)
	fs := testutil.MakeRandomFeatures(t, r, 10, size, 1, 3)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	for f := 0; f < 5; f++ {
		require.NoError(t, bg.SetFeatureEnabled(f, true))
	}

	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)
	evalBin := bg.DisabledBinIndexes()[0]

	_, err = scorer.Evaluate(bg, evalBin, stepCount)
	require.NoError(t, err)

	require.NoError(t, bg.SetFeatureEnabled(1, false))
	require.NoError(t, bg.SetFeatureEnabled(2, false))
	got, err := scorer.Evaluate(bg, evalBin, stepCount)
	require.NoError(t, err)
	assert.True(t, got.Equal(expectedScore(t, label, bg, evalBin, stepCount), ScoreTolerance))
}

func TestCachingScorerReturnsCopies(t *testing.T) {
	r := testutil.NewRand(20160206)
	label := testutil.MakeRandomLabel(t, r, 500, 1, 2)
	fs := testutil.MakeRandomFeatures(t, r, 6, 500, 1, 3)

	bg := features.NewBackground(fs)
	require.NoError(t, bg.SetFeatureEnabled(0, false))
	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)

	first, err := scorer.Evaluate(bg, 0, 2)
	require.NoError(t, err)
	first.MinimizingSteps[0].BinIndex = -42

	second, err := scorer.Evaluate(bg, 0, 2)
	require.NoError(t, err)
	assert.NotEqual(t, -42, second.MinimizingSteps[0].BinIndex)

	// the background passed in is not modified
	enabled, _ := bg.IsBinEnabled(0)
	assert.False(t, enabled)
}

func TestCachingScorerRejectsBadInput(t *testing.T) {
	r := testutil.NewRand(20160207)
	label := testutil.MakeRandomLabel(t, r, 200, 1, 2)
	fs := testutil.MakeRandomFeatures(t, r, 4, 200, 1, 2)

	scorer, err := NewCachingBinScorer(label, fs.BinCount())
	require.NoError(t, err)

	bg := features.NewBackground(fs)
	bg.DisableAll()
	require.NoError(t, bg.SetFeatureEnabled(0, true))

	_, err = scorer.Evaluate(bg, -1, 1)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))
	_, err = scorer.Evaluate(bg, fs.BinCount(), 1)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))

	// one enabled bin plus the eval bin is not enough for two steps
	_, err = scorer.Evaluate(bg, fs.BinCount()-1, 2)
	assert.True(t, errors.Is(err, internalErrors.ErrInsufficientContext))

	_, err = scorer.Evaluate(bg, fs.BinCount()-1, 40)
	assert.True(t, errors.Is(err, internalErrors.ErrCapacityExceeded))

	constant := make(features.Bin, 200)
	constantLabel, err := features.NewSingleFeatureSet([]features.Bin{constant})
	require.NoError(t, err)
	_, err = NewCachingBinScorer(constantLabel, fs.BinCount())
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}

func TestFreshBins(t *testing.T) {
	tests := []struct {
		name          string
		seen, current []bool
		fresh         []int
		grown         bool
	}{
		{"first evaluation", nil, []bool{true, false}, nil, false},
		{"unchanged", []bool{true, false}, []bool{true, false}, nil, true},
		{"grown", []bool{true, false, false}, []bool{true, true, true}, []int{1, 2}, true},
		{"shrunk", []bool{true, true, false}, []bool{false, true, true}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fresh, grown := freshBins(tt.seen, tt.current)
			assert.Equal(t, tt.grown, grown)
			assert.Equal(t, tt.fresh, fresh)
		})
	}
}
