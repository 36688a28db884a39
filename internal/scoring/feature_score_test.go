package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
	testutil "github.com/gcbaptista/go-cmicot/internal/testing"
)

type fixedScorer map[int]float64

func (s fixedScorer) Score(_ *features.Background, binIndex int) (BinScore, error) {
	score, ok := s[binIndex]
	if !ok {
		return BinScore{}, internalErrors.NewIndexOutOfRangeError("bin", binIndex, len(s))
	}
	return BinScore{Score: score, MinimizingSteps: []StepResult{{BinIndex: binIndex, CMI: score}}}, nil
}

func TestScoreFeature(t *testing.T) {
	r := testutil.NewRand(3)
	fs := testutil.MustFeatureSet(t, testutil.RandomFeature(r, 2, 10), testutil.RandomFeature(r, 3, 10))
	bg := features.NewBackground(fs)

	scorer := fixedScorer{0: 0.1, 1: 0.2, 2: 0.05, 3: 0.4, 4: 0.3}
	identity, err := NewNormalizer(NormalizationNone, nil)
	require.NoError(t, err)

	score, err := ScoreFeature(bg, 1, scorer, identity)
	require.NoError(t, err)
	assert.Equal(t, 0.4, score.Score)
	require.Len(t, score.BinScores, 3)
	assert.Equal(t, []int{2}, score.BinScores[0].MinimizingBinIndexes())
	assert.Equal(t, []int{4}, score.BinScores[2].MinimizingBinIndexes())

	halve := func(s BinScore, _ *features.Background, _ int) float64 { return s.Score / 2 }
	score, err = ScoreFeature(bg, 0, scorer, halve)
	require.NoError(t, err)
	assert.Equal(t, 0.1, score.Score)
	assert.Equal(t, 0.05, score.BinScores[0].Score)

	_, err = ScoreFeature(bg, 2, scorer, identity)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))

	_, err = ScoreFeature(bg, 1, fixedScorer{2: 0.1}, identity)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))
}

func TestScoreCMIM(t *testing.T) {
	r := testutil.NewRand(20160601)
	const size = 1000
	labelBin := testutil.RandomBin(r, size, 50)
	label, err := features.NewSingleFeatureSet([]features.Bin{labelBin})
	require.NoError(t, err)

	noisy := testutil.RemoveInfo(r, labelBin, 40)
	fs := testutil.MustFeatureSet(t,
		[]features.Bin{noisy},
		testutil.RandomFeature(r, 2, size),
		testutil.RandomFeature(r, 2, size),
		[]features.Bin{noisy, testutil.RandomBin(r, size, 50)},
	)
	bg := features.NewBackground(fs)
	require.NoError(t, bg.SetFeatureEnabled(2, false))

	score, err := ScoreCMIM(label, bg, 0, 2)
	require.NoError(t, err)
	// feature 3 holds a copy of the scored bin, and is reported by its index, not its position
	assert.Equal(t, 3, score.MinimizingFeatureIndex)
	assert.InDelta(t, 0, score.Score, 1e-9)

	// against a random feature the information about the label stays
	require.NoError(t, bg.SetFeatureEnabled(3, false))
	score, err = ScoreCMIM(label, bg, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, score.MinimizingFeatureIndex)
	f1, err := fs.Feature(1)
	require.NoError(t, err)
	expected := entropy.ConditionalMutualInformation(label.AllBins(), []features.Bin{noisy}, f1)
	assert.InDelta(t, expected, score.Score, 1e-9)
	assert.Greater(t, score.Score, 0.0)
}

func TestScoreCMIMWithoutOtherFeatures(t *testing.T) {
	r := testutil.NewRand(5)
	label := testutil.MakeRandomLabel(t, r, 50, 1, 2)
	fs := testutil.MakeRandomFeatures(t, r, 3, 50, 1, 3)
	bg := features.NewBackground(fs)
	bg.DisableAll()

	score, err := ScoreCMIM(label, bg, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, parallel.NotFound, score.MinimizingFeatureIndex)
}

func TestScoreCMIMErrors(t *testing.T) {
	r := testutil.NewRand(6)
	label := testutil.MakeRandomLabel(t, r, 50, 1, 2)
	fs := testutil.MakeRandomFeatures(t, r, 3, 50, 1, 3)
	bg := features.NewBackground(fs)

	_, err := ScoreCMIM(label, bg, 3, 1)
	assert.True(t, errors.Is(err, internalErrors.ErrIndexOutOfRange))

	other := testutil.MakeRandomLabel(t, r, 40, 1, 2)
	_, err = ScoreCMIM(other, bg, 0, 1)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	_, err = ScoreCMIM(nil, bg, 0, 1)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}
