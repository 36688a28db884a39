package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	internalErrors "github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	testutil "github.com/gcbaptista/go-cmicot/internal/testing"
)

func TestNormalizers(t *testing.T) {
	r := testutil.NewRand(11)
	label := testutil.MakeRandomLabel(t, r, 100, 2, 3)
	informative := testutil.RandomBin(r, 100, 30)
	fs := testutil.MustFeatureSet(t, []features.Bin{informative, make(features.Bin, 100)})
	bg := features.NewBackground(fs)

	labelEntropy := entropy.BinsEntropy(label.AllBins()...)
	binEntropy := entropy.BinsEntropy(informative)
	score := BinScore{Score: 0.2}

	tests := []struct {
		normalization Normalization
		binIndex      int
		expected      float64
	}{
		{NormalizationNone, 0, 0.2},
		{NormalizationLabelEntropy, 0, 0.2 / labelEntropy},
		{NormalizationBinEntropy, 0, 0.2 / binEntropy},
		{NormalizationBinAndLabelEntropy, 0, 0.2 / labelEntropy / binEntropy},
		// a constant bin carries no information
		{NormalizationBinEntropy, 1, 0},
		{NormalizationBinAndLabelEntropy, 1, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.normalization), func(t *testing.T) {
			normalize, err := NewNormalizer(tt.normalization, label)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, normalize(score, bg, tt.binIndex), 1e-12)
		})
	}
}

func TestNormalizerErrors(t *testing.T) {
	_, err := ParseNormalization("entropy")
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	for _, n := range Normalizations {
		parsed, err := ParseNormalization(string(n))
		require.NoError(t, err)
		assert.Equal(t, n, parsed)
	}

	constant, err := features.NewSingleFeatureSet([]features.Bin{make(features.Bin, 10)})
	require.NoError(t, err)
	_, err = NewNormalizer(NormalizationLabelEntropy, constant)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
	_, err = NewNormalizer(NormalizationBinAndLabelEntropy, nil)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))

	// label entropy is not needed here
	_, err = NewNormalizer(NormalizationBinEntropy, nil)
	assert.NoError(t, err)

	_, err = NewNormalizer(Normalization("bogus"), constant)
	assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput))
}
