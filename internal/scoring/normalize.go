package scoring

import (
	"fmt"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// Normalization selects how a raw bin score is scaled.
type Normalization string

const (
	NormalizationNone               Normalization = "none"
	NormalizationLabelEntropy       Normalization = "labelEntropy"
	NormalizationBinEntropy         Normalization = "binEntropy"
	NormalizationBinAndLabelEntropy Normalization = "binAndLabelEntropy"
)

// Normalizations lists every supported normalization.
var Normalizations = []Normalization{
	NormalizationNone,
	NormalizationLabelEntropy,
	NormalizationBinEntropy,
	NormalizationBinAndLabelEntropy,
}

// ParseNormalization validates a normalization name.
func ParseNormalization(name string) (Normalization, error) {
	for _, n := range Normalizations {
		if string(n) == name {
			return n, nil
		}
	}
	return "", errors.NewValidationError("normalization", fmt.Sprintf("unknown normalization '%s'", name))
}

// Normalizer maps a bin score to its normalized value.
type Normalizer func(score BinScore, bg *features.Background, binIndex int) float64

// NewNormalizer builds a normalizer. A constant bin has zero entropy and
// normalizes to 0.
func NewNormalizer(n Normalization, label *features.FeatureSet) (Normalizer, error) {
	labelEntropy := func() (float64, error) {
		if label == nil || label.BinCount() == 0 {
			return 0, errors.NewValidationError("label", "label must have at least one bin")
		}
		h := entropy.BinsEntropy(label.AllBins()...)
		if h == 0 {
			return 0, errors.NewValidationError("label", "label is constant, its entropy is zero")
		}
		return h, nil
	}
	binEntropy := func(bg *features.Background, binIndex int) float64 {
		bin, err := bg.Bin(binIndex)
		if err != nil {
			return 0
		}
		return entropy.BinsEntropy(bin)
	}

	switch n {
	case NormalizationNone:
		return func(score BinScore, _ *features.Background, _ int) float64 {
			return score.Score
		}, nil

	case NormalizationLabelEntropy:
		h, err := labelEntropy()
		if err != nil {
			return nil, err
		}
		return func(score BinScore, _ *features.Background, _ int) float64 {
			return score.Score / h
		}, nil

	case NormalizationBinEntropy:
		return func(score BinScore, bg *features.Background, binIndex int) float64 {
			return safeDiv(score.Score, binEntropy(bg, binIndex))
		}, nil

	case NormalizationBinAndLabelEntropy:
		h, err := labelEntropy()
		if err != nil {
			return nil, err
		}
		return func(score BinScore, bg *features.Background, binIndex int) float64 {
			return safeDiv(score.Score/h, binEntropy(bg, binIndex))
		}, nil
	}
	return nil, errors.NewValidationError("normalization", fmt.Sprintf("unknown normalization '%s'", n))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
