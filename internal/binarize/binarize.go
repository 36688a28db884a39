// Package binarize turns raw numeric columns into bins. Every border b of a
// column yields one bin holding x > b for each sample x.
package binarize

import (
	"fmt"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
)

// Method names a border building strategy.
type Method string

const (
	// MethodMedian places borders so that the groups between them hold about the same number of samples.
	MethodMedian Method = "median"
	// MethodUniform spreads borders evenly between the minimum and the maximum.
	MethodUniform Method = "uniform"
	// MethodMedianPlusUniform uses half of the borders for each of the two strategies.
	MethodMedianPlusUniform Method = "medianPlusUniform"
)

// Methods lists every supported method.
var Methods = []Method{MethodMedian, MethodUniform, MethodMedianPlusUniform}

// BorderBuilder returns the sorted, distinct, informative borders of a column.
// values must not be modified.
type BorderBuilder func(values []float64) []float64

// NewBorderBuilder returns the border builder for a method with at most borderCount borders.
func NewBorderBuilder(method Method, borderCount int) (BorderBuilder, error) {
	if borderCount < 1 {
		return nil, errors.NewValidationError("border_count", "must be at least 1")
	}
	switch method {
	case MethodMedian:
		return func(values []float64) []float64 {
			return medianBorders(values, borderCount)
		}, nil
	case MethodUniform:
		return func(values []float64) []float64 {
			return uniformBorders(values, borderCount)
		}, nil
	case MethodMedianPlusUniform:
		medianCount := (borderCount + 1) / 2
		return func(values []float64) []float64 {
			borders := medianBorders(values, medianCount)
			if uniformCount := borderCount - medianCount; uniformCount > 0 {
				borders = append(borders, uniformBorders(values, uniformCount)...)
			}
			return distinct(borders)
		}, nil
	}
	return nil, errors.NewValidationError("binarization", fmt.Sprintf("unknown binarization '%s'", method))
}

// ParseMethod validates a method name.
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods {
		if string(m) == name {
			return m, nil
		}
	}
	return "", errors.NewValidationError("binarization", fmt.Sprintf("unknown binarization '%s'", name))
}

func medianBorders(values []float64, borderCount int) []float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	sort.Float64s(sorted)

	borders := make([]float64, 0, borderCount)
	for k := 1; k <= borderCount; k++ {
		v := stat.Quantile(float64(k)/float64(borderCount+1), stat.Empirical, sorted, nil)
		// split halfway to the next larger value, nothing lies above the maximum
		next := sort.Search(len(sorted), func(i int) bool { return sorted[i] > v })
		if next == len(sorted) {
			continue
		}
		borders = append(borders, v+(sorted[next]-v)/2)
	}
	return distinct(borders)
}

func uniformBorders(values []float64, borderCount int) []float64 {
	if len(values) == 0 {
		return nil
	}
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return nil
	}
	step := (hi - lo) / float64(borderCount+1)
	borders := make([]float64, 0, borderCount)
	for k := 1; k <= borderCount; k++ {
		if b := lo + float64(k)*step; b < hi {
			borders = append(borders, b)
		}
	}
	return distinct(borders)
}

func distinct(borders []float64) []float64 {
	sort.Float64s(borders)
	return slices.Compact(borders)
}

// BinarizeFeature builds one bin per border in ascending border order. A column
// without borders yields a single constant false bin.
func BinarizeFeature(values []float64, builder BorderBuilder) []features.Bin {
	borders := builder(values)
	if len(borders) == 0 {
		return []features.Bin{make(features.Bin, len(values))}
	}

	bins := make([]features.Bin, len(borders))
	for i, border := range borders {
		bin := make(features.Bin, len(values))
		for j, x := range values {
			bin[j] = x > border
		}
		bins[i] = bin
	}
	return bins
}

// BinarizeRawPool binarizes every column in parallel. The first column is the
// label, every other column becomes one feature.
func BinarizeRawPool(columns [][]float64, builder BorderBuilder, threadCount int) (label, fs *features.FeatureSet, err error) {
	if len(columns) == 0 {
		return nil, nil, errors.NewValidationError("pool", "pool has no columns")
	}
	binarized, err := parallel.Map(columns, func(column []float64) ([]features.Bin, error) {
		return BinarizeFeature(column, builder), nil
	}, threadCount)
	if err != nil {
		return nil, nil, err
	}

	label, err = features.NewSingleFeatureSet(binarized[0])
	if err != nil {
		return nil, nil, err
	}
	fs, err = buildFeatureSet(binarized[1:])
	if err != nil {
		return nil, nil, err
	}
	return label, fs, nil
}

// BinarizeWithMap builds features from pre-binarized 0/1 columns. binToFeature
// maps every column to the feature owning it.
func BinarizeWithMap(columns [][]float64, binToFeature []int) (*features.FeatureSet, error) {
	if len(columns) != len(binToFeature) {
		return nil, errors.NewValidationError("map",
			fmt.Sprintf("pool has %d bins, but map has %d. These numbers should be the same", len(columns), len(binToFeature)))
	}

	featureCount := 0
	for binIndex, f := range binToFeature {
		if f < 0 {
			return nil, errors.NewBinMapError(binIndex, fmt.Sprintf("maps to negative feature %d", f))
		}
		featureCount = max(featureCount, f+1)
	}

	grouped := make([][]features.Bin, featureCount)
	for binIndex, column := range columns {
		bin := make(features.Bin, len(column))
		for i, v := range column {
			switch v {
			case 0:
			case 1:
				bin[i] = true
			default:
				return nil, errors.NewValidationError("pool",
					fmt.Sprintf("%g in bin %d is not a binary value", v, binIndex))
			}
		}
		f := binToFeature[binIndex]
		grouped[f] = append(grouped[f], bin)
	}
	return buildFeatureSet(grouped)
}

// BinarizeBinaryPool reads a pre-binarized pool: the first column is a numeric
// label binarized with builder, every other column is a 0/1 bin mapped to its
// feature by binToFeature.
func BinarizeBinaryPool(columns [][]float64, binToFeature []int, builder BorderBuilder) (label, fs *features.FeatureSet, err error) {
	if len(columns) == 0 {
		return nil, nil, errors.NewValidationError("pool", "pool has no columns")
	}
	label, err = features.NewSingleFeatureSet(BinarizeFeature(columns[0], builder))
	if err != nil {
		return nil, nil, err
	}
	fs, err = BinarizeWithMap(columns[1:], binToFeature)
	if err != nil {
		return nil, nil, err
	}
	return label, fs, nil
}

// UniteLabelBins packs the label bins of every sample into one integer, bin i being bit i.
// Labels with more than entropy.MaxBinCount bins do not fit and are rejected.
func UniteLabelBins(bins []features.Bin) ([]uint64, error) {
	if len(bins) == 0 {
		return nil, nil
	}
	if len(bins) > entropy.MaxBinCount {
		return nil, errors.NewCapacityExceededError(entropy.MaxBinCount)
	}
	result := make([]uint64, len(bins[0]))
	for binIndex, bin := range bins {
		for i, v := range bin {
			if v {
				result[i] |= 1 << uint(binIndex)
			}
		}
	}
	return result, nil
}

func buildFeatureSet(grouped [][]features.Bin) (*features.FeatureSet, error) {
	fs := features.NewFeatureSet()
	for _, bins := range grouped {
		if _, err := fs.AddFeature(bins); err != nil {
			return nil, err
		}
	}
	return fs, nil
}
