// Package features holds the binarized data model: bins, feature sets that
// partition a flat bin array into features, and backgrounds that mark bins
// as enabled or disabled during a search.
package features

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/gcbaptista/go-cmicot/internal/errors"
)

// Bin is one binary split of an original feature, one value per sample.
type Bin []bool

// Ones counts the samples for which the bin is set.
func (b Bin) Ones() int {
	count := 0
	for _, v := range b {
		if v {
			count++
		}
	}
	return count
}

// Range is a half-open interval of bin indexes.
type Range struct {
	Begin int
	End   int
}

// Len returns the number of indexes in the range.
func (r Range) Len() int {
	return r.End - r.Begin
}

// Contains reports whether index lies inside the range.
func (r Range) Contains(index int) bool {
	return r.Begin <= index && index < r.End
}

// Indexes expands the range into a slice.
func (r Range) Indexes() []int {
	result := make([]int, 0, r.Len())
	for i := r.Begin; i < r.End; i++ {
		result = append(result, i)
	}
	return result
}

// FeatureSet is an ordered sequence of features, each a contiguous range of bins.
// Features can only be appended. Once handed to a search a FeatureSet is read-only
// and may be shared between goroutines without synchronization.
type FeatureSet struct {
	bins         []Bin
	featureStart []int
}

// NewFeatureSet creates an empty feature set with no features.
func NewFeatureSet() *FeatureSet {
	return &FeatureSet{}
}

// NewSingleFeatureSet creates a feature set made of exactly one feature holding all bins.
// It is the usual shape of a label.
func NewSingleFeatureSet(bins []Bin) (*FeatureSet, error) {
	fs := NewFeatureSet()
	if _, err := fs.AddFeature(bins); err != nil {
		return nil, err
	}
	return fs, nil
}

// AddFeature appends a feature made of the given bins and returns its index.
// Every bin must have the same length as the bins already in the set.
func (fs *FeatureSet) AddFeature(bins []Bin) (int, error) {
	sampleCount := -1
	if len(fs.bins) > 0 {
		sampleCount = len(fs.bins[0])
	}
	for i, bin := range bins {
		if sampleCount < 0 {
			sampleCount = len(bin)
			continue
		}
		if len(bin) != sampleCount {
			return -1, errors.NewValidationError("bins",
				fmt.Sprintf("bin %d of the new feature has %d samples, expected %d", i, len(bin), sampleCount))
		}
	}

	fs.featureStart = append(fs.featureStart, len(fs.bins))
	fs.bins = append(fs.bins, bins...)
	return len(fs.featureStart) - 1, nil
}

// FeatureCount returns the number of features.
func (fs *FeatureSet) FeatureCount() int {
	return len(fs.featureStart)
}

// BinCount returns the total number of bins over all features.
func (fs *FeatureSet) BinCount() int {
	return len(fs.bins)
}

// SampleCount returns the length of every bin, or 0 for a set without bins.
func (fs *FeatureSet) SampleCount() int {
	if len(fs.bins) == 0 {
		return 0
	}
	return len(fs.bins[0])
}

// Bin returns the bin at the given flat index.
func (fs *FeatureSet) Bin(index int) (Bin, error) {
	if err := fs.checkBinIndex(index); err != nil {
		return nil, err
	}
	return fs.bins[index], nil
}

// AllBins returns every bin in feature order. The slice must not be modified.
func (fs *FeatureSet) AllBins() []Bin {
	return fs.bins
}

// AllBinIndexes returns 0..BinCount-1.
func (fs *FeatureSet) AllBinIndexes() []int {
	return Range{Begin: 0, End: len(fs.bins)}.Indexes()
}

// Feature returns the bins of one feature.
func (fs *FeatureSet) Feature(index int) ([]Bin, error) {
	r, err := fs.FeatureBinRange(index)
	if err != nil {
		return nil, err
	}
	return fs.bins[r.Begin:r.End:r.End], nil
}

// FeatureBinRange returns the range of flat bin indexes owned by a feature.
func (fs *FeatureSet) FeatureBinRange(index int) (Range, error) {
	if index < 0 || index >= len(fs.featureStart) {
		return Range{}, errors.NewIndexOutOfRangeError("feature", index, len(fs.featureStart))
	}
	return fs.featureRange(index), nil
}

// FeatureIndexByBinIndex finds the feature owning a bin.
func (fs *FeatureSet) FeatureIndexByBinIndex(binIndex int) (int, error) {
	if err := fs.checkBinIndex(binIndex); err != nil {
		return -1, err
	}
	return fs.featureOf(binIndex), nil
}

// FeatureSizes returns the bin count of every feature.
func (fs *FeatureSet) FeatureSizes() []int {
	sizes := make([]int, len(fs.featureStart))
	for i := range fs.featureStart {
		sizes[i] = fs.featureRange(i).Len()
	}
	return sizes
}

// BinFeatureMap returns the owning feature of every bin.
func (fs *FeatureSet) BinFeatureMap() []int {
	result := make([]int, len(fs.bins))
	for f := range fs.featureStart {
		r := fs.featureRange(f)
		for b := r.Begin; b < r.End; b++ {
			result[b] = f
		}
	}
	return result
}

func (fs *FeatureSet) featureRange(index int) Range {
	end := len(fs.bins)
	if index+1 < len(fs.featureStart) {
		end = fs.featureStart[index+1]
	}
	return Range{Begin: fs.featureStart[index], End: end}
}

// featureOf is the last feature whose start is <= binIndex. Empty features share
// their start with the next one, so the search skips them.
func (fs *FeatureSet) featureOf(binIndex int) int {
	return sort.SearchInts(fs.featureStart, binIndex+1) - 1
}

func (fs *FeatureSet) checkBinIndex(index int) error {
	if index < 0 || index >= len(fs.bins) {
		return errors.NewIndexOutOfRangeError("bin", index, len(fs.bins))
	}
	return nil
}

// gobFeatureSetData is a helper struct for Gob encoding/decoding FeatureSet data.
type gobFeatureSetData struct {
	Bins         []Bin
	FeatureStart []int
}

// GobEncode implements the gob.GobEncoder interface for FeatureSet.
func (fs *FeatureSet) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobFeatureSetData{
		Bins:         fs.bins,
		FeatureStart: fs.featureStart,
	}); err != nil {
		return nil, fmt.Errorf("failed to gob encode FeatureSet data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for FeatureSet.
func (fs *FeatureSet) GobDecode(data []byte) error {
	var decoded gobFeatureSetData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode FeatureSet data: %w", err)
	}
	fs.bins = decoded.Bins
	fs.featureStart = decoded.FeatureStart
	return nil
}
