package features

import (
	"github.com/gcbaptista/go-cmicot/internal/errors"
)

// Background is an enabled/disabled mask over the bins of one FeatureSet.
// It references the FeatureSet without owning it; the set must not change
// while backgrounds built from it are in use. Copies are made with Clone.
type Background struct {
	features    *FeatureSet
	enabled     []bool
	lastEnabled Range
}

// NewBackground creates a background with every bin enabled.
func NewBackground(fs *FeatureSet) *Background {
	enabled := make([]bool, fs.BinCount())
	for i := range enabled {
		enabled[i] = true
	}
	return &Background{features: fs, enabled: enabled}
}

// Clone duplicates the mask. The feature set stays shared.
func (bg *Background) Clone() *Background {
	enabled := make([]bool, len(bg.enabled))
	copy(enabled, bg.enabled)
	return &Background{features: bg.features, enabled: enabled, lastEnabled: bg.lastEnabled}
}

// Features returns the feature set the background is defined over.
func (bg *Background) Features() *FeatureSet {
	return bg.features
}

// BinCount returns the number of bins in the underlying feature set.
func (bg *Background) BinCount() int {
	return len(bg.enabled)
}

// FeatureCount returns the number of features in the underlying feature set.
func (bg *Background) FeatureCount() int {
	return bg.features.FeatureCount()
}

// SetFeatureEnabled enables or disables every bin of a feature.
func (bg *Background) SetFeatureEnabled(index int, enabled bool) error {
	r, err := bg.features.FeatureBinRange(index)
	if err != nil {
		return err
	}
	for i := r.Begin; i < r.End; i++ {
		bg.enabled[i] = enabled
	}
	if enabled {
		bg.lastEnabled = r
	}
	return nil
}

// SetBinEnabled enables or disables a single bin.
func (bg *Background) SetBinEnabled(index int, enabled bool) error {
	if err := bg.checkBinIndex(index); err != nil {
		return err
	}
	bg.enabled[index] = enabled
	if enabled {
		bg.lastEnabled = Range{Begin: index, End: index + 1}
	}
	return nil
}

// IsBinEnabled reports whether a bin is enabled.
func (bg *Background) IsBinEnabled(index int) (bool, error) {
	if err := bg.checkBinIndex(index); err != nil {
		return false, err
	}
	return bg.enabled[index], nil
}

// IsFeatureEnabled reports whether all bins of a feature are enabled.
func (bg *Background) IsFeatureEnabled(index int) (bool, error) {
	r, err := bg.features.FeatureBinRange(index)
	if err != nil {
		return false, err
	}
	return bg.allEnabled(r), nil
}

// EnabledBinIndexes lists enabled bins in ascending order.
func (bg *Background) EnabledBinIndexes() []int {
	return bg.binIndexes(true)
}

// DisabledBinIndexes lists disabled bins in ascending order.
func (bg *Background) DisabledBinIndexes() []int {
	return bg.binIndexes(false)
}

// EnabledBinCount counts enabled bins.
func (bg *Background) EnabledBinCount() int {
	count := 0
	for _, e := range bg.enabled {
		if e {
			count++
		}
	}
	return count
}

// EnabledBins returns the enabled bins themselves.
func (bg *Background) EnabledBins() []Bin {
	bins := bg.features.AllBins()
	result := make([]Bin, 0, len(bins))
	for i, e := range bg.enabled {
		if e {
			result = append(result, bins[i])
		}
	}
	return result
}

// EnabledFeatureIndexes lists features whose bins are all enabled.
func (bg *Background) EnabledFeatureIndexes() []int {
	var result []int
	for f := 0; f < bg.features.FeatureCount(); f++ {
		if bg.allEnabled(bg.features.featureRange(f)) {
			result = append(result, f)
		}
	}
	return result
}

// DisableAll disables every bin.
func (bg *Background) DisableAll() {
	for i := range bg.enabled {
		bg.enabled[i] = false
	}
}

// EnableAll enables every bin.
func (bg *Background) EnableAll() {
	for i := range bg.enabled {
		bg.enabled[i] = true
	}
}

// LastEnabledRange returns the span touched by the most recent enabling call.
func (bg *Background) LastEnabledRange() Range {
	return bg.lastEnabled
}

// LastEnabled returns a new background where only the most recently enabled span is enabled.
func (bg *Background) LastEnabled() *Background {
	result := &Background{features: bg.features, enabled: make([]bool, len(bg.enabled))}
	for i := bg.lastEnabled.Begin; i < bg.lastEnabled.End; i++ {
		result.enabled[i] = true
	}
	return result
}

// Mask returns a copy of the enabled flags.
func (bg *Background) Mask() []bool {
	mask := make([]bool, len(bg.enabled))
	copy(mask, bg.enabled)
	return mask
}

// Bin returns a bin of the underlying feature set regardless of its state.
func (bg *Background) Bin(index int) (Bin, error) {
	return bg.features.Bin(index)
}

// FeatureIndexByBinIndex finds the feature owning a bin.
func (bg *Background) FeatureIndexByBinIndex(binIndex int) (int, error) {
	return bg.features.FeatureIndexByBinIndex(binIndex)
}

func (bg *Background) binIndexes(state bool) []int {
	var result []int
	for i, e := range bg.enabled {
		if e == state {
			result = append(result, i)
		}
	}
	return result
}

func (bg *Background) allEnabled(r Range) bool {
	for i := r.Begin; i < r.End; i++ {
		if !bg.enabled[i] {
			return false
		}
	}
	return true
}

func (bg *Background) checkBinIndex(index int) error {
	if index < 0 || index >= len(bg.enabled) {
		return errors.NewIndexOutOfRangeError("bin", index, len(bg.enabled))
	}
	return nil
}
