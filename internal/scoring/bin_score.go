// Package scoring scores candidate bins against a background of already
// selected bins with a two-phase greedy CMI search, and caches that work
// across a growing background.
package scoring

import (
	"fmt"
	"math"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// ScoreTolerance is the tolerance used when comparing scores and step values.
const ScoreTolerance = 1e-8

// StepResult is the outcome of one greedy step: the chosen bin and the CMI after choosing it.
type StepResult struct {
	BinIndex int     `json:"bin_index"`
	CMI      float64 `json:"cmi"`
}

// BinScore is a scalar score together with the steps that produced it.
type BinScore struct {
	Score           float64      `json:"score"`
	MaximizingSteps []StepResult `json:"maximizing_steps"`
	MinimizingSteps []StepResult `json:"minimizing_steps"`
}

// MaximizingBinIndexes returns the bins chosen by the maximize phase, in order.
func (s BinScore) MaximizingBinIndexes() []int {
	return binIndexes(s.MaximizingSteps)
}

// MinimizingBinIndexes returns the bins chosen by the minimize phase, in order.
func (s BinScore) MinimizingBinIndexes() []int {
	return binIndexes(s.MinimizingSteps)
}

// Clone returns a deep copy.
func (s BinScore) Clone() BinScore {
	return BinScore{
		Score:           s.Score,
		MaximizingSteps: append([]StepResult(nil), s.MaximizingSteps...),
		MinimizingSteps: append([]StepResult(nil), s.MinimizingSteps...),
	}
}

// Equal compares two scores step by step; bin indexes must match exactly and
// values within tol.
func (s BinScore) Equal(other BinScore, tol float64) bool {
	return math.Abs(s.Score-other.Score) < tol &&
		stepsEqual(s.MaximizingSteps, other.MaximizingSteps, tol) &&
		stepsEqual(s.MinimizingSteps, other.MinimizingSteps, tol)
}

func stepsEqual(a, b []StepResult, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].BinIndex != b[i].BinIndex || math.Abs(a[i].CMI-b[i].CMI) >= tol {
			return false
		}
	}
	return true
}

func binIndexes(steps []StepResult) []int {
	result := make([]int, len(steps))
	for i, s := range steps {
		result[i] = s.BinIndex
	}
	return result
}

// labelCalculator builds a CMI calculator with every label bin as the first variable.
func labelCalculator(label *features.FeatureSet) (*entropy.CMICalculator, error) {
	if label == nil || label.BinCount() == 0 {
		return nil, errors.NewValidationError("label", "label must have at least one bin")
	}
	calc := entropy.NewCMICalculator(label.SampleCount())
	for _, bin := range label.AllBins() {
		calc.AddFirstVariableBin(bin)
	}
	return calc, nil
}

// checkCapacity rejects searches whose counters would hold more than entropy.MaxBinCount bins.
// The widest counter holds the label, the eval bin, the rebound second-variable
// bins and every condition bin.
func checkCapacity(labelBins, maximizeSteps, minimizeSteps int) error {
	widest := labelBins + 1 + max(maximizeSteps, min(maximizeSteps, minimizeSteps)+minimizeSteps)
	if widest > entropy.MaxBinCount {
		return errors.NewCapacityExceededError(entropy.MaxBinCount)
	}
	return nil
}

// checkSearch validates the eval index and that the background bins line up with the label samples.
func checkSearch(bg *features.Background, evalBinIndex, sampleCount int) error {
	if err := checkEvalIndex(bg, evalBinIndex); err != nil {
		return err
	}
	if got := bg.Features().SampleCount(); got != sampleCount {
		return errors.NewValidationError("features",
			fmt.Sprintf("bins have %d samples while the label has %d", got, sampleCount))
	}
	return nil
}

func checkEvalIndex(bg *features.Background, evalBinIndex int) error {
	if evalBinIndex < 0 || evalBinIndex >= bg.BinCount() {
		return errors.NewIndexOutOfRangeError("bin", evalBinIndex, bg.BinCount())
	}
	return nil
}
