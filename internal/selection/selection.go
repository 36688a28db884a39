// Package selection implements greedy CMI feature selection: features are picked
// one at a time, each time taking the feature that owns the best scoring bin
// against the bins selected so far.
package selection

import (
	"fmt"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
)

// Config controls a selection run.
type Config struct {
	EvalStepCount int
	ThreadCount   int
	// FeatureCount caps the number of selected features, 0 selects every feature
	FeatureCount int
}

// SelectedFunc receives every selected feature index in selection order.
// Returning an error stops the run with that error.
type SelectedFunc func(featureIndex int) error

// binEvaluator scores a disabled bin against bg with the given step count.
type binEvaluator func(bg *features.Background, binIndex, stepCount int) (float64, error)

// FastFeatureSelection runs the selection with a CachingBinScorer shared by every iteration.
func FastFeatureSelection(label, fs *features.FeatureSet, cfg Config, onSelected SelectedFunc) error {
	if err := validate(label, fs, cfg); err != nil {
		return err
	}
	scorer, err := scoring.NewCachingBinScorer(label, fs.BinCount())
	if err != nil {
		return err
	}
	evaluate := func(bg *features.Background, binIndex, stepCount int) (float64, error) {
		score, err := scorer.Evaluate(bg, binIndex, stepCount)
		return score.Score, err
	}
	return run(label, fs, cfg, evaluate, cfg.ThreadCount, onSelected)
}

// FeatureSelection runs the selection with a fresh eval-policy scorer for every
// bin. It is much slower than FastFeatureSelection and selects the same features.
func FeatureSelection(label, fs *features.FeatureSet, cfg Config) ([]int, error) {
	if err := validate(label, fs, cfg); err != nil {
		return nil, err
	}
	evaluate := func(bg *features.Background, binIndex, stepCount int) (float64, error) {
		scorer, err := scoring.NewBinScorer(label, scoring.StepConfig(scoring.PolicyEval, stepCount, cfg.ThreadCount))
		if err != nil {
			return 0, err
		}
		score, err := scorer.Score(bg, binIndex)
		return score.Score, err
	}

	selected := make([]int, 0, fs.FeatureCount())
	err := run(label, fs, cfg, evaluate, 1, func(featureIndex int) error {
		selected = append(selected, featureIndex)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// SelectionCount returns how many features a run over fs selects.
func SelectionCount(fs *features.FeatureSet, featureCount int) int {
	if featureCount <= 0 || featureCount > fs.FeatureCount() {
		return fs.FeatureCount()
	}
	return featureCount
}

func validate(label, fs *features.FeatureSet, cfg Config) error {
	if label == nil || label.BinCount() == 0 {
		return errors.NewValidationError("label", "label must have at least one bin")
	}
	if fs == nil || fs.BinCount() == 0 {
		return errors.NewValidationError("features", "there are no feature bins to select from")
	}
	if fs.SampleCount() != label.SampleCount() {
		return errors.NewValidationError("features",
			fmt.Sprintf("bins have %d samples while the label has %d", fs.SampleCount(), label.SampleCount()))
	}
	if cfg.EvalStepCount < 1 {
		return errors.NewValidationError("eval_step_count", "must be at least 1")
	}
	if cfg.FeatureCount < 0 {
		return errors.NewValidationError("feature_count", "must not be negative")
	}
	if label.BinCount()+2*cfg.EvalStepCount > entropy.MaxBinCount {
		return errors.NewCapacityExceededError(entropy.MaxBinCount)
	}
	return nil
}

func run(label, fs *features.FeatureSet, cfg Config, evaluate binEvaluator, scanThreads int, onSelected SelectedFunc) error {
	bg := features.NewBackground(fs)
	bg.DisableAll()

	first, err := bestBinByMutualInformation(label, fs, cfg.ThreadCount)
	if err != nil {
		return err
	}
	if err := enableOwner(bg, first, onSelected); err != nil {
		return err
	}

	kernel := func(binIndex int) (float64, error) {
		stepCount := min(bg.EnabledBinCount(), cfg.EvalStepCount)
		return evaluate(bg, binIndex, stepCount)
	}

	for selected := 1; selected < SelectionCount(fs, cfg.FeatureCount); selected++ {
		disabled := bg.DisabledBinIndexes()
		if len(disabled) == 0 {
			break
		}
		best, err := parallel.MaxElementBy(disabled, kernel, scanThreads)
		if err != nil {
			return err
		}
		if err := enableOwner(bg, disabled[best.Position], onSelected); err != nil {
			return err
		}
	}
	return nil
}

func enableOwner(bg *features.Background, binIndex int, onSelected SelectedFunc) error {
	f, err := bg.FeatureIndexByBinIndex(binIndex)
	if err != nil {
		return err
	}
	if err := bg.SetFeatureEnabled(f, true); err != nil {
		return err
	}
	return onSelected(f)
}

// bestBinByMutualInformation returns the bin sharing the most information with the label.
func bestBinByMutualInformation(label, fs *features.FeatureSet, threadCount int) (int, error) {
	calc := entropy.NewMutualInformationCalculator(label.SampleCount())
	for _, bin := range label.AllBins() {
		calc.AddFirstVariableBin(bin)
	}
	bins := fs.AllBins()

	candidates := fs.AllBinIndexes()
	best, err := parallel.MaxElementBy(candidates, func(binIndex int) (float64, error) {
		return calc.ValueWithSecondVariableBin(bins[binIndex]), nil
	}, threadCount)
	if err != nil {
		return 0, err
	}
	return candidates[best.Position], nil
}
