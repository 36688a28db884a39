package scoring

import (
	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
)

// Miximizer runs the two greedy phases of a bin evaluation.
//
// MaximizePhase picks context bins that raise CMI(label; eval bin | picked) the
// most. It works on a private copy of bg.
//
// MinimizePhase picks context bins that lower the remaining CMI the most and
// disables each pick in bg itself. After its i-th pick it also adds the i-th
// maximize-phase bin to the second variable.
type Miximizer interface {
	MaximizePhase(bg *features.Background, evalBinIndex int) ([]StepResult, error)
	MinimizePhase(bg *features.Background, evalBinIndex int, maxSteps []StepResult) ([]StepResult, error)
}

// ParallelMiximizer evaluates the candidates of every step concurrently.
type ParallelMiximizer struct {
	label         *entropy.CMICalculator
	sampleCount   int
	maximizeSteps int
	minimizeSteps int
	threadCount   int
}

// NewParallelMiximizer creates a miximizer measuring information about the given label.
func NewParallelMiximizer(label *features.FeatureSet, maximizeSteps, minimizeSteps, threadCount int) (*ParallelMiximizer, error) {
	if maximizeSteps < 0 {
		return nil, errors.NewValidationError("maximize_steps", "must not be negative")
	}
	if minimizeSteps < 1 {
		return nil, errors.NewValidationError("minimize_steps", "must be at least 1")
	}
	calc, err := labelCalculator(label)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(label.BinCount(), maximizeSteps, minimizeSteps); err != nil {
		return nil, err
	}
	return &ParallelMiximizer{
		label:         calc,
		sampleCount:   label.SampleCount(),
		maximizeSteps: maximizeSteps,
		minimizeSteps: minimizeSteps,
		threadCount:   threadCount,
	}, nil
}

// MaximizePhase implements Miximizer.
func (m *ParallelMiximizer) MaximizePhase(bg *features.Background, evalBinIndex int) ([]StepResult, error) {
	if err := checkSearch(bg, evalBinIndex, m.sampleCount); err != nil {
		return nil, err
	}
	if enabled := bg.EnabledBinCount(); enabled < m.maximizeSteps {
		return nil, errors.NewInsufficientContextError(enabled, m.maximizeSteps)
	}

	local := bg.Clone()
	bins := bg.Features().AllBins()

	calc := m.label.Clone()
	calc.AddSecondVariableBin(bins[evalBinIndex])

	value := func(binIndex int) (float64, error) {
		return calc.ValueWithConditionBin(bins[binIndex]), nil
	}

	result := make([]StepResult, 0, m.maximizeSteps)
	for step := 0; step < m.maximizeSteps; step++ {
		candidates := local.EnabledBinIndexes()
		best, err := parallel.MaxElementBy(candidates, value, m.threadCount)
		if err != nil {
			return nil, err
		}
		binIndex := candidates[best.Position]

		if err := local.SetBinEnabled(binIndex, false); err != nil {
			return nil, err
		}
		result = append(result, StepResult{BinIndex: binIndex, CMI: best.Value})
		calc.AddConditionBin(bins[binIndex])
	}
	return result, nil
}

// MinimizePhase implements Miximizer.
func (m *ParallelMiximizer) MinimizePhase(bg *features.Background, evalBinIndex int, maxSteps []StepResult) ([]StepResult, error) {
	if err := checkSearch(bg, evalBinIndex, m.sampleCount); err != nil {
		return nil, err
	}
	if enabled := bg.EnabledBinCount(); enabled < m.minimizeSteps {
		return nil, errors.NewInsufficientContextError(enabled, m.minimizeSteps)
	}
	for _, s := range maxSteps {
		if err := checkEvalIndex(bg, s.BinIndex); err != nil {
			return nil, err
		}
	}

	bins := bg.Features().AllBins()

	calc := m.label.Clone()
	calc.AddSecondVariableBin(bins[evalBinIndex])

	value := func(binIndex int) (float64, error) {
		return calc.ValueWithConditionBin(bins[binIndex]), nil
	}

	result := make([]StepResult, 0, m.minimizeSteps)
	for step := 0; step < m.minimizeSteps; step++ {
		candidates := bg.EnabledBinIndexes()
		best, err := parallel.MinElementBy(candidates, value, m.threadCount)
		if err != nil {
			return nil, err
		}
		binIndex := candidates[best.Position]

		result = append(result, StepResult{BinIndex: binIndex, CMI: best.Value})
		if err := bg.SetBinEnabled(binIndex, false); err != nil {
			return nil, err
		}

		calc.AddConditionBin(bins[binIndex])
		if step < len(maxSteps) {
			calc.AddSecondVariableBin(bins[maxSteps[step].BinIndex])
		}
	}
	return result, nil
}
