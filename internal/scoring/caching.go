package scoring

import (
	"fmt"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
)

// stepState tells whether a cached step still holds the best choice seen so far.
type stepState int

const (
	// stepUnknown steps are searched over every enabled bin.
	stepUnknown stepState = iota
	// stepCached steps only need to look at bins enabled since the previous evaluation.
	stepCached
)

type cachedStep struct {
	state  stepState
	result StepResult
}

// cacheEntry is the memo of one eval bin.
type cacheEntry struct {
	maxSteps []cachedStep
	minSteps []cachedStep
	// seen is the enabled mask of the previous evaluation, nil before the first one
	seen  []bool
	score BinScore
}

func (e *cacheEntry) reset() {
	e.maxSteps = e.maxSteps[:0]
	e.minSteps = e.minSteps[:0]
	e.seen = nil
}

func (e *cacheEntry) resize(stepCount int) {
	e.maxSteps = resizeSteps(e.maxSteps, stepCount-1)
	e.minSteps = resizeSteps(e.minSteps, stepCount)
}

func resizeSteps(steps []cachedStep, n int) []cachedStep {
	if len(steps) >= n {
		return steps[:n]
	}
	return append(steps, make([]cachedStep, n-len(steps))...)
}

func invalidateFrom(steps []cachedStep, from int) {
	for i := from; i < len(steps); i++ {
		steps[i] = cachedStep{}
	}
}

// CachingBinScorer scores bins with stepCount-1 maximize and stepCount minimize
// steps, normalized by the label entropy, and reuses the steps of the previous
// evaluation of the same bin while the background only grows.
//
// Only the eval bin itself is disabled for the minimize phase. The scores match
// the eval policy, which disables the whole feature, only while the other bins of
// the eval bin's feature are disabled. The greedy driver enables whole features
// and scores bins of disabled features, so it always meets that condition.
//
// Evaluate may be called concurrently for distinct eval bins. Calls for the same
// bin must not overlap.
type CachingBinScorer struct {
	label        *entropy.CMICalculator
	labelBins    int
	sampleCount  int
	labelEntropy float64
	cache        []cacheEntry
}

// NewCachingBinScorer creates a scorer for backgrounds over binCount bins.
func NewCachingBinScorer(label *features.FeatureSet, binCount int) (*CachingBinScorer, error) {
	calc, err := labelCalculator(label)
	if err != nil {
		return nil, err
	}
	h := entropy.BinsEntropy(label.AllBins()...)
	if h == 0 {
		return nil, errors.NewValidationError("label", "label is constant, its entropy is zero")
	}
	return &CachingBinScorer{
		label:        calc,
		labelBins:    label.BinCount(),
		sampleCount:  label.SampleCount(),
		labelEntropy: h,
		cache:        make([]cacheEntry, binCount),
	}, nil
}

// LabelEntropy returns the entropy scores are divided by.
func (s *CachingBinScorer) LabelEntropy() float64 {
	return s.labelEntropy
}

// Evaluate scores evalBinIndex against bg with the given step count. bg is not modified.
func (s *CachingBinScorer) Evaluate(bg *features.Background, evalBinIndex, stepCount int) (BinScore, error) {
	if err := checkSearch(bg, evalBinIndex, s.sampleCount); err != nil {
		return BinScore{}, err
	}
	if bg.BinCount() != len(s.cache) {
		return BinScore{}, errors.NewValidationError("background",
			fmt.Sprintf("background has %d bins, scorer was built for %d", bg.BinCount(), len(s.cache)))
	}
	if stepCount < 1 {
		return BinScore{}, errors.NewValidationError("step_count", "must be at least 1")
	}
	if err := checkCapacity(s.labelBins, stepCount-1, stepCount); err != nil {
		return BinScore{}, err
	}

	work := bg.Clone()
	if err := work.SetBinEnabled(evalBinIndex, true); err != nil {
		return BinScore{}, err
	}
	if enabled := work.EnabledBinCount(); enabled < stepCount+1 {
		return BinScore{}, errors.NewInsufficientContextError(enabled, stepCount+1)
	}

	entry := &s.cache[evalBinIndex]
	current := bg.Mask()
	fresh, grown := freshBins(entry.seen, current)
	if !grown {
		entry.reset()
	}
	entry.resize(stepCount)

	score, err := s.search(entry, work, evalBinIndex, fresh)
	if err != nil {
		entry.reset()
		return BinScore{}, err
	}
	entry.seen = current
	entry.score = score
	return score.Clone(), nil
}

// freshBins returns the bins enabled in current but not in seen. grown is false
// when there is no previous mask or some previously enabled bin got disabled.
func freshBins(seen, current []bool) (fresh []int, grown bool) {
	if seen == nil || len(seen) != len(current) {
		return nil, false
	}
	for i := range current {
		switch {
		case seen[i] && !current[i]:
			return nil, false
		case current[i] && !seen[i]:
			fresh = append(fresh, i)
		}
	}
	return fresh, true
}

func (s *CachingBinScorer) search(entry *cacheEntry, work *features.Background, evalBinIndex int, fresh []int) (BinScore, error) {
	bins := work.Features().AllBins()

	// maximize: the eval bin is enabled and every pick stays enabled, earlier
	// picks are excluded from later steps instead
	maxCalc := s.label.Clone()
	maxCalc.AddSecondVariableBin(bins[evalBinIndex])
	maxValue := func(binIndex int) (float64, error) {
		return maxCalc.ValueWithConditionBin(bins[binIndex]), nil
	}

	picked := make(map[int]bool, len(entry.maxSteps))
	for step := range entry.maxSteps {
		st := &entry.maxSteps[step]
		pool := fresh
		if st.state == stepUnknown {
			pool = work.EnabledBinIndexes()
		}
		candidates := filter(pool, func(b int) bool { return !picked[b] })

		best, err := parallel.MaxElementBy(candidates, maxValue, 1)
		if err != nil {
			return BinScore{}, err
		}
		if best.Found() && (st.state == stepUnknown || best.Value > st.result.CMI) {
			*st = cachedStep{state: stepCached, result: StepResult{BinIndex: candidates[best.Position], CMI: best.Value}}
			invalidateFrom(entry.maxSteps, step+1)
			invalidateFrom(entry.minSteps, step+1)
		}
		if st.state == stepUnknown {
			return BinScore{}, errors.NewInsufficientContextError(work.EnabledBinCount(), len(entry.maxSteps))
		}

		picked[st.result.BinIndex] = true
		maxCalc.AddConditionBin(bins[st.result.BinIndex])
	}

	// minimize: the eval bin and every pick are disabled
	if err := work.SetBinEnabled(evalBinIndex, false); err != nil {
		return BinScore{}, err
	}
	minCalc := s.label.Clone()
	minCalc.AddSecondVariableBin(bins[evalBinIndex])
	minValue := func(binIndex int) (float64, error) {
		return minCalc.ValueWithConditionBin(bins[binIndex]), nil
	}

	for step := range entry.minSteps {
		st := &entry.minSteps[step]
		var candidates []int
		if st.state == stepUnknown {
			candidates = work.EnabledBinIndexes()
		} else {
			candidates = filter(fresh, func(b int) bool {
				enabled, _ := work.IsBinEnabled(b)
				return enabled
			})
		}

		best, err := parallel.MinElementBy(candidates, minValue, 1)
		if err != nil {
			return BinScore{}, err
		}
		if best.Found() && (st.state == stepUnknown || best.Value < st.result.CMI) {
			*st = cachedStep{state: stepCached, result: StepResult{BinIndex: candidates[best.Position], CMI: best.Value}}
			invalidateFrom(entry.minSteps, step+1)
		}
		if st.state == stepUnknown {
			return BinScore{}, errors.NewInsufficientContextError(work.EnabledBinCount(), len(entry.minSteps))
		}

		chosen := st.result.BinIndex
		if err := work.SetBinEnabled(chosen, false); err != nil {
			return BinScore{}, err
		}
		minCalc.AddConditionBin(bins[chosen])
		if step < len(entry.maxSteps) {
			minCalc.AddSecondVariableBin(bins[entry.maxSteps[step].result.BinIndex])
		}
	}

	return BinScore{
		Score:           minCalc.Value() / s.labelEntropy,
		MaximizingSteps: stepResults(entry.maxSteps),
		MinimizingSteps: stepResults(entry.minSteps),
	}, nil
}

func stepResults(steps []cachedStep) []StepResult {
	result := make([]StepResult, len(steps))
	for i, st := range steps {
		result[i] = st.result
	}
	return result
}

func filter(items []int, keep func(int) bool) []int {
	result := make([]int, 0, len(items))
	for _, item := range items {
		if keep(item) {
			result = append(result, item)
		}
	}
	return result
}
