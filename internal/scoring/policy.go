package scoring

import (
	"fmt"

	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
)

// Policy decides which bins form the context of each search phase.
type Policy string

const (
	// PolicyEval enables the eval bin for the maximize phase and disables its
	// whole feature for the minimize phase.
	PolicyEval Policy = "eval"
	// PolicyEFAM enables the whole feature of the eval bin for the maximize phase
	// and disables it for the minimize phase.
	PolicyEFAM Policy = "efam"
	// PolicyBTM maximizes over every bin and only removes the eval bin for the minimize phase.
	PolicyBTM Policy = "btm"
)

// Policies lists every supported policy.
var Policies = []Policy{PolicyEval, PolicyEFAM, PolicyBTM}

// ParsePolicy validates a policy name.
func ParsePolicy(name string) (Policy, error) {
	for _, p := range Policies {
		if string(p) == name {
			return p, nil
		}
	}
	return "", errors.NewValidationError("policy", fmt.Sprintf("unknown policy '%s'", name))
}

// phaseContext prepares the backgrounds of the two phases. maximize returns the
// background the maximize phase runs on; minimize adjusts bg in place before
// the minimize phase.
type phaseContext struct {
	maximize func(bg *features.Background, evalBinIndex int) (*features.Background, error)
	minimize func(bg *features.Background, evalBinIndex int) error
}

func enableBin(bg *features.Background, evalBinIndex int) (*features.Background, error) {
	return bg, bg.SetBinEnabled(evalBinIndex, true)
}

func setOwnerEnabled(enabled bool) func(*features.Background, int) error {
	return func(bg *features.Background, evalBinIndex int) error {
		f, err := bg.FeatureIndexByBinIndex(evalBinIndex)
		if err != nil {
			return err
		}
		return bg.SetFeatureEnabled(f, enabled)
	}
}

func (p Policy) context() (phaseContext, error) {
	switch p {
	case PolicyEval:
		return phaseContext{
			maximize: enableBin,
			minimize: setOwnerEnabled(false),
		}, nil
	case PolicyEFAM:
		enableOwner := setOwnerEnabled(true)
		return phaseContext{
			maximize: func(bg *features.Background, evalBinIndex int) (*features.Background, error) {
				return bg, enableOwner(bg, evalBinIndex)
			},
			minimize: setOwnerEnabled(false),
		}, nil
	case PolicyBTM:
		return phaseContext{
			maximize: func(bg *features.Background, _ int) (*features.Background, error) {
				all := bg.Clone()
				all.EnableAll()
				return all, nil
			},
			minimize: func(bg *features.Background, evalBinIndex int) error {
				return bg.SetBinEnabled(evalBinIndex, false)
			},
		}, nil
	}
	return phaseContext{}, errors.NewValidationError("policy", fmt.Sprintf("unknown policy '%s'", p))
}

// BinScorer scores one bin against a background. The background is not modified.
type BinScorer interface {
	Score(bg *features.Background, binIndex int) (BinScore, error)
}

// ScorerConfig configures a miximizer-based bin scorer.
type ScorerConfig struct {
	Policy        Policy
	MaximizeSteps int
	MinimizeSteps int
	ThreadCount   int
}

// StepConfig is the usual configuration for a step count: stepCount-1 maximize
// steps followed by stepCount minimize steps.
func StepConfig(policy Policy, stepCount, threadCount int) ScorerConfig {
	return ScorerConfig{
		Policy:        policy,
		MaximizeSteps: stepCount - 1,
		MinimizeSteps: stepCount,
		ThreadCount:   threadCount,
	}
}

// MiximizerScorer scores bins with a Miximizer under a Policy.
type MiximizerScorer struct {
	miximizer Miximizer
	phases    phaseContext
}

// NewBinScorer builds a scorer for the given label.
func NewBinScorer(label *features.FeatureSet, cfg ScorerConfig) (*MiximizerScorer, error) {
	phases, err := cfg.Policy.context()
	if err != nil {
		return nil, err
	}
	m, err := NewParallelMiximizer(label, cfg.MaximizeSteps, cfg.MinimizeSteps, cfg.ThreadCount)
	if err != nil {
		return nil, err
	}
	return &MiximizerScorer{miximizer: m, phases: phases}, nil
}

// NewMiximizerScorer wraps any Miximizer with a Policy.
func NewMiximizerScorer(m Miximizer, policy Policy) (*MiximizerScorer, error) {
	phases, err := policy.context()
	if err != nil {
		return nil, err
	}
	return &MiximizerScorer{miximizer: m, phases: phases}, nil
}

// Score implements BinScorer. The score is the CMI after the last minimize step.
func (s *MiximizerScorer) Score(bg *features.Background, binIndex int) (BinScore, error) {
	if err := checkEvalIndex(bg, binIndex); err != nil {
		return BinScore{}, err
	}
	work := bg.Clone()

	maxBg, err := s.phases.maximize(work, binIndex)
	if err != nil {
		return BinScore{}, err
	}
	maxSteps, err := s.miximizer.MaximizePhase(maxBg, binIndex)
	if err != nil {
		return BinScore{}, fmt.Errorf("maximize phase for bin %d: %w", binIndex, err)
	}

	if err := s.phases.minimize(work, binIndex); err != nil {
		return BinScore{}, err
	}
	minSteps, err := s.miximizer.MinimizePhase(work, binIndex, maxSteps)
	if err != nil {
		return BinScore{}, fmt.Errorf("minimize phase for bin %d: %w", binIndex, err)
	}
	if len(minSteps) == 0 {
		return BinScore{}, errors.NewValidationError("minimize_steps", "minimize phase made no steps")
	}

	return BinScore{
		Score:           minSteps[len(minSteps)-1].CMI,
		MaximizingSteps: maxSteps,
		MinimizingSteps: minSteps,
	}, nil
}
