package engine

import (
	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
	"github.com/gcbaptista/go-cmicot/model"
	"github.com/gcbaptista/go-cmicot/services"
)

// ScoreFeature scores one feature of a dataset against a background of enabled
// features. The scored feature itself is always disabled in the background.
func (e *Engine) ScoreFeature(datasetName string, req model.ScoreRequest) (*services.ScoreResult, error) {
	ds, err := e.dataset(datasetName)
	if err != nil {
		return nil, err
	}
	label, fs := ds.Data()

	result, err := ScoreDataset(label, fs, e.settings, req)
	if err != nil {
		return nil, err
	}
	result.DatasetName = datasetName
	return result, nil
}

// ScoreDataset scores one feature of fs. Fields left empty in req fall back to settings.
func ScoreDataset(label, fs *features.FeatureSet, settings config.SelectionSettings, req model.ScoreRequest) (*services.ScoreResult, error) {
	bg, err := scoringBackground(fs, req)
	if err != nil {
		return nil, err
	}

	threadCount := req.ThreadCount
	if threadCount == 0 {
		threadCount = settings.ThreadCount
	}
	if threadCount < 1 {
		return nil, errors.NewValidationError("thread_count", "must be at least 1")
	}

	method := req.Method
	if method == "" {
		method = model.ScoreMethodMiximizer
	}

	enabled := bg.EnabledFeatureIndexes()
	if enabled == nil {
		enabled = []int{}
	}
	result := &services.ScoreResult{
		FeatureIndex:    req.FeatureIndex,
		Method:          method,
		EnabledFeatures: enabled,
	}

	switch method {
	case model.ScoreMethodCMIM:
		score, err := scoring.ScoreCMIM(label, bg, req.FeatureIndex, threadCount)
		if err != nil {
			return nil, err
		}
		result.Score = score.Score
		result.CMIM = &score
		return result, nil

	case model.ScoreMethodMiximizer:
		policy, normalization, stepCount, err := miximizerOptions(settings, req)
		if err != nil {
			return nil, err
		}
		scorer, err := scoring.NewBinScorer(label, scoring.StepConfig(policy, stepCount, threadCount))
		if err != nil {
			return nil, err
		}
		normalize, err := scoring.NewNormalizer(normalization, label)
		if err != nil {
			return nil, err
		}
		score, err := scoring.ScoreFeature(bg, req.FeatureIndex, scorer, normalize)
		if err != nil {
			return nil, err
		}
		result.Policy = string(policy)
		result.Normalization = string(normalization)
		result.EvalStepCount = stepCount
		result.Score = score.Score
		result.Feature = &score
		return result, nil
	}
	return nil, errors.NewValidationError("method", "unknown score method '"+string(method)+"'")
}

func miximizerOptions(settings config.SelectionSettings, req model.ScoreRequest) (scoring.Policy, scoring.Normalization, int, error) {
	policyName := req.Policy
	if policyName == "" {
		policyName = settings.Policy
	}
	policy, err := scoring.ParsePolicy(policyName)
	if err != nil {
		return "", "", 0, err
	}

	normalizationName := req.Normalization
	if normalizationName == "" {
		normalizationName = settings.Normalization
	}
	normalization, err := scoring.ParseNormalization(normalizationName)
	if err != nil {
		return "", "", 0, err
	}

	stepCount := req.EvalStepCount
	if stepCount == 0 {
		stepCount = settings.EvalStepCount
	}
	if stepCount < 1 {
		return "", "", 0, errors.NewValidationError("eval_step_count", "must be at least 1")
	}
	return policy, normalization, stepCount, nil
}

// scoringBackground enables the requested features, or every feature when none are listed.
func scoringBackground(fs *features.FeatureSet, req model.ScoreRequest) (*features.Background, error) {
	bg := features.NewBackground(fs)
	if req.EnabledFeatures != nil {
		bg.DisableAll()
		for _, f := range req.EnabledFeatures {
			if err := bg.SetFeatureEnabled(f, true); err != nil {
				return nil, err
			}
		}
	}
	if err := bg.SetFeatureEnabled(req.FeatureIndex, false); err != nil {
		return nil, err
	}
	return bg, nil
}
