package scoring

import (
	"fmt"

	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/parallel"
)

// FeatureScore is the best normalized bin score of a feature plus every bin score.
type FeatureScore struct {
	Score     float64    `json:"score"`
	BinScores []BinScore `json:"bin_scores"`
}

// ScoreFeature scores every bin of a feature and keeps the maximum.
func ScoreFeature(bg *features.Background, featureIndex int, scorer BinScorer, normalize Normalizer) (FeatureScore, error) {
	r, err := bg.Features().FeatureBinRange(featureIndex)
	if err != nil {
		return FeatureScore{}, err
	}
	if r.Len() == 0 {
		return FeatureScore{}, errors.NewValidationError("feature", fmt.Sprintf("feature %d has no bins", featureIndex))
	}

	result := FeatureScore{BinScores: make([]BinScore, 0, r.Len())}
	for i, binIndex := range r.Indexes() {
		score, err := scorer.Score(bg, binIndex)
		if err != nil {
			return FeatureScore{}, err
		}
		score.Score = normalize(score, bg, binIndex)
		if i == 0 || score.Score > result.Score {
			result.Score = score.Score
		}
		result.BinScores = append(result.BinScores, score)
	}
	return result, nil
}

// CMIMScore is min over other enabled features g of I(label; feature | g).
type CMIMScore struct {
	Score                  float64 `json:"score"`
	MinimizingFeatureIndex int     `json:"minimizing_feature_index"`
}

// ScoreCMIM computes the CMIM criterion of a feature against the enabled
// features of bg. Without any other enabled feature the result has
// MinimizingFeatureIndex parallel.NotFound.
func ScoreCMIM(label *features.FeatureSet, bg *features.Background, featureIndex, threadCount int) (CMIMScore, error) {
	fs := bg.Features()
	r, err := fs.FeatureBinRange(featureIndex)
	if err != nil {
		return CMIMScore{}, err
	}
	base, err := labelCalculator(label)
	if err != nil {
		return CMIMScore{}, err
	}
	if fs.SampleCount() != label.SampleCount() {
		return CMIMScore{}, errors.NewValidationError("features",
			fmt.Sprintf("bins have %d samples while the label has %d", fs.SampleCount(), label.SampleCount()))
	}
	widest := 0
	for _, size := range fs.FeatureSizes() {
		widest = max(widest, size)
	}
	if label.BinCount()+r.Len()+widest > entropy.MaxBinCount {
		return CMIMScore{}, errors.NewCapacityExceededError(entropy.MaxBinCount)
	}

	bins := fs.AllBins()
	for _, b := range r.Indexes() {
		base.AddSecondVariableBin(bins[b])
	}

	value := func(other int) (float64, error) {
		condition, err := fs.FeatureBinRange(other)
		if err != nil {
			return 0, err
		}
		calc := base.Clone()
		for _, b := range condition.Indexes() {
			calc.AddConditionBin(bins[b])
		}
		return calc.Value(), nil
	}

	search := bg.Clone()
	if err := search.SetFeatureEnabled(featureIndex, false); err != nil {
		return CMIMScore{}, err
	}
	candidates := search.EnabledFeatureIndexes()

	best, err := parallel.MinElementBy(candidates, value, threadCount)
	if err != nil {
		return CMIMScore{}, err
	}
	if !best.Found() {
		return CMIMScore{MinimizingFeatureIndex: parallel.NotFound}, nil
	}
	return CMIMScore{Score: best.Value, MinimizingFeatureIndex: candidates[best.Position]}, nil
}
