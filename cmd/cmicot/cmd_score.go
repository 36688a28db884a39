package main

import (
	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/internal/engine"
	"github.com/gcbaptista/go-cmicot/internal/pool"
	"github.com/gcbaptista/go-cmicot/model"
)

func newScoreCmd(opts *options) *cobra.Command {
	var (
		req     model.ScoreRequest
		enabled []int
		method  string
		outputs []string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one feature against a set of enabled features",
		Long: `Score one feature against the other enabled features, every other feature
by default. The miximizer method reports the best bin score of the feature,
the cmim method the smallest I(label; feature | other feature).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("enabled") {
				req.EnabledFeatures = append([]int{}, enabled...)
			}
			req.Method = model.ScoreMethod(method)
			return runScore(cmd, opts, req, outputs)
		},
	}
	addInputFlags(cmd, opts)
	addStepCountFlag(cmd, opts)
	f := cmd.Flags()
	f.IntVar(&req.FeatureIndex, "feature", 0, "Index of the feature to score")
	f.IntSliceVar(&enabled, "enabled", nil, "Enabled feature indexes, every other feature when unset")
	f.StringVar(&method, "method", string(model.ScoreMethodMiximizer), "Score method: miximizer or cmim")
	f.StringVar(&opts.settings.Policy, "policy", "", "Bin scoring policy: eval, efam or btm")
	f.StringVar(&opts.settings.Normalization, "normalization", "", "Score normalization: none, labelEntropy, binEntropy or binAndLabelEntropy")
	f.StringSliceVar(&outputs, "output", []string{string(pool.FormatScoreOnly)}, "Report sections in order: full, usedBins, score, pool, featureSizes, binFeatureMap")
	_ = cmd.MarkFlagRequired("feature")
	return cmd
}

func runScore(cmd *cobra.Command, opts *options, req model.ScoreRequest, outputs []string) error {
	formats := make([]pool.Format, len(outputs))
	for i, name := range outputs {
		format, err := pool.ParseFormat(name)
		if err != nil {
			return err
		}
		formats[i] = format
	}

	settings, err := opts.resolveSettings(cmd)
	if err != nil {
		return err
	}
	label, fs, err := loadDataset(cmd, opts, settings.Selection)
	if err != nil {
		return err
	}

	result, err := engine.ScoreDataset(label, fs, settings.Selection, req)
	if err != nil {
		return err
	}
	return pool.WriteReport(cmd.OutOrStdout(), formats, pool.Report{
		Label:    label,
		Features: fs,
		Feature:  result.Feature,
		CMIM:     result.CMIM,
	})
}
