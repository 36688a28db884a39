package main

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/internal/selection"
)

func newSelectCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Select features and print their indexes in selection order, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(cmd, opts)
		},
	}
	addInputFlags(cmd, opts)
	addStepCountFlag(cmd, opts)
	cmd.Flags().IntVar(&opts.settings.SelectCount, "select-count", 0, "How many features should be selected, 0 for all")
	return cmd
}

func runSelect(cmd *cobra.Command, opts *options) error {
	settings, err := opts.resolveSettings(cmd)
	if err != nil {
		return err
	}
	s := settings.Selection

	label, fs, err := loadDataset(cmd, opts, s)
	if err != nil {
		return err
	}

	cfg := selection.Config{
		EvalStepCount: s.EvalStepCount,
		ThreadCount:   s.ThreadCount,
		FeatureCount:  s.SelectCount,
	}
	out := cmd.OutOrStdout()
	start := time.Now()
	selected := 0
	err = selection.FastFeatureSelection(label, fs, cfg, func(featureIndex int) error {
		selected++
		_, err := fmt.Fprintln(out, featureIndex)
		return err
	})
	if err != nil {
		return err
	}
	log.Printf("Selected %d of %d features in %v", selected, fs.FeatureCount(), time.Since(start))
	return nil
}
