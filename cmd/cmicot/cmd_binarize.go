package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/internal/pool"
)

func newBinarizeCmd(opts *options) *cobra.Command {
	var poolOutput, mapOutput string
	cmd := &cobra.Command{
		Use:   "binarize",
		Short: "Write the binarized pool and its feature-bin map instead of selecting features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBinarize(cmd, opts, poolOutput, mapOutput)
		},
	}
	addInputFlags(cmd, opts)
	cmd.Flags().StringVar(&poolOutput, "pool-output", "", "Where to write the binarized pool, '-' for stdout")
	cmd.Flags().StringVar(&mapOutput, "map-output", "", "Where to write the feature-bin map, '-' for stdout")
	_ = cmd.MarkFlagRequired("pool-output")
	_ = cmd.MarkFlagRequired("map-output")
	return cmd
}

func runBinarize(cmd *cobra.Command, opts *options, poolOutput, mapOutput string) error {
	settings, err := opts.resolveSettings(cmd)
	if err != nil {
		return err
	}
	label, fs, err := loadDataset(cmd, opts, settings.Selection)
	if err != nil {
		return err
	}

	sections := []struct {
		path   string
		format pool.Format
	}{
		{poolOutput, pool.FormatPool},
		{mapOutput, pool.FormatBinFeatureMap},
	}
	for _, section := range sections {
		w, closeOutput, err := createOutput(cmd, section.path)
		if err != nil {
			return err
		}
		err = pool.WriteReport(w, []pool.Format{section.format}, pool.Report{Label: label, Features: fs})
		if closeErr := closeOutput(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", section.path, err)
		}
	}
	return nil
}
