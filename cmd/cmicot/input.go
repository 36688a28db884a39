package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/binarize"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/pool"
)

// loadDataset reads the pool chosen by the input flags and binarizes it
func loadDataset(cmd *cobra.Command, opts *options, settings config.SelectionSettings) (label, fs *features.FeatureSet, err error) {
	method, err := binarize.ParseMethod(settings.Binarization)
	if err != nil {
		return nil, nil, err
	}
	builder, err := binarize.NewBorderBuilder(method, settings.BorderCount)
	if err != nil {
		return nil, nil, err
	}

	raw := opts.poolPath != "" && opts.binaryPoolPath == "" && opts.mapPath == ""
	binary := opts.poolPath == "" && opts.binaryPoolPath != "" && opts.mapPath != ""
	if !raw && !binary {
		return nil, nil, errors.NewValidationError("pool", "provide either only --pool or both --binary-pool and --map")
	}

	if raw {
		columns, err := readPool(cmd, opts.poolPath, settings.ThreadCount)
		if err != nil {
			return nil, nil, err
		}
		return binarize.BinarizeRawPool(columns, builder, settings.ThreadCount)
	}

	binToFeature, err := readBinMap(cmd, opts.mapPath)
	if err != nil {
		return nil, nil, err
	}
	columns, err := readPool(cmd, opts.binaryPoolPath, settings.ThreadCount)
	if err != nil {
		return nil, nil, err
	}
	return binarize.BinarizeBinaryPool(columns, binToFeature, builder)
}

func readPool(cmd *cobra.Command, path string, threadCount int) (pool.Columns, error) {
	r, closeInput, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	columns, err := pool.ReadPool(r, threadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool %s: %w", path, err)
	}
	return columns, nil
}

func readBinMap(cmd *cobra.Command, path string) ([]int, error) {
	r, closeInput, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer closeInput()

	binToFeature, err := pool.ReadBinToFeatureMap(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bin map %s: %w", path, err)
	}
	return binToFeature, nil
}

// openInput opens a file, or the command's input for "-"
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}

// createOutput creates a file, or returns the command's output for "-"
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}
