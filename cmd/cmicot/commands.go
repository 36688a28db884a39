package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gcbaptista/go-cmicot/config"
)

const version = "1.0.0"

// options holds the flag values shared by the subcommands
type options struct {
	configPath     string
	poolPath       string
	binaryPoolPath string
	mapPath        string
	settings       config.SelectionSettings
	server         config.ServerSettings
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "cmicot",
		Short: "Greedy feature selection by conditional mutual information",
		Long: `cmicot selects features one at a time, each time taking the feature whose
bins carry the most information about the label that the features selected
so far do not already carry.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML settings file; flags override its values")

	root.AddCommand(
		newSelectCmd(opts),
		newBinarizeCmd(opts),
		newScoreCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// addInputFlags registers the flags that choose and binarize the input pool
func addInputFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.poolPath, "pool", "", "File with raw pool, '-' for stdin. Can't be used with --binary-pool and --map")
	f.StringVar(&opts.binaryPoolPath, "binary-pool", "", "File with binarized pool (1st column - nonbinarized label, other columns - binarized features). Use with --map")
	f.StringVar(&opts.mapPath, "map", "", "File with feature-bin map")
	f.StringVar(&opts.settings.Binarization, "binarization", config.DefaultBinarization, "Binarization mode: median, uniform or medianPlusUniform")
	f.IntVarP(&opts.settings.BorderCount, "border-count", "x", config.DefaultBorderCount, "Discretization level count")
	f.IntVar(&opts.settings.ThreadCount, "thread-count", config.DefaultThreadCount, "Threads to use during maximization and minimization")
}

func addStepCountFlag(cmd *cobra.Command, opts *options) {
	cmd.Flags().IntVarP(&opts.settings.EvalStepCount, "eval-step-count", "t", config.DefaultEvalStepCount, "Eval algorithm step count")
}

// resolveSettings loads the settings file and applies the flags set on the command line
func (o *options) resolveSettings(cmd *cobra.Command) (*config.Settings, error) {
	settings, err := config.LoadSettings(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	selection := &settings.Selection
	overrideInt := func(name string, dest *int, value int) {
		if flags.Changed(name) {
			*dest = value
		}
	}
	overrideString := func(name string, dest *string, value string) {
		if flags.Changed(name) {
			*dest = value
		}
	}
	overrideInt("eval-step-count", &selection.EvalStepCount, o.settings.EvalStepCount)
	overrideInt("thread-count", &selection.ThreadCount, o.settings.ThreadCount)
	overrideInt("select-count", &selection.SelectCount, o.settings.SelectCount)
	overrideInt("border-count", &selection.BorderCount, o.settings.BorderCount)
	overrideString("binarization", &selection.Binarization, o.settings.Binarization)
	overrideString("policy", &selection.Policy, o.settings.Policy)
	overrideString("normalization", &selection.Normalization, o.settings.Normalization)

	server := &settings.Server
	overrideInt("port", &server.Port, o.server.Port)
	overrideString("data-dir", &server.DataDir, o.server.DataDir)
	overrideInt("max-concurrent-jobs", &server.MaxConcurrentJobs, o.server.MaxConcurrentJobs)
	if flags.Changed("max-body-bytes") {
		server.MaxBodyBytes = o.server.MaxBodyBytes
	}

	problems := append(selection.Validate(), server.Validate()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return settings, nil
}
