// Package config provides configuration structures for the feature selection engine.
// It defines selection settings, server settings and how they are loaded from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/go-cmicot/internal/binarize"
	"github.com/gcbaptista/go-cmicot/internal/entropy"
	"github.com/gcbaptista/go-cmicot/internal/scoring"
)

const (
	DefaultEvalStepCount    = 6
	DefaultThreadCount      = 8
	DefaultBorderCount      = 10
	DefaultBinarization     = string(binarize.MethodMedianPlusUniform)
	DefaultPolicy           = string(scoring.PolicyEval)
	DefaultNormalization    = string(scoring.NormalizationLabelEntropy)
	DefaultPort             = 8080
	DefaultDataDir          = "./data"
	DefaultMaxConcurrentJob = 2
	DefaultMaxBodyBytes     = 256 << 20
)

// SelectionSettings controls binarization, scoring and greedy selection.
//
// SelectCount 0 selects every feature. Policy and Normalization only apply to
// single bin and feature scoring; greedy selection always uses the eval policy
// normalized by the label entropy.
type SelectionSettings struct {
	EvalStepCount int    `json:"eval_step_count" yaml:"eval_step_count"` // Steps of the minimize phase; the maximize phase makes one less
	ThreadCount   int    `json:"thread_count" yaml:"thread_count"`       // Workers used by every parallel scan
	SelectCount   int    `json:"select_count" yaml:"select_count"`       // How many features to select, 0 for all
	Binarization  string `json:"binarization" yaml:"binarization"`       // Border builder: median, uniform or medianPlusUniform
	BorderCount   int    `json:"border_count" yaml:"border_count"`       // Maximum borders per raw column
	Policy        string `json:"policy" yaml:"policy"`                   // Bin scoring policy: eval, efam or btm
	Normalization string `json:"normalization" yaml:"normalization"`     // Score normalization for bin and feature scoring
}

// ServerSettings controls the HTTP service
type ServerSettings struct {
	Port              int    `json:"port" yaml:"port"`
	DataDir           string `json:"data_dir" yaml:"data_dir"`
	MaxConcurrentJobs int    `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`
	MaxBodyBytes      int64  `json:"max_body_bytes" yaml:"max_body_bytes"`
}

// Settings is the layout of a configuration file
type Settings struct {
	Selection SelectionSettings `json:"selection" yaml:"selection"`
	Server    ServerSettings    `json:"server" yaml:"server"`
}

// DefaultSelectionSettings returns selection settings with every default applied
func DefaultSelectionSettings() SelectionSettings {
	var s SelectionSettings
	s.ApplyDefaults()
	return s
}

// ApplyDefaults fills every unset field with its default
func (s *SelectionSettings) ApplyDefaults() {
	if s.EvalStepCount == 0 {
		s.EvalStepCount = DefaultEvalStepCount
	}
	if s.ThreadCount == 0 {
		s.ThreadCount = DefaultThreadCount
	}
	if s.BorderCount == 0 {
		s.BorderCount = DefaultBorderCount
	}
	if s.Binarization == "" {
		s.Binarization = DefaultBinarization
	}
	if s.Policy == "" {
		s.Policy = DefaultPolicy
	}
	if s.Normalization == "" {
		s.Normalization = DefaultNormalization
	}
}

// Validate returns one message per invalid field
func (s *SelectionSettings) Validate() []string {
	var errors []string

	if s.EvalStepCount < 1 {
		errors = append(errors, fmt.Sprintf("eval_step_count must be at least 1, got %d", s.EvalStepCount))
	} else if 1+2*s.EvalStepCount > entropy.MaxBinCount {
		errors = append(errors, fmt.Sprintf("eval_step_count %d needs more than %d bins per counter", s.EvalStepCount, entropy.MaxBinCount))
	}
	if s.ThreadCount < 1 {
		errors = append(errors, fmt.Sprintf("thread_count must be at least 1, got %d", s.ThreadCount))
	}
	if s.SelectCount < 0 {
		errors = append(errors, fmt.Sprintf("select_count must not be negative, got %d", s.SelectCount))
	}
	if s.BorderCount < 1 {
		errors = append(errors, fmt.Sprintf("border_count must be at least 1, got %d", s.BorderCount))
	}
	if _, err := binarize.ParseMethod(s.Binarization); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := scoring.ParsePolicy(s.Policy); err != nil {
		errors = append(errors, err.Error())
	}
	if _, err := scoring.ParseNormalization(s.Normalization); err != nil {
		errors = append(errors, err.Error())
	}
	return errors
}

// ApplyDefaults fills every unset field with its default
func (s *ServerSettings) ApplyDefaults() {
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if strings.TrimSpace(s.DataDir) == "" {
		s.DataDir = DefaultDataDir
	}
	if s.MaxConcurrentJobs == 0 {
		s.MaxConcurrentJobs = DefaultMaxConcurrentJob
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// Validate returns one message per invalid field
func (s *ServerSettings) Validate() []string {
	var errors []string
	if s.Port < 1 || s.Port > 65535 {
		errors = append(errors, fmt.Sprintf("port must be between 1 and 65535, got %d", s.Port))
	}
	if s.MaxConcurrentJobs < 1 {
		errors = append(errors, fmt.Sprintf("max_concurrent_jobs must be at least 1, got %d", s.MaxConcurrentJobs))
	}
	if s.MaxBodyBytes < 1 {
		errors = append(errors, fmt.Sprintf("max_body_bytes must be positive, got %d", s.MaxBodyBytes))
	}
	return errors
}

// ParseSettings decodes YAML settings, applies defaults and validates them
func ParseSettings(data []byte) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	settings.Selection.ApplyDefaults()
	settings.Server.ApplyDefaults()

	problems := append(settings.Selection.Validate(), settings.Server.Validate()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid settings: %s", strings.Join(problems, "; "))
	}
	return &settings, nil
}

// LoadSettings reads settings from a YAML file. An empty path yields the defaults.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return ParseSettings(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	return ParseSettings(data)
}
