// Package engine keeps the registered datasets, runs selection jobs on them and
// scores single features. It implements services.SelectionService.
package engine

import (
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcbaptista/go-cmicot/config"
	"github.com/gcbaptista/go-cmicot/internal/binarize"
	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/internal/jobs"
	"github.com/gcbaptista/go-cmicot/internal/pool"
	"github.com/gcbaptista/go-cmicot/model"
	"github.com/gcbaptista/go-cmicot/services"
	"github.com/gcbaptista/go-cmicot/store"
)

var _ services.SelectionService = (*Engine)(nil)

var datasetNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// Engine manages datasets and the selection jobs running on them.
type Engine struct {
	mu         sync.RWMutex
	datasets   map[string]*store.DatasetStore
	results    map[string]*model.SelectionResult // by job ID
	dataDir    string
	settings   config.SelectionSettings
	jobManager *jobs.Manager
}

// NewEngine creates an engine persisting to dataDir and loads the datasets found there.
// An empty dataDir keeps everything in memory.
func NewEngine(dataDir string, settings config.SelectionSettings, maxConcurrentJobs int) *Engine {
	settings.ApplyDefaults()
	eng := &Engine{
		datasets:   make(map[string]*store.DatasetStore),
		results:    make(map[string]*model.SelectionResult),
		dataDir:    dataDir,
		settings:   settings,
		jobManager: jobs.NewManager(maxConcurrentJobs),
	}
	eng.jobManager.Start()
	if dataDir != "" {
		eng.loadFromDisk()
	}
	return eng
}

// Close cancels the running jobs and waits for them to stop.
func (e *Engine) Close() {
	e.jobManager.Stop()
}

// SelectionSettings returns the defaults applied to requests.
func (e *Engine) SelectionSettings() config.SelectionSettings {
	return e.settings
}

// ValidateDatasetName checks that a name can be used as a directory name.
func ValidateDatasetName(name string) error {
	if !datasetNamePattern.MatchString(name) {
		return errors.NewValidationError("name",
			fmt.Sprintf("dataset name '%s' must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", name))
	}
	return nil
}

// CreateDatasetFromRawPool binarizes a numeric pool with the configured border
// builder and registers it. The first column is the label.
func (e *Engine) CreateDatasetFromRawPool(name string, rawPool io.Reader) (model.DatasetInfo, error) {
	if err := e.checkNewName(name); err != nil {
		return model.DatasetInfo{}, err
	}
	builder, err := e.borderBuilder()
	if err != nil {
		return model.DatasetInfo{}, err
	}
	columns, err := pool.ReadPool(rawPool, e.settings.ThreadCount)
	if err != nil {
		return model.DatasetInfo{}, fmt.Errorf("failed to read pool for dataset '%s': %w", name, err)
	}
	label, fs, err := binarize.BinarizeRawPool(columns, builder, e.settings.ThreadCount)
	if err != nil {
		return model.DatasetInfo{}, fmt.Errorf("failed to binarize pool for dataset '%s': %w", name, err)
	}
	return e.register(name, model.DatasetSourceRaw, label, fs)
}

// CreateDatasetFromBinaryPool registers a pre-binarized pool. The label column
// is binarized with the configured border builder.
func (e *Engine) CreateDatasetFromBinaryPool(name string, binaryPool, binMap io.Reader) (model.DatasetInfo, error) {
	if err := e.checkNewName(name); err != nil {
		return model.DatasetInfo{}, err
	}
	builder, err := e.borderBuilder()
	if err != nil {
		return model.DatasetInfo{}, err
	}
	binToFeature, err := pool.ReadBinToFeatureMap(binMap)
	if err != nil {
		return model.DatasetInfo{}, fmt.Errorf("failed to read bin map for dataset '%s': %w", name, err)
	}
	columns, err := pool.ReadPool(binaryPool, e.settings.ThreadCount)
	if err != nil {
		return model.DatasetInfo{}, fmt.Errorf("failed to read pool for dataset '%s': %w", name, err)
	}
	label, fs, err := binarize.BinarizeBinaryPool(columns, binToFeature, builder)
	if err != nil {
		return model.DatasetInfo{}, fmt.Errorf("failed to load binary pool for dataset '%s': %w", name, err)
	}
	return e.register(name, model.DatasetSourceBinary, label, fs)
}

// GetDataset describes a registered dataset.
func (e *Engine) GetDataset(name string) (model.DatasetInfo, error) {
	ds, err := e.dataset(name)
	if err != nil {
		return model.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// ListDatasets describes every registered dataset, ordered by name.
func (e *Engine) ListDatasets() []model.DatasetInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	result := make([]model.DatasetInfo, 0, len(e.datasets))
	for _, ds := range e.datasets {
		result = append(result, ds.Info())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// DeleteDataset removes a dataset and its selection results from memory and disk.
// Jobs already running on it finish on their own copy of the bins.
func (e *Engine) DeleteDataset(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.datasets[name]; !exists {
		return errors.NewDatasetNotFoundError(name)
	}
	delete(e.datasets, name)
	for jobID, result := range e.results {
		if result.DatasetName == name {
			delete(e.results, jobID)
		}
	}

	if e.dataDir != "" {
		if err := os.RemoveAll(e.datasetDir(name)); err != nil {
			return fmt.Errorf("failed to delete dataset data directory for '%s': %w", name, err)
		}
	}
	log.Printf("Dataset '%s' deleted from memory and disk.", name)
	return nil
}

// ExportDataset writes the binarized pool, the bin to feature map or the feature sizes of a dataset.
func (e *Engine) ExportDataset(name string, format pool.Format, w io.Writer) error {
	ds, err := e.dataset(name)
	if err != nil {
		return err
	}
	label, fs := ds.Data()

	switch format {
	case pool.FormatPool, pool.FormatBinFeatureMap, pool.FormatFeatureSizes:
		return pool.WriteReport(w, []pool.Format{format}, pool.Report{Label: label, Features: fs})
	}
	return errors.NewValidationError("format",
		fmt.Sprintf("dataset export supports %s, %s and %s, got '%s'", pool.FormatPool, pool.FormatBinFeatureMap, pool.FormatFeatureSizes, format))
}

// MetricsGatherer returns the registry holding the job collectors.
func (e *Engine) MetricsGatherer() prometheus.Gatherer {
	return e.jobManager.Registry()
}

// GetJobMetrics returns the job counters.
func (e *Engine) GetJobMetrics() jobs.JobMetricsData {
	return e.jobManager.GetMetrics()
}

// GetJobSuccessRate returns the percentage of finished jobs that completed.
func (e *Engine) GetJobSuccessRate() float64 {
	return e.jobManager.GetJobSuccessRate()
}

// GetCurrentWorkload returns how many jobs are waiting, running or stopping.
func (e *Engine) GetCurrentWorkload() int64 {
	return e.jobManager.GetCurrentWorkload()
}

func (e *Engine) dataset(name string) (*store.DatasetStore, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ds, exists := e.datasets[name]
	if !exists {
		return nil, errors.NewDatasetNotFoundError(name)
	}
	return ds, nil
}

// checkNewName fails fast before an expensive pool read.
func (e *Engine) checkNewName(name string) error {
	if err := ValidateDatasetName(name); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if _, exists := e.datasets[name]; exists {
		return errors.NewDatasetAlreadyExistsError(name)
	}
	return nil
}

func (e *Engine) borderBuilder() (binarize.BorderBuilder, error) {
	method, err := binarize.ParseMethod(e.settings.Binarization)
	if err != nil {
		return nil, err
	}
	return binarize.NewBorderBuilder(method, e.settings.BorderCount)
}

func (e *Engine) register(name string, source model.DatasetSource, label, fs *features.FeatureSet) (model.DatasetInfo, error) {
	ds, err := store.NewDatasetStore(name, source, label, fs)
	if err != nil {
		return model.DatasetInfo{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.datasets[name]; exists {
		return model.DatasetInfo{}, errors.NewDatasetAlreadyExistsError(name)
	}
	if err := e.persistDataset(ds); err != nil {
		return model.DatasetInfo{}, err
	}
	e.datasets[name] = ds

	info := ds.Info()
	log.Printf("Dataset '%s' created with %d features, %d bins and %d samples.", name, info.FeatureCount, info.BinCount, info.SampleCount)
	return info, nil
}
