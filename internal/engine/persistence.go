package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gcbaptista/go-cmicot/internal/persistence"
	"github.com/gcbaptista/go-cmicot/model"
	"github.com/gcbaptista/go-cmicot/store"
)

const (
	dataDirPerm      = 0755
	datasetFile      = "dataset.gob"
	resultsDir       = "results"
	resultFileSuffix = ".gob"
)

func (e *Engine) datasetDir(name string) string {
	return filepath.Join(e.dataDir, name)
}

func (e *Engine) resultPath(datasetName, jobID string) string {
	return filepath.Join(e.datasetDir(datasetName), resultsDir, jobID+resultFileSuffix)
}

// persistDataset saves a dataset snapshot. Without a data dir it does nothing.
func (e *Engine) persistDataset(ds *store.DatasetStore) error {
	if e.dataDir == "" {
		return nil
	}
	path := filepath.Join(e.datasetDir(ds.Name), datasetFile)
	if err := persistence.SaveGob(path, ds); err != nil {
		return fmt.Errorf("failed to save dataset '%s': %w", ds.Name, err)
	}
	return nil
}

// persistResult saves a selection result next to its dataset. Without a data dir it does nothing.
func (e *Engine) persistResult(result *model.SelectionResult) error {
	if e.dataDir == "" {
		return nil
	}
	if err := persistence.SaveGob(e.resultPath(result.DatasetName, result.JobID), result); err != nil {
		return fmt.Errorf("failed to save result of job %s: %w", result.JobID, err)
	}
	return nil
}

// loadFromDisk loads every dataset directory and its selection results.
func (e *Engine) loadFromDisk() {
	log.Printf("Loading datasets from disk: %s", e.dataDir)

	if err := os.MkdirAll(e.dataDir, dataDirPerm); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v. New datasets will fail to persist.", e.dataDir, err)
		return
	}

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No datasets loaded.", e.dataDir, err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		name := item.Name()
		if ValidateDatasetName(name) != nil {
			continue
		}

		ds := &store.DatasetStore{}
		path := filepath.Join(e.datasetDir(name), datasetFile)
		if err := persistence.LoadGob(path, ds); err != nil {
			if err == os.ErrNotExist {
				log.Printf("Info: Directory %s holds no dataset file. Skipping.", e.datasetDir(name))
			} else {
				log.Printf("Warning: Failed to load dataset %s from %s: %v. Skipping this dataset.", name, path, err)
			}
			continue
		}
		if ds.Name != name {
			log.Printf("Warning: Dataset name in snapshot ('%s') does not match directory name ('%s'). Skipping this dataset.", ds.Name, name)
			continue
		}

		e.datasets[name] = ds
		loaded := e.loadResults(name)
		log.Printf("Successfully loaded dataset '%s' with %d selection results", name, loaded)
	}
}

func (e *Engine) loadResults(datasetName string) int {
	dir := filepath.Join(e.datasetDir(datasetName), resultsDir)
	items, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Failed to read results directory %s: %v", dir, err)
		}
		return 0
	}

	loaded := 0
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), resultFileSuffix) {
			continue
		}
		var result model.SelectionResult
		path := filepath.Join(dir, item.Name())
		if err := persistence.LoadGob(path, &result); err != nil {
			log.Printf("Warning: Failed to load selection result from %s: %v", path, err)
			continue
		}
		e.results[result.JobID] = &result
		loaded++
	}
	return loaded
}
