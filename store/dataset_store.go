// Package store keeps the binarized data of one dataset in memory.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/gcbaptista/go-cmicot/internal/errors"
	"github.com/gcbaptista/go-cmicot/internal/features"
	"github.com/gcbaptista/go-cmicot/model"
)

// DatasetStore holds the label and the feature bins of a dataset.
// The feature sets are never modified after creation, the mutex guards the metadata.
type DatasetStore struct {
	Mu        sync.RWMutex
	Name      string
	Source    model.DatasetSource
	Label     *features.FeatureSet
	Features  *features.FeatureSet
	CreatedAt time.Time
}

// NewDatasetStore checks that the label and the features describe the same samples
func NewDatasetStore(name string, source model.DatasetSource, label, fs *features.FeatureSet) (*DatasetStore, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "dataset name cannot be empty")
	}
	if label == nil || label.BinCount() == 0 {
		return nil, errors.NewValidationError("label", "label has no bins")
	}
	if fs == nil || fs.FeatureCount() == 0 {
		return nil, errors.NewValidationError("features", "dataset has no features")
	}
	if label.SampleCount() != fs.SampleCount() {
		return nil, errors.NewValidationError("features",
			fmt.Sprintf("label has %d samples while features have %d", label.SampleCount(), fs.SampleCount()))
	}
	return &DatasetStore{
		Name:      name,
		Source:    source,
		Label:     label,
		Features:  fs,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Data returns the label and the features
func (ds *DatasetStore) Data() (label, fs *features.FeatureSet) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return ds.Label, ds.Features
}

// Info summarizes the dataset
func (ds *DatasetStore) Info() model.DatasetInfo {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	return model.DatasetInfo{
		Name:          ds.Name,
		Source:        ds.Source,
		SampleCount:   ds.Features.SampleCount(),
		FeatureCount:  ds.Features.FeatureCount(),
		BinCount:      ds.Features.BinCount(),
		LabelBinCount: ds.Label.BinCount(),
		FeatureSizes:  ds.Features.FeatureSizes(),
		CreatedAt:     ds.CreatedAt,
	}
}

// gobDatasetStoreData is a helper struct for Gob encoding/decoding DatasetStore data.
// It excludes the mutex.
type gobDatasetStoreData struct {
	Name      string
	Source    model.DatasetSource
	Label     *features.FeatureSet
	Features  *features.FeatureSet
	CreatedAt time.Time
}

// GobEncode implements the gob.GobEncoder interface for DatasetStore.
func (ds *DatasetStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobDatasetStoreData{
		Name:      ds.Name,
		Source:    ds.Source,
		Label:     ds.Label,
		Features:  ds.Features,
		CreatedAt: ds.CreatedAt,
	}); err != nil {
		return nil, fmt.Errorf("failed to gob encode DatasetStore data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for DatasetStore.
func (ds *DatasetStore) GobDecode(data []byte) error {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	var decoded gobDatasetStoreData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode DatasetStore data: %w", err)
	}
	if decoded.Label == nil || decoded.Features == nil {
		return fmt.Errorf("failed to gob decode DatasetStore data: dataset '%s' has no bins", decoded.Name)
	}

	ds.Name = decoded.Name
	ds.Source = decoded.Source
	ds.Label = decoded.Label
	ds.Features = decoded.Features
	ds.CreatedAt = decoded.CreatedAt
	return nil
}
