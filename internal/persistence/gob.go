// Package persistence saves and loads gob snapshots of datasets and selection results.
package persistence

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// SaveGob encodes the given object using gob and saves it to the specified filePath.
// The snapshot is written to a temporary file in the same directory and renamed into place.
func SaveGob(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", filePath, err)
	}
	tmpPath := tmp.Name()

	if err := gob.NewEncoder(tmp).Encode(object); err != nil {
		closeQuietly(tmp, tmpPath)
		removeQuietly(tmpPath)
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if err := tmp.Close(); err != nil {
		removeQuietly(tmpPath)
		return fmt.Errorf("failed to close file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		removeQuietly(tmpPath)
		return fmt.Errorf("failed to move snapshot into %s: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes a gob-encoded file from filePath into the provided object pointer.
// If the file does not exist, it returns os.ErrNotExist, allowing callers to handle
// fresh starts gracefully.
func LoadGob(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is built by the engine from its data dir
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer closeQuietly(file, filePath)

	if err := gob.NewDecoder(file).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}

func closeQuietly(file *os.File, path string) {
	if err := file.Close(); err != nil {
		log.Printf("Warning: failed to close file %s: %v", path, err)
	}
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to remove temporary file %s: %v", path, err)
	}
}
