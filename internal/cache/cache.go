// Package cache persists the synced Dataset on disk. The core pipeline
// never touches storage itself; this is the calling shell that loads a
// previous Dataset and persists the one a sync returns.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmagar/rarity-cli/internal/model"
)

const cacheVersion = "v1.0.0"

// EnvCacheDir overrides the cache directory; EnvDatasetPath points reads at
// an alternate dataset file (writes still go to the cache directory).
const (
	EnvCacheDir    = "RARITY_CACHE_DIR"
	EnvDatasetPath = "RARITY_DATASET"
)

// Dir returns the cache directory path, creating it if needed.
func Dir() (string, error) {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create cache directory: %w", err)
		}
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	cacheDir := filepath.Join(homeDir, ".cache", "rarity")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return cacheDir, nil
}

// ReadMeta reads the cache metadata file. A missing file is not an error;
// it returns (nil, nil) so callers can distinguish "no cache yet".
func ReadMeta() (*model.CacheMeta, error) {
	cacheDir, err := Dir()
	if err != nil {
		return nil, err
	}
	metaPath := filepath.Join(cacheDir, "dataset_meta.json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}

	var meta model.CacheMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse cache metadata: %w", err)
	}
	return &meta, nil
}

// DatasetPath returns the file the dataset is read from, honoring the
// RARITY_DATASET override.
func DatasetPath() (string, error) {
	if p := os.Getenv(EnvDatasetPath); p != "" {
		return p, nil
	}
	cacheDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "dataset.json"), nil
}

// ReadDataset loads the cached dataset. Returns model.ErrNoCache when no
// dataset has been synced yet, and a malformed-dataset error when the file
// exists but is missing its top-level arrays.
func ReadDataset() (model.Dataset, error) {
	path, err := DatasetPath()
	if err != nil {
		return model.Dataset{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Dataset{}, model.ErrNoCache
		}
		return model.Dataset{}, fmt.Errorf("failed to read dataset cache: %w", err)
	}

	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return model.Dataset{}, fmt.Errorf("failed to parse dataset at %s: %w", path, err)
	}
	if ds.Shows == nil || ds.Setlists == nil {
		return model.Dataset{}, fmt.Errorf("%s: %w", path, model.ErrMalformedDataset)
	}
	return ds, nil
}

// WriteDataset writes the dataset and its metadata atomically (temp file +
// rename) under the cache lock, so concurrent invocations cannot corrupt
// either file.
func WriteDataset(ds model.Dataset, addedShows, addedSetlists int, updateDuration time.Duration, formatDurationFn func(time.Duration) string) error {
	return WithCacheLock(func() error {
		cacheDir, err := Dir()
		if err != nil {
			return err
		}

		datasetPath := filepath.Join(cacheDir, "dataset.json")
		datasetData, err := json.Marshal(ds)
		if err != nil {
			return fmt.Errorf("failed to marshal dataset: %w", err)
		}
		if err := writeAtomic(datasetPath, datasetData, 0644); err != nil {
			return err
		}

		meta := model.CacheMeta{
			LastUpdated:    time.Now(),
			CacheVersion:   cacheVersion,
			TotalShows:     len(ds.Shows),
			TotalSetlists:  len(ds.Setlists),
			AddedShows:     addedShows,
			AddedSetlists:  addedSetlists,
			UpdateDuration: formatDurationFn(updateDuration),
		}
		metaData, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		return writeAtomic(filepath.Join(cacheDir, "dataset_meta.json"), metaData, 0644)
	})
}

// Clear removes the cached dataset and metadata files.
func Clear() error {
	cacheDir, err := Dir()
	if err != nil {
		return err
	}
	for _, name := range []string{"dataset.json", "dataset_meta.json"} {
		if err := os.Remove(filepath.Join(cacheDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", name, err)
		}
	}
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s into place: %w", path, err)
	}
	return nil
}
