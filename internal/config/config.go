// Package config reads and writes the persisted configuration. A config
// file is optional; every field has a usable default and environment
// variables win over the file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/normalize"
)

// LoadedConfigPath tracks which config file was loaded so WriteConfig can
// save to the same location.
var LoadedConfigPath string

// EnvAPIBase overrides the remote API base URL.
const EnvAPIBase = "RARITY_API_BASE"

const defaultScoreLimit = 25

// Default returns the built-in configuration.
func Default() *model.Config {
	return &model.Config{
		APIBase:    model.DefaultAPIBase,
		ScoreLimit: defaultScoreLimit,
	}
}

// Load reads the config file from known locations, applies defaults for
// unset fields, then applies environment overrides (after loading an
// optional .env file). A missing config file is not an error.
func Load() (*model.Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	cfg, err := readFile()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &model.Config{}
	}

	if cfg.APIBase == "" {
		cfg.APIBase = model.DefaultAPIBase
	}
	if cfg.ScoreLimit <= 0 {
		cfg.ScoreLimit = defaultScoreLimit
	}

	if base := os.Getenv(EnvAPIBase); base != "" {
		cfg.APIBase = base
	}

	if cfg.EligibilityCutoff != "" {
		if _, ok := normalize.ParseCalendarDate(cfg.EligibilityCutoff); !ok {
			return nil, fmt.Errorf("invalid eligibilityCutoff %q in config (expected YYYY-MM-DD)", cfg.EligibilityCutoff)
		}
	}

	return cfg, nil
}

// Cutoff resolves the eligibility cutoff date from the config, falling back
// to the built-in default.
func Cutoff(cfg *model.Config) time.Time {
	if cfg != nil && cfg.EligibilityCutoff != "" {
		if t, ok := normalize.ParseCalendarDate(cfg.EligibilityCutoff); ok {
			return t
		}
	}
	return model.DefaultEligibilityCutoff
}

func readFile() (*model.Config, error) {
	paths := []string{"config.json"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".rarity", "config.json"),
			filepath.Join(homeDir, ".config", "rarity", "config.json"),
		)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg model.Config
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config at %s: %w", path, err)
		}
		LoadedConfigPath = path
		return &cfg, nil
	}
	return nil, nil
}

// WriteConfig writes the config to the same file that was loaded, or to
// ./config.json when none was.
func WriteConfig(cfg *model.Config) error {
	configData, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	targetPath := LoadedConfigPath
	if targetPath == "" {
		targetPath = "config.json"
	}

	dir := filepath.Dir(targetPath)
	if dir != "." {
		if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
			return fmt.Errorf("failed to create config directory %s: %w", dir, mkErr)
		}
	}

	if err := os.WriteFile(targetPath, configData, 0600); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", targetPath, err)
	}
	return nil
}
