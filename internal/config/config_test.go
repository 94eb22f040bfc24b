package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/testutil"
)

func resetLoadedConfigPath(t *testing.T) {
	t.Helper()
	orig := LoadedConfigPath
	LoadedConfigPath = ""
	t.Cleanup(func() { LoadedConfigPath = orig })
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)
	resetLoadedConfigPath(t)
	t.Setenv(EnvAPIBase, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != model.DefaultAPIBase {
		t.Errorf("APIBase = %q, want default", cfg.APIBase)
	}
	if cfg.ScoreLimit != 25 {
		t.Errorf("ScoreLimit = %d, want 25", cfg.ScoreLimit)
	}
}

func TestLoadFromCurrentDirectory(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)
	resetLoadedConfigPath(t)
	t.Setenv(EnvAPIBase, "")

	body := `{"apiBase": "https://kglw.net/api/v3", "scoreLimit": 10, "eligibilityCutoff": "2018-06-01"}`
	if err := os.WriteFile("config.json", []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != "https://kglw.net/api/v3" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.ScoreLimit != 10 {
		t.Errorf("ScoreLimit = %d, want 10", cfg.ScoreLimit)
	}
	if got := Cutoff(cfg); !got.Equal(time.Date(2018, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Cutoff() = %v, want 2018-06-01", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)
	resetLoadedConfigPath(t)

	if err := os.WriteFile("config.json", []byte(`{"apiBase": "https://file.example/api"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvAPIBase, "https://env.example/api")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != "https://env.example/api" {
		t.Errorf("APIBase = %q, want env override", cfg.APIBase)
	}
}

func TestLoadRejectsBadCutoff(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)
	resetLoadedConfigPath(t)
	t.Setenv(EnvAPIBase, "")

	if err := os.WriteFile("config.json", []byte(`{"eligibilityCutoff": "June 2018"}`), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "eligibilityCutoff") {
		t.Errorf("Load() error = %v, want eligibilityCutoff validation error", err)
	}
}

func TestCutoffDefault(t *testing.T) {
	if got := Cutoff(&model.Config{}); !got.Equal(model.DefaultEligibilityCutoff) {
		t.Errorf("Cutoff(empty) = %v, want default", got)
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	testutil.WithTempHome(t)
	testutil.ChdirTemp(t)
	resetLoadedConfigPath(t)
	t.Setenv(EnvAPIBase, "")

	want := &model.Config{APIBase: "https://example.org/api", ScoreLimit: 7}
	if err := WriteConfig(want); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBase != want.APIBase || cfg.ScoreLimit != want.ScoreLimit {
		t.Errorf("round trip = %+v, want %+v", cfg, want)
	}
}
