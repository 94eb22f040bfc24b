package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmagar/rarity-cli/internal/model"
)

func withTempCacheDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvCacheDir, dir)
	t.Setenv(EnvDatasetPath, "")
	return dir
}

func noopFormat(d time.Duration) string { return d.String() }

func TestWriteAndReadDataset(t *testing.T) {
	withTempCacheDir(t)

	ds := model.Dataset{
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Shows:     []model.Show{{ID: 1, Date: "2023-01-01", Venue: "The Cap"}},
		Setlists:  []model.SetlistEntry{{ShowID: 1, SongName: "Arcadia", Position: 1}},
	}
	if err := WriteDataset(ds, 1, 1, time.Second, noopFormat); err != nil {
		t.Fatalf("WriteDataset() error = %v", err)
	}

	got, err := ReadDataset()
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}
	if len(got.Shows) != 1 || got.Shows[0].Venue != "The Cap" {
		t.Errorf("Shows = %+v", got.Shows)
	}
	if len(got.Setlists) != 1 || got.Setlists[0].SongName != "Arcadia" {
		t.Errorf("Setlists = %+v", got.Setlists)
	}
	if !got.FetchedAt.Equal(ds.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", got.FetchedAt, ds.FetchedAt)
	}

	meta, err := ReadMeta()
	if err != nil {
		t.Fatalf("ReadMeta() error = %v", err)
	}
	if meta == nil {
		t.Fatal("ReadMeta() = nil after write")
	}
	if meta.TotalShows != 1 || meta.TotalSetlists != 1 || meta.AddedShows != 1 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestReadDatasetMissing(t *testing.T) {
	withTempCacheDir(t)
	_, err := ReadDataset()
	if !errors.Is(err, model.ErrNoCache) {
		t.Errorf("ReadDataset() error = %v, want ErrNoCache", err)
	}
}

func TestReadMetaMissingIsNotError(t *testing.T) {
	withTempCacheDir(t)
	meta, err := ReadMeta()
	if err != nil {
		t.Fatalf("ReadMeta() error = %v", err)
	}
	if meta != nil {
		t.Errorf("ReadMeta() = %+v, want nil for missing file", meta)
	}
}

func TestReadDatasetMalformed(t *testing.T) {
	dir := withTempCacheDir(t)
	// Valid JSON, but the top-level arrays are missing.
	if err := os.WriteFile(filepath.Join(dir, "dataset.json"), []byte(`{"fetchedAt":"2024-05-01T00:00:00Z"}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ReadDataset()
	if !errors.Is(err, model.ErrMalformedDataset) {
		t.Errorf("ReadDataset() error = %v, want ErrMalformedDataset", err)
	}
}

func TestDatasetPathOverride(t *testing.T) {
	withTempCacheDir(t)
	alt := filepath.Join(t.TempDir(), "other.json")
	t.Setenv(EnvDatasetPath, alt)
	if err := os.WriteFile(alt, []byte(`{"shows":[],"setlists":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	ds, err := ReadDataset()
	if err != nil {
		t.Fatalf("ReadDataset() with override error = %v", err)
	}
	if len(ds.Shows) != 0 || len(ds.Setlists) != 0 {
		t.Errorf("dataset = %+v, want empty", ds)
	}
}

func TestClear(t *testing.T) {
	withTempCacheDir(t)
	ds := model.Dataset{Shows: []model.Show{}, Setlists: []model.SetlistEntry{}}
	if err := WriteDataset(ds, 0, 0, 0, noopFormat); err != nil {
		t.Fatalf("WriteDataset() error = %v", err)
	}
	if err := Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := ReadDataset(); !errors.Is(err, model.ErrNoCache) {
		t.Errorf("ReadDataset() after Clear error = %v, want ErrNoCache", err)
	}
	// Clearing an already-clear cache is fine.
	if err := Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}
