// Package model holds the shared data types used across internal packages.
package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Show is a single dated live performance event. Shows are immutable once
// cached: a refreshed copy from the remote source never replaces a cached
// record with the same ID.
type Show struct {
	ID       int    `json:"show_id"`
	Date     string `json:"showdate"`
	Venue    string `json:"venuename"`
	Location string `json:"location"`
	Year     int    `json:"show_year,omitempty"`
}

// SetlistEntry is one song performed within a show. Entries are append-only;
// they are never mutated after capture.
type SetlistEntry struct {
	UniqueID       string   `json:"uniqueid,omitempty"`
	ShowID         int      `json:"show_id"`
	ShowDate       string   `json:"showdate,omitempty"`
	SongID         int      `json:"song_id,omitempty"`
	Slug           string   `json:"slug,omitempty"`
	SongName       string   `json:"songname"`
	IsOriginal     FlexBool `json:"isoriginal,omitempty"`
	OriginalArtist string   `json:"original_artist,omitempty"`
	TrackTime      string   `json:"tracktime,omitempty"`
	SetType        string   `json:"settype,omitempty"`
	SetNumber      string   `json:"setnumber,omitempty"`
	Position       int      `json:"position,omitempty"`
	Footnote       string   `json:"footnote,omitempty"`
	Transition     string   `json:"transition,omitempty"`
	ShowNotes      string   `json:"shownotes,omitempty"`
}

// Dataset is the full local corpus: every cached show plus every cached
// setlist entry. It is treated as an immutable value — operations that
// "update" a dataset return a new one rather than mutating the input.
type Dataset struct {
	FetchedAt time.Time      `json:"fetchedAt"`
	Shows     []Show         `json:"shows"`
	Setlists  []SetlistEntry `json:"setlists"`
}

// FlexBool is a tri-state boolean for loosely-typed API fields that may
// arrive as a JSON bool, number, or string ("1"/"true"/"yes"...).
// Set reports whether the field was present and recognizable at all.
type FlexBool struct {
	Set   bool
	Value bool
}

// UnmarshalJSON accepts bool, number, and string encodings. Unrecognized
// values leave the FlexBool unset rather than failing the whole record.
func (f *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch data[0] {
	case 't':
		f.Set, f.Value = true, true
	case 'f':
		f.Set, f.Value = true, false
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "1", "true", "yes":
			f.Set, f.Value = true, true
		case "0", "false", "no":
			f.Set, f.Value = true, false
		}
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		f.Set, f.Value = true, n != 0
	}
	return nil
}

// MarshalJSON round-trips the tri-state: unset fields serialize as null.
func (f FlexBool) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatBool(f.Value)), nil
}

// RarityScore is the derived per-show score.
type RarityScore struct {
	ShowID          int     `json:"showID"`
	Date            string  `json:"date"`
	Venue           string  `json:"venue"`
	Location        string  `json:"location"`
	Year            int     `json:"year"`
	EntryCount      int     `json:"entryCount"`
	RawScore        float64 `json:"rawScore"`
	NormalizedScore float64 `json:"normalizedScore"`
}

// SongRarityDetail is the derived per-setlist-entry rarity record,
// keyed by the entry's dedup key in scoring results.
type SongRarityDetail struct {
	SongKey     string  `json:"songKey"`
	SongName    string  `json:"songName"`
	Normalized  float64 `json:"normalized"`
	Raw         float64 `json:"raw"`
	Plays       int     `json:"plays"`
	Percentage  float64 `json:"percentage"`
	IsCover     bool    `json:"isCover"`
	FirstPlayed string  `json:"firstPlayed,omitempty"`
	IsDebut     bool    `json:"isDebut"`
}

// SongAggregate is the derived per-song summary, keyed by song key.
type SongAggregate struct {
	Name          string  `json:"name"`
	SongID        int     `json:"songID,omitempty"`
	Slug          string  `json:"slug,omitempty"`
	Plays         int     `json:"plays"`
	Percentage    float64 `json:"percentage"`
	FirstPlayed   string  `json:"firstPlayed,omitempty"`
	CoverCount    int     `json:"coverCount"`
	OriginalCount int     `json:"originalCount"`
}

// Sync progress phases.
const (
	PhaseShows    = "shows"    // fetching the remote show list
	PhaseSetlists = "setlists" // fetching setlists for new shows
	PhaseComplete = "complete" // sync finished
)

// SyncProgress is an advisory progress event. Completed/Total are only
// meaningful during the setlists phase.
type SyncProgress struct {
	Phase     string `json:"phase"`
	Completed int    `json:"completed,omitempty"`
	Total     int    `json:"total,omitempty"`
	Message   string `json:"message"`
}

// ProgressFunc receives sync progress events. It is purely advisory and
// never required for correctness; a nil ProgressFunc is always valid.
type ProgressFunc func(SyncProgress)

// SyncResult is the outcome of a successful sync invocation.
type SyncResult struct {
	Dataset           Dataset `json:"dataset"`
	AddedShowCount    int     `json:"addedShowCount"`
	AddedSetlistCount int     `json:"addedSetlistCount"`
}

// CacheMeta stores metadata about the cached dataset.
type CacheMeta struct {
	LastUpdated    time.Time `json:"lastUpdated"`
	CacheVersion   string    `json:"cacheVersion"`
	TotalShows     int       `json:"totalShows"`
	TotalSetlists  int       `json:"totalSetlists"`
	AddedShows     int       `json:"addedShows"`
	AddedSetlists  int       `json:"addedSetlists"`
	UpdateDuration string    `json:"updateDuration"`
}

// Config is the persisted configuration.
type Config struct {
	APIBase           string `json:"apiBase"`
	CacheDir          string `json:"cacheDir,omitempty"`
	EligibilityCutoff string `json:"eligibilityCutoff,omitempty"`
	ScoreLimit        int    `json:"scoreLimit,omitempty"`
}

// Sync command options.
type SyncCmd struct {
	JSON bool `arg:"--json" help:"Print machine-readable JSON output."`
}

// Score command options.
type ScoreCmd struct {
	Limit   int  `arg:"-n,--limit" default:"0" help:"Limit table output to the top N shows (0 = config default)."`
	Skipped bool `arg:"--skipped" help:"Also list shows skipped for having no setlist data."`
	JSON    bool `arg:"--json" help:"Print machine-readable JSON output."`
}

// Songs command options.
type SongsCmd struct {
	Limit int  `arg:"-n,--limit" default:"0" help:"Limit table output to the top N songs (0 = config default)."`
	JSON  bool `arg:"--json" help:"Print machine-readable JSON output."`
}

// CacheStatusCmd shows cache metadata.
type CacheStatusCmd struct {
	JSON bool `arg:"--json" help:"Print machine-readable JSON output."`
}

// CacheClearCmd removes the cached dataset.
type CacheClearCmd struct{}

// CacheCmd groups cache subcommands.
type CacheCmd struct {
	Status *CacheStatusCmd `arg:"subcommand:status" help:"Show dataset cache status."`
	Clear  *CacheClearCmd  `arg:"subcommand:clear" help:"Delete the cached dataset."`
}

// Args is the top-level CLI argument structure parsed by go-arg.
type Args struct {
	Sync  *SyncCmd  `arg:"subcommand:sync" help:"Incrementally sync the local dataset with the remote source."`
	Score *ScoreCmd `arg:"subcommand:score" help:"Score every cached show's rarity."`
	Songs *SongsCmd `arg:"subcommand:songs" help:"Summarize per-song play statistics."`
	Cache *CacheCmd `arg:"subcommand:cache" help:"Inspect or clear the dataset cache."`
}
