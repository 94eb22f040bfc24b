package identity

import (
	"testing"

	"github.com/jmagar/rarity-cli/internal/model"
)

func TestSongKeyPriority(t *testing.T) {
	tests := []struct {
		name  string
		entry model.SetlistEntry
		want  string
	}{
		{
			name:  "numeric id wins over everything",
			entry: model.SetlistEntry{SongID: 42, Slug: "arcadia", SongName: "Arcadia"},
			want:  "42",
		},
		{
			name:  "slug wins over name",
			entry: model.SetlistEntry{Slug: "arcadia", SongName: "Arcadia"},
			want:  "arcadia",
		},
		{
			name:  "name is lowercased and decoded",
			entry: model.SetlistEntry{SongName: "Rock &amp; Roll"},
			want:  "rock & roll",
		},
		{
			name:  "fallback uses show id and ordinal",
			entry: model.SetlistEntry{ShowID: 7},
			want:  "unknown-7-3",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SongKey(tc.entry, 3); got != tc.want {
				t.Errorf("SongKey() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEntryKeyPriority(t *testing.T) {
	tests := []struct {
		name    string
		entry   model.SetlistEntry
		ordinal int
		want    string
	}{
		{
			name:  "explicit unique id wins",
			entry: model.SetlistEntry{UniqueID: "abc123", ShowID: 1, Position: 2, Slug: "arcadia"},
			want:  "abc123",
		},
		{
			name:  "position preferred in composite",
			entry: model.SetlistEntry{ShowID: 1, Position: 2, SetNumber: "1", Slug: "arcadia"},
			want:  "1:2:arcadia",
		},
		{
			name:  "set number when no position",
			entry: model.SetlistEntry{ShowID: 1, SetNumber: "2", Slug: "arcadia"},
			want:  "1:s2:arcadia",
		},
		{
			name:    "ordinal fallback when no positional field",
			entry:   model.SetlistEntry{ShowID: 1, Slug: "arcadia"},
			ordinal: 5,
			want:    "1:i5:arcadia",
		},
		{
			name:  "lowercased name when no slug",
			entry: model.SetlistEntry{ShowID: 1, Position: 3, SongName: "Take On Me"},
			want:  "1:3:take on me",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := EntryKey(tc.entry, tc.ordinal); got != tc.want {
				t.Errorf("EntryKey() = %q, want %q", got, tc.want)
			}
		})
	}
}

// EntryKey must be stable across repeated passes over the same ordered input.
func TestEntryKeyDeterministic(t *testing.T) {
	entries := []model.SetlistEntry{
		{ShowID: 1, Slug: "a"},
		{ShowID: 1, Slug: "b"},
		{ShowID: 2, SongName: "C"},
	}
	first := make([]string, len(entries))
	for i, e := range entries {
		first[i] = EntryKey(e, i)
	}
	for i, e := range entries {
		if got := EntryKey(e, i); got != first[i] {
			t.Errorf("EntryKey run 2 [%d] = %q, want %q", i, got, first[i])
		}
	}
}
