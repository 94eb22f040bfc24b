package stats

import (
	"testing"
	"time"

	"github.com/jmagar/rarity-cli/internal/model"
)

var testCutoff = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildTimelineSkipsEmptyAndUndatedShows(t *testing.T) {
	ds := model.Dataset{
		Shows: []model.Show{
			{ID: 1, Date: "2023-01-01"},
			{ID: 2, Date: "2022-12-31"},
			{ID: 3, Date: "2021-07-04"}, // no entries
			{ID: 4, Date: ""},           // entries but no date
		},
		Setlists: []model.SetlistEntry{
			{ShowID: 1, Slug: "arcadia"},
			{ShowID: 2, Slug: "arcadia"},
			{ShowID: 4, Slug: "empress"},
		},
	}
	u := Build(ds, testCutoff)
	if got := u.TimelineLen(); got != 2 {
		t.Fatalf("TimelineLen() = %d, want 2", got)
	}
	if got := u.ShowsSince(day("2022-12-31"), true); got != 2 {
		t.Errorf("ShowsSince(2022-12-31) = %d, want 2", got)
	}
	if got := u.ShowsSince(day("2023-01-01"), true); got != 1 {
		t.Errorf("ShowsSince(2023-01-01) = %d, want 1", got)
	}
	if got := u.ShowsSince(day("2024-01-01"), true); got != 0 {
		t.Errorf("ShowsSince(2024-01-01) = %d, want 0", got)
	}
	// Absent date counts the whole timeline.
	if got := u.ShowsSince(time.Time{}, false); got != 2 {
		t.Errorf("ShowsSince(no date) = %d, want 2", got)
	}
}

func TestBuildFirstAppearanceAndEligibility(t *testing.T) {
	ds := model.Dataset{
		Shows: []model.Show{
			{ID: 1, Date: "2012-06-01"},
			{ID: 2, Date: "2016-03-15"},
			{ID: 3, Date: "2017-08-09"},
		},
		Setlists: []model.SetlistEntry{
			{ShowID: 2, Slug: "old-song"},
			{ShowID: 1, Slug: "old-song"}, // pre-cutoff appearance, out of order
			{ShowID: 3, Slug: "old-song"},
			{ShowID: 3, Slug: "new-song"},
		},
	}
	u := Build(ds, testCutoff)

	old := u.Songs["old-song"]
	if old == nil {
		t.Fatal("old-song missing from usage map")
	}
	if !old.HasFirst || !old.FirstAppearance.Equal(day("2012-06-01")) {
		t.Errorf("old-song FirstAppearance = %v, want 2012-06-01", old.FirstAppearance)
	}
	if !old.HasEligible || !old.FirstEligible.Equal(day("2016-03-15")) {
		t.Errorf("old-song FirstEligible = %v, want 2016-03-15", old.FirstEligible)
	}
	if old.Plays != 3 {
		t.Errorf("old-song Plays = %d, want 3", old.Plays)
	}
	// 3 plays across the 3 shows since the eligible date.
	if old.Percentage != 1.0 {
		t.Errorf("old-song Percentage = %v, want 1.0", old.Percentage)
	}

	fresh := u.Songs["new-song"]
	if fresh == nil {
		t.Fatal("new-song missing from usage map")
	}
	if fresh.Plays != 1 {
		t.Errorf("new-song Plays = %d, want 1", fresh.Plays)
	}
	// 1 play, 1 dated show at/after its first eligible date.
	if fresh.Percentage != 1.0 {
		t.Errorf("new-song Percentage = %v, want 1.0", fresh.Percentage)
	}
}

func TestBuildEntryDateFallsBackToShowDate(t *testing.T) {
	ds := model.Dataset{
		Shows: []model.Show{{ID: 1, Date: "2020-05-05"}},
		Setlists: []model.SetlistEntry{
			{ShowID: 1, Slug: "a"},                          // no own date
			{ShowID: 1, Slug: "b", ShowDate: "2020-05-06"},  // own date wins
			{ShowID: 1, Slug: "c", ShowDate: "not-parsable"}, // falls back
		},
	}
	u := Build(ds, testCutoff)
	if got := u.Songs["a"].FirstAppearance; !got.Equal(day("2020-05-05")) {
		t.Errorf("song a FirstAppearance = %v, want show date", got)
	}
	if got := u.Songs["b"].FirstAppearance; !got.Equal(day("2020-05-06")) {
		t.Errorf("song b FirstAppearance = %v, want entry date", got)
	}
	if got := u.Songs["c"].FirstAppearance; !got.Equal(day("2020-05-05")) {
		t.Errorf("song c FirstAppearance = %v, want show date fallback", got)
	}
}

func TestBuildPercentageDenominatorFloorsAtPlays(t *testing.T) {
	// Two plays of the same song on a single dated show day: showsSince
	// returns 1 but the denominator must never drop below the play count.
	ds := model.Dataset{
		Shows: []model.Show{
			{ID: 1, Date: "2020-01-01"},
			{ID: 2, Date: "2019-01-01"},
		},
		Setlists: []model.SetlistEntry{
			{ShowID: 1, Slug: "x"},
			{ShowID: 2, Slug: "x"},
		},
	}
	u := Build(ds, testCutoff)
	x := u.Songs["x"]
	if x.Plays != 2 {
		t.Fatalf("Plays = %d, want 2", x.Plays)
	}
	if x.Percentage != 1.0 {
		t.Errorf("Percentage = %v, want 1.0 (denominator floored at plays)", x.Percentage)
	}
}

func TestBuildFrequencyMetricFloor(t *testing.T) {
	ds := model.Dataset{
		Shows:    []model.Show{{ID: 1, Date: "2020-01-01"}},
		Setlists: []model.SetlistEntry{{ShowID: 1, Slug: "only"}},
	}
	u := Build(ds, testCutoff)
	if got := u.Songs["only"].FrequencyMetric; got < model.MinFrequencyMetric {
		t.Errorf("FrequencyMetric = %v, below floor %v", got, model.MinFrequencyMetric)
	}
}
