// Package stats builds per-song usage statistics over a full dataset:
// distinct-show play counts, first-appearance dates, and a global timeline
// of dated, non-empty shows used for "shows since" queries.
package stats

import (
	"sort"
	"time"

	"github.com/jmagar/rarity-cli/internal/identity"
	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/normalize"
)

// SongUsage holds the derived statistics for one song key.
type SongUsage struct {
	ShowIDs map[int]struct{}

	FirstAppearance time.Time // earliest date across all history
	HasFirst        bool
	FirstEligible   time.Time // earliest date at/after the eligibility cutoff
	HasEligible     bool

	Plays           int     // max(distinct show count, 1)
	Percentage      float64 // plays / max(showsSince(reference date), plays)
	FrequencyMetric float64 // max(percentage * 100, MinFrequencyMetric)
}

// ReferenceDate returns the date debut detection and showsSince queries are
// anchored to: the first eligible date when one exists, else the first
// appearance. ok is false when the song has no parseable date at all.
func (s *SongUsage) ReferenceDate() (time.Time, bool) {
	if s.HasEligible {
		return s.FirstEligible, true
	}
	return s.FirstAppearance, s.HasFirst
}

// Usage is the full statistics output of one pass over a dataset.
type Usage struct {
	Songs            map[string]*SongUsage
	EntryCountByShow map[int]int

	// timeline holds the unix timestamps of every show with at least one
	// linked setlist entry and a parseable date, sorted ascending.
	timeline []int64
}

// TimelineLen returns the number of dated, non-empty shows in the corpus.
func (u *Usage) TimelineLen() int { return len(u.timeline) }

// ShowsSince returns how many timeline shows fall at or after t. When the
// caller has no date (ok false), the full timeline length is returned.
func (u *Usage) ShowsSince(t time.Time, ok bool) int {
	if !ok {
		return len(u.timeline)
	}
	ts := t.Unix()
	idx := sort.Search(len(u.timeline), func(i int) bool {
		return u.timeline[i] >= ts
	})
	return len(u.timeline) - idx
}

// Build scans the dataset and computes all per-song statistics. It is a
// two-pass design: entry counts and the global timeline must be complete
// before any song's showsSince denominator can be computed.
func Build(ds model.Dataset, cutoff time.Time) *Usage {
	u := &Usage{
		Songs:            make(map[string]*SongUsage),
		EntryCountByShow: make(map[int]int, len(ds.Shows)),
	}

	for _, e := range ds.Setlists {
		u.EntryCountByShow[e.ShowID]++
	}

	showDates := make(map[int]string, len(ds.Shows))
	for _, s := range ds.Shows {
		showDates[s.ID] = s.Date
		if u.EntryCountByShow[s.ID] == 0 {
			continue
		}
		if t, ok := normalize.ParseCalendarDate(s.Date); ok {
			u.timeline = append(u.timeline, t.Unix())
		}
	}
	sort.Slice(u.timeline, func(i, j int) bool { return u.timeline[i] < u.timeline[j] })

	for i, e := range ds.Setlists {
		key := identity.SongKey(e, i)
		su, ok := u.Songs[key]
		if !ok {
			su = &SongUsage{ShowIDs: make(map[int]struct{})}
			u.Songs[key] = su
		}
		su.ShowIDs[e.ShowID] = struct{}{}

		date, ok := EntryDate(e, showDates)
		if !ok {
			continue
		}
		if !su.HasFirst || date.Before(su.FirstAppearance) {
			su.FirstAppearance = date
			su.HasFirst = true
		}
		if !date.Before(cutoff) && (!su.HasEligible || date.Before(su.FirstEligible)) {
			su.FirstEligible = date
			su.HasEligible = true
		}
	}

	for _, su := range u.Songs {
		su.Plays = len(su.ShowIDs)
		if su.Plays < 1 {
			su.Plays = 1
		}
		ref, ok := su.ReferenceDate()
		denom := u.ShowsSince(ref, ok)
		if su.Plays > denom {
			denom = su.Plays
		}
		if denom == 0 {
			su.Percentage = 1.0
		} else {
			su.Percentage = float64(su.Plays) / float64(denom)
		}
		su.FrequencyMetric = su.Percentage * 100
		if su.FrequencyMetric < model.MinFrequencyMetric {
			su.FrequencyMetric = model.MinFrequencyMetric
		}
	}

	return u
}

// EntryDate resolves an entry's performance date: its own date field,
// falling back to its parent show's date.
func EntryDate(e model.SetlistEntry, showDates map[int]string) (time.Time, bool) {
	if t, ok := normalize.ParseCalendarDate(e.ShowDate); ok {
		return t, true
	}
	return normalize.ParseCalendarDate(showDates[e.ShowID])
}
