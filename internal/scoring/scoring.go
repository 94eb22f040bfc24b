// Package scoring computes per-show rarity scores over a dataset: a raw
// rarity contribution per setlist entry, global normalization of entries,
// show-level aggregation with length attenuation, and global normalization
// of show scores.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jmagar/rarity-cli/internal/identity"
	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/normalize"
	"github.com/jmagar/rarity-cli/internal/stats"
)

// Result is the full scoring output. Every show in the dataset appears in
// exactly one of Scores or Skipped.
type Result struct {
	Scores         []model.RarityScore              `json:"scores"`
	Skipped        []model.RarityScore              `json:"skipped"`
	SongDetails    map[string]model.SongRarityDetail `json:"songDetails"`
	SongAggregates map[string]model.SongAggregate    `json:"songAggregates"`
}

// entryRarity is the per-entry working state between the raw and
// normalization passes.
type entryRarity struct {
	entryKey string
	songKey  string
	showID   int
	raw      float64
	isCover  bool
	isDebut  bool
}

// Score runs the full rarity pipeline over a dataset. It is pure and
// deterministic: the same dataset always produces identical results. The
// only failure mode is a structurally missing top-level array.
func Score(ds model.Dataset, cutoff time.Time) (*Result, error) {
	if ds.Shows == nil || ds.Setlists == nil {
		return nil, fmt.Errorf("score dataset: %w", model.ErrMalformedDataset)
	}

	usage := stats.Build(ds, cutoff)

	res := &Result{
		SongDetails:    make(map[string]model.SongRarityDetail, len(ds.Setlists)),
		SongAggregates: make(map[string]model.SongAggregate),
	}

	// Degenerate corpus: nothing to normalize against, every show gets the
	// floor score directly and nothing is skipped.
	if len(ds.Setlists) == 0 {
		for _, s := range ds.Shows {
			res.Scores = append(res.Scores, showScore(s, 0, model.MinShowScore, 0))
		}
		sortScores(res.Scores)
		return res, nil
	}

	showDates := make(map[int]string, len(ds.Shows))
	for _, s := range ds.Shows {
		showDates[s.ID] = s.Date
	}

	entries := make([]entryRarity, len(ds.Setlists))
	for i, e := range ds.Setlists {
		songKey := identity.SongKey(e, i)
		su := usage.Songs[songKey]
		isCover := normalize.IsCover(e)

		inv := 1.0 / su.FrequencyMetric
		if ceiling := 1.0 / model.FrequencyCap; inv > ceiling {
			inv = ceiling
		}
		coverFactor := 1.0
		if isCover {
			coverFactor = 1.0 - model.CoverPenalty
			if coverFactor < 0 {
				coverFactor = 0
			}
		}
		raw := model.WeightFrequency * inv * coverFactor

		isDebut := false
		if date, ok := stats.EntryDate(e, showDates); ok {
			if ref, refOK := su.ReferenceDate(); refOK && normalize.SameUTCDay(date, ref) {
				isDebut = true
				if isCover {
					raw += model.FTPBonusCover
				} else {
					raw += model.FTPBonusOriginal
				}
			}
		}

		entries[i] = entryRarity{
			entryKey: identity.EntryKey(e, i),
			songKey:  songKey,
			showID:   e.ShowID,
			raw:      raw,
			isCover:  isCover,
			isDebut:  isDebut,
		}
	}

	normalized := normalizeEntries(entries)

	// Per-entry details and show sums in one pass.
	sumByShow := make(map[int]float64)
	for i, er := range entries {
		e := ds.Setlists[i]
		su := usage.Songs[er.songKey]
		detail := model.SongRarityDetail{
			SongKey:    er.songKey,
			SongName:   normalize.DecodeHTMLEntities(e.SongName),
			Normalized: normalized[i],
			Raw:        er.raw,
			Plays:      su.Plays,
			Percentage: su.Percentage,
			IsCover:    er.isCover,
			IsDebut:    er.isDebut,
		}
		if first, ok := su.ReferenceDate(); ok {
			detail.FirstPlayed = first.Format("2006-01-02")
		}
		res.SongDetails[er.entryKey] = detail
		sumByShow[er.showID] += normalized[i]

		agg := res.SongAggregates[er.songKey]
		if agg.Name == "" {
			agg.Name = normalize.DecodeHTMLEntities(e.SongName)
		}
		if agg.SongID == 0 {
			agg.SongID = e.SongID
		}
		if agg.Slug == "" {
			agg.Slug = e.Slug
		}
		agg.Plays = su.Plays
		agg.Percentage = su.Percentage
		if su.HasFirst {
			agg.FirstPlayed = su.FirstAppearance.Format("2006-01-02")
		}
		if er.isCover {
			agg.CoverCount++
		} else {
			agg.OriginalCount++
		}
		res.SongAggregates[er.songKey] = agg
	}

	// Show aggregation with length attenuation, zero-entry shows skipped.
	var rawShowScores []float64
	var scored []model.Show
	for _, s := range ds.Shows {
		count := usage.EntryCountByShow[s.ID]
		if count == 0 {
			res.Skipped = append(res.Skipped, showScore(s, 0, model.MinShowScore, 0))
			continue
		}
		average := sumByShow[s.ID] / float64(count)
		lengthMultiplier := 1.0 + math.Log1p(float64(count))*model.LengthAttenuation
		raw := average * lengthMultiplier
		if raw < model.MinShowScore {
			raw = model.MinShowScore
		}
		rawShowScores = append(rawShowScores, raw)
		scored = append(scored, s)
	}

	normShow := normalizeShowScores(rawShowScores)
	for i, s := range scored {
		res.Scores = append(res.Scores, showScore(s, usage.EntryCountByShow[s.ID], rawShowScores[i], normShow[i]))
	}
	sortScores(res.Scores)

	return res, nil
}

// normalizeEntries linearly maps raw entry rarities into
// [MinNormalizedRarity, MaxNormalizedRarity]. A flat corpus (all raw values
// equal) maps everything to the maximum.
func normalizeEntries(entries []entryRarity) []float64 {
	out := make([]float64, len(entries))
	if len(entries) == 0 {
		return out
	}
	minRaw, maxRaw := entries[0].raw, entries[0].raw
	for _, er := range entries[1:] {
		if er.raw < minRaw {
			minRaw = er.raw
		}
		if er.raw > maxRaw {
			maxRaw = er.raw
		}
	}
	if maxRaw == minRaw {
		for i := range out {
			out[i] = model.MaxNormalizedRarity
		}
		return out
	}
	span := maxRaw - minRaw
	for i, er := range entries {
		out[i] = model.MinNormalizedRarity +
			(er.raw-minRaw)/span*(model.MaxNormalizedRarity-model.MinNormalizedRarity)
	}
	return out
}

// normalizeShowScores linearly maps raw show scores into [0, 1], or 1 for
// every show when all scores are identical.
func normalizeShowScores(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	minRaw, maxRaw := raw[0], raw[0]
	for _, v := range raw[1:] {
		if v < minRaw {
			minRaw = v
		}
		if v > maxRaw {
			maxRaw = v
		}
	}
	if maxRaw == minRaw {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	span := maxRaw - minRaw
	for i, v := range raw {
		out[i] = (v - minRaw) / span
	}
	return out
}

func showScore(s model.Show, entryCount int, raw, normalized float64) model.RarityScore {
	year := s.Year
	if year == 0 {
		if t, ok := normalize.ParseCalendarDate(s.Date); ok {
			year = t.Year()
		}
	}
	return model.RarityScore{
		ShowID:          s.ID,
		Date:            s.Date,
		Venue:           normalize.DecodeHTMLEntities(s.Venue),
		Location:        normalize.DecodeHTMLEntities(s.Location),
		Year:            year,
		EntryCount:      entryCount,
		RawScore:        raw,
		NormalizedScore: normalized,
	}
}

// sortScores orders highest rarity first, show id as a stable tiebreak.
func sortScores(scores []model.RarityScore) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].NormalizedScore != scores[j].NormalizedScore {
			return scores[i].NormalizedScore > scores[j].NormalizedScore
		}
		return scores[i].ShowID < scores[j].ShowID
	})
}
