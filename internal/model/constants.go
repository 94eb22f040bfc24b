package model

import "time"

// Rarity scoring constants.
const (
	// WeightFrequency scales the inverse-frequency term of an entry's raw rarity.
	WeightFrequency = 1.0
	// CoverPenalty is the fraction removed from a cover's base rarity.
	CoverPenalty = 0.5
	// FrequencyCap floors the frequency metric so no song exceeds
	// 1/FrequencyCap base rarity regardless of how infrequent it is.
	FrequencyCap = 3.0
	// FTPBonusOriginal is added when the entry is the song's debut performance.
	FTPBonusOriginal = 0.1
	// FTPBonusCover is the debut bonus for covers.
	FTPBonusCover = 0.05
	// MinNormalizedRarity and MaxNormalizedRarity bound per-entry normalized values.
	MinNormalizedRarity = 0.05
	MaxNormalizedRarity = 1.0
	// LengthAttenuation mildly boosts longer setlists so a high-rarity
	// standout is not diluted purely by setlist length.
	LengthAttenuation = 0.1
	// MinShowScore floors show scores above exact zero.
	MinShowScore = 0.001
	// MinFrequencyMetric guards the inverse-frequency division.
	MinFrequencyMetric = 0.0001
)

// DefaultEligibilityCutoff is the earliest date counted toward a song's
// eligible first appearance. Performance history before this point predates
// reliable frequency tracking and would over-penalize old songs.
var DefaultEligibilityCutoff = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// Remote source defaults.
const (
	DefaultAPIBase = "https://elgoose.net/api/v3"

	// SetlistWorkerLimit bounds concurrent setlist fetches during sync.
	SetlistWorkerLimit = 5

	// SyncFailureSummaryLimit caps how many per-show failures an aggregate
	// sync error message lists.
	SyncFailureSummaryLimit = 5
)
