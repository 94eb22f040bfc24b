package model

import "errors"

// Sentinel errors shared across packages.
var (
	// ErrMalformedDataset is returned when a dataset payload is missing its
	// top-level shows or setlists arrays.
	ErrMalformedDataset = errors.New("malformed dataset: missing shows/setlists arrays")

	// ErrNoCache is returned when no cached dataset exists yet.
	ErrNoCache = errors.New("no dataset cache found - run 'rarity sync' first")
)
