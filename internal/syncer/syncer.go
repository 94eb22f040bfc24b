// Package syncer keeps the local dataset synchronized with the remote
// source incrementally: it diffs the remote show list against the cache,
// fetches setlists only for newly-seen shows with a bounded worker pool,
// deduplicates incoming entries, and merges everything into a new Dataset
// value — or fails atomically, adding nothing.
package syncer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jmagar/rarity-cli/internal/identity"
	"github.com/jmagar/rarity-cli/internal/model"
)

// DefaultFetchTimeout bounds each individual setlist fetch so a stalled
// network call cannot hold a worker slot forever.
const DefaultFetchTimeout = 60 * time.Second

// Deps holds the collaborators a sync invocation needs. The remote source
// is abstracted to two fetch functions so tests (and alternate transports)
// can drop in fakes.
type Deps struct {
	// FetchShows retrieves the full remote show list.
	FetchShows func(ctx context.Context) ([]model.Show, error)

	// FetchSetlist retrieves the setlist entries for one show.
	FetchSetlist func(ctx context.Context, showID int) ([]model.SetlistEntry, error)

	// Progress receives advisory progress events. May be nil.
	Progress model.ProgressFunc

	// FetchTimeout bounds each FetchSetlist call. Zero means DefaultFetchTimeout.
	FetchTimeout time.Duration

	// Now stamps FetchedAt on the merged dataset. Nil means time.Now.
	Now func() time.Time
}

func (d *Deps) emit(p model.SyncProgress) {
	if d.Progress != nil {
		d.Progress(p)
	}
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

type fetchFailure struct {
	showID int
	err    error
}

// Sync performs one incremental sync pass against the cached dataset and
// returns a new Dataset; the input is never mutated. Either every new
// show's setlist is incorporated or none are, so retrying an identical
// call after a failure is always safe.
func Sync(ctx context.Context, cached model.Dataset, deps *Deps) (*model.SyncResult, error) {
	deps.emit(model.SyncProgress{Phase: model.PhaseShows, Message: "fetching remote show list"})

	remote, err := deps.FetchShows(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch show list: %w", err)
	}

	// Cached shows are authoritative: remote edits to an already-seen show
	// are ignored, and cached shows absent from the remote response are
	// preserved. New shows append in remote order.
	cachedIDs := make(map[int]struct{}, len(cached.Shows))
	mergedShows := make([]model.Show, len(cached.Shows), len(cached.Shows)+len(remote))
	copy(mergedShows, cached.Shows)
	for _, s := range cached.Shows {
		cachedIDs[s.ID] = struct{}{}
	}

	var candidates []model.Show
	for _, s := range remote {
		if _, ok := cachedIDs[s.ID]; ok {
			continue
		}
		cachedIDs[s.ID] = struct{}{}
		candidates = append(candidates, s)
		mergedShows = append(mergedShows, s)
	}

	deps.emit(model.SyncProgress{
		Phase: model.PhaseShows,
		Message: fmt.Sprintf("remote has %d shows, local cache has %d, %d new",
			len(remote), len(cached.Shows), len(candidates)),
	})

	if len(candidates) == 0 {
		deps.emit(model.SyncProgress{Phase: model.PhaseComplete, Message: "already up to date"})
		return &model.SyncResult{
			Dataset: model.Dataset{
				FetchedAt: cached.FetchedAt,
				Shows:     mergedShows,
				Setlists:  cloneEntries(cached.Setlists),
			},
		}, nil
	}

	fetched, failures, err := fetchSetlists(ctx, candidates, deps)
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return nil, aggregateError(failures)
	}

	// Single-threaded merge pass: dedup keys are claimed in mergedShows
	// iteration order, so the result is identical no matter which order the
	// workers finished in.
	seen := make(map[string]struct{}, len(cached.Setlists))
	for i, e := range cached.Setlists {
		seen[identity.EntryKey(e, i)] = struct{}{}
	}

	newByShow := make(map[int][]model.SetlistEntry, len(candidates))
	added := 0
	for i, show := range candidates {
		for j, e := range fetched[i] {
			if e.ShowID == 0 {
				e.ShowID = show.ID
			}
			key := identity.EntryKey(e, j)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			newByShow[e.ShowID] = append(newByShow[e.ShowID], e)
			added++
		}
	}

	mergedSetlists := make([]model.SetlistEntry, len(cached.Setlists), len(cached.Setlists)+added)
	copy(mergedSetlists, cached.Setlists)
	for _, show := range mergedShows {
		mergedSetlists = append(mergedSetlists, newByShow[show.ID]...)
	}

	deps.emit(model.SyncProgress{
		Phase:   model.PhaseComplete,
		Message: fmt.Sprintf("added %d shows and %d setlist entries", len(candidates), added),
	})

	return &model.SyncResult{
		Dataset: model.Dataset{
			FetchedAt: deps.now().UTC(),
			Shows:     mergedShows,
			Setlists:  mergedSetlists,
		},
		AddedShowCount:    len(candidates),
		AddedSetlistCount: added,
	}, nil
}

// fetchSetlists runs the bounded worker pool over the candidate shows.
// Individual fetch errors are collected, not fail-fast, so the aggregate
// error can report every failed show; only context cancellation aborts the
// pool early.
func fetchSetlists(ctx context.Context, candidates []model.Show, deps *Deps) ([][]model.SetlistEntry, []fetchFailure, error) {
	total := len(candidates)
	deps.emit(model.SyncProgress{
		Phase:   model.PhaseSetlists,
		Total:   total,
		Message: fmt.Sprintf("fetching setlists for %d new shows", total),
	})

	timeout := deps.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	results := make([][]model.SetlistEntry, total)

	var (
		mu        sync.Mutex
		completed int
		failures  []fetchFailure
	)

	workers := model.SetlistWorkerLimit
	if total < workers {
		workers = total
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, show := range candidates {
		i, show := i, show
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			entries, err := deps.FetchSetlist(fetchCtx, show.ID)
			cancel()

			mu.Lock()
			defer mu.Unlock()
			completed++
			if err != nil {
				failures = append(failures, fetchFailure{showID: show.ID, err: err})
			} else {
				results[i] = entries
			}
			deps.emit(model.SyncProgress{
				Phase:     model.PhaseSetlists,
				Completed: completed,
				Total:     total,
				Message:   fmt.Sprintf("fetched setlist for show %d", show.ID),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, failures, nil
}

// aggregateError summarizes up to SyncFailureSummaryLimit per-show fetch
// failures in a single error.
func aggregateError(failures []fetchFailure) error {
	shown := failures
	if len(shown) > model.SyncFailureSummaryLimit {
		shown = shown[:model.SyncFailureSummaryLimit]
	}
	parts := make([]string, len(shown))
	for i, f := range shown {
		parts[i] = fmt.Sprintf("show %d: %v", f.showID, f.err)
	}
	msg := strings.Join(parts, "; ")
	if extra := len(failures) - len(shown); extra > 0 {
		msg = fmt.Sprintf("%s (and %d more)", msg, extra)
	}
	return fmt.Errorf("setlist fetch failed for %d of the new shows, nothing was merged: %s", len(failures), msg)
}

func cloneEntries(entries []model.SetlistEntry) []model.SetlistEntry {
	out := make([]model.SetlistEntry, len(entries))
	copy(out, entries)
	return out
}
