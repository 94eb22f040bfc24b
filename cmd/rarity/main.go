// Command rarity maintains a local corpus of live-show setlists and scores
// each show by how rare its song selections are.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/dustin/go-humanize"

	"github.com/jmagar/rarity-cli/internal/api"
	"github.com/jmagar/rarity-cli/internal/cache"
	"github.com/jmagar/rarity-cli/internal/config"
	"github.com/jmagar/rarity-cli/internal/helpers"
	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/scoring"
	"github.com/jmagar/rarity-cli/internal/syncer"
	"github.com/jmagar/rarity-cli/internal/ui"
)

func main() {
	var args model.Args
	p := arg.MustParse(&args)

	cfg, err := config.Load()
	if err != nil {
		ui.PrintError(fmt.Sprintf("Failed to load config: %v", err))
		os.Exit(1)
	}

	if cacheDir, dirErr := cache.Dir(); dirErr == nil {
		if logErr := api.InitAPILogger(filepath.Join(cacheDir, "api.log")); logErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: API logging disabled: %v\n", logErr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case args.Sync != nil:
		err = runSync(ctx, cfg, args.Sync)
	case args.Score != nil:
		err = runScore(cfg, args.Score)
	case args.Songs != nil:
		err = runSongs(cfg, args.Songs)
	case args.Cache != nil:
		err = runCache(args.Cache)
	default:
		p.WriteHelp(os.Stdout)
		return
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Interrupted.")
			os.Exit(130)
		}
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func runSync(ctx context.Context, cfg *model.Config, cmd *model.SyncCmd) error {
	cached, err := cache.ReadDataset()
	if err != nil && !errors.Is(err, model.ErrNoCache) {
		return err
	}
	if errors.Is(err, model.ErrNoCache) {
		cached = model.Dataset{Shows: []model.Show{}, Setlists: []model.SetlistEntry{}}
		if !cmd.JSON {
			ui.PrintInfo("No local dataset yet, performing a full initial sync.")
		}
	}

	client := api.NewClient(cfg.APIBase)
	deps := &syncer.Deps{
		FetchShows:   client.GetShows,
		FetchSetlist: client.GetSetlist,
	}
	if !cmd.JSON {
		deps.Progress = printProgress
	}

	start := time.Now()
	result, err := syncer.Sync(ctx, cached, deps)
	if err != nil {
		return err
	}

	if err := cache.WriteDataset(result.Dataset, result.AddedShowCount, result.AddedSetlistCount, time.Since(start), helpers.FormatDuration); err != nil {
		return fmt.Errorf("sync succeeded but caching failed: %w", err)
	}

	if cmd.JSON {
		return printJSON(map[string]any{
			"addedShows":    result.AddedShowCount,
			"addedSetlists": result.AddedSetlistCount,
			"totalShows":    len(result.Dataset.Shows),
			"totalSetlists": len(result.Dataset.Setlists),
			"duration":      helpers.FormatDuration(time.Since(start)),
		})
	}

	if result.AddedShowCount == 0 {
		ui.PrintSuccess("Already up to date.")
	} else {
		ui.PrintSuccess(fmt.Sprintf("Added %s show%s and %s setlist entr%s in %s.",
			humanize.Comma(int64(result.AddedShowCount)), helpers.Plural(result.AddedShowCount),
			humanize.Comma(int64(result.AddedSetlistCount)), pluralY(result.AddedSetlistCount),
			helpers.FormatDuration(time.Since(start))))
	}
	ui.PrintKeyValue("Total shows", humanize.Comma(int64(len(result.Dataset.Shows))), ui.ColorGreen)
	ui.PrintKeyValue("Total setlists", humanize.Comma(int64(len(result.Dataset.Setlists))), ui.ColorGreen)
	return nil
}

var progressBarShown bool

// printProgress renders sync progress events for interactive runs.
func printProgress(p model.SyncProgress) {
	switch p.Phase {
	case model.PhaseShows:
		ui.PrintSync(p.Message)
	case model.PhaseSetlists:
		if p.Total > 0 {
			ui.RenderProgress("Setlists", p.Completed, p.Total)
			progressBarShown = true
		}
	case model.PhaseComplete:
		if progressBarShown {
			fmt.Println()
			progressBarShown = false
		}
	}
}

func runScore(cfg *model.Config, cmd *model.ScoreCmd) error {
	ds, err := cache.ReadDataset()
	if err != nil {
		return err
	}

	result, err := scoring.Score(ds, config.Cutoff(cfg))
	if err != nil {
		return err
	}

	if cmd.JSON {
		return printJSON(result)
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = cfg.ScoreLimit
	}

	ui.PrintHeader("Show Rarity Ranking")

	table := ui.NewTable([]ui.TableColumn{
		{Header: "Rank", Width: 5, Align: "right"},
		{Header: "Date", Width: 11, Align: "left"},
		{Header: "Venue", Width: 28, Align: "left"},
		{Header: "Location", Width: 22, Align: "left"},
		{Header: "Songs", Width: 6, Align: "right"},
		{Header: "Rarity", Width: 7, Align: "right"},
	})
	for i, s := range result.Scores {
		if i >= limit {
			break
		}
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			s.Date,
			s.Venue,
			s.Location,
			fmt.Sprintf("%d", s.EntryCount),
			fmt.Sprintf("%.3f", s.NormalizedScore),
		)
	}
	table.Print()

	shown := limit
	if shown > len(result.Scores) {
		shown = len(result.Scores)
	}
	ui.PrintInfo(fmt.Sprintf("Showing %d of %d scored shows (%d skipped without setlist data).",
		shown, len(result.Scores), len(result.Skipped)))

	if cmd.Skipped && len(result.Skipped) > 0 {
		ui.PrintSection("Skipped Shows")
		for _, s := range result.Skipped {
			fmt.Printf("  %s%s%s %s  %s\n", ui.ColorYellow, s.Date, ui.ColorReset, s.Venue, s.Location)
		}
	}
	return nil
}

func runSongs(cfg *model.Config, cmd *model.SongsCmd) error {
	ds, err := cache.ReadDataset()
	if err != nil {
		return err
	}

	result, err := scoring.Score(ds, config.Cutoff(cfg))
	if err != nil {
		return err
	}

	aggregates := make([]model.SongAggregate, 0, len(result.SongAggregates))
	for _, a := range result.SongAggregates {
		aggregates = append(aggregates, a)
	}
	// Rarest first: fewest plays, then lowest percentage, then name.
	sort.Slice(aggregates, func(i, j int) bool {
		if aggregates[i].Plays != aggregates[j].Plays {
			return aggregates[i].Plays < aggregates[j].Plays
		}
		if aggregates[i].Percentage != aggregates[j].Percentage {
			return aggregates[i].Percentage < aggregates[j].Percentage
		}
		return aggregates[i].Name < aggregates[j].Name
	})

	if cmd.JSON {
		return printJSON(aggregates)
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = cfg.ScoreLimit
	}

	ui.PrintHeader("Song Play Statistics")

	table := ui.NewTable([]ui.TableColumn{
		{Header: "Song", Width: 32, Align: "left"},
		{Header: "Plays", Width: 6, Align: "right"},
		{Header: "Freq %", Width: 7, Align: "right"},
		{Header: "First Played", Width: 12, Align: "left"},
		{Header: "Cover", Width: 5, Align: "center"},
	})
	for i, a := range aggregates {
		if i >= limit {
			break
		}
		cover := ""
		if a.CoverCount > 0 {
			cover = ui.SymbolCheck
		}
		table.AddRow(
			a.Name,
			fmt.Sprintf("%d", a.Plays),
			fmt.Sprintf("%.1f", a.Percentage*100),
			a.FirstPlayed,
			cover,
		)
	}
	table.Print()

	ui.PrintMusic(fmt.Sprintf("%s distinct songs across %s setlist entries.",
		humanize.Comma(int64(len(aggregates))), humanize.Comma(int64(len(ds.Setlists)))))
	return nil
}

func runCache(cmd *model.CacheCmd) error {
	switch {
	case cmd.Status != nil:
		return runCacheStatus(cmd.Status)
	case cmd.Clear != nil:
		if err := cache.Clear(); err != nil {
			return err
		}
		ui.PrintSuccess("Dataset cache cleared.")
		return nil
	default:
		return errors.New("cache requires a subcommand: status or clear")
	}
}

func runCacheStatus(cmd *model.CacheStatusCmd) error {
	meta, err := cache.ReadMeta()
	if err != nil {
		return err
	}
	if cmd.JSON {
		if meta == nil {
			return printJSON(map[string]any{"cached": false})
		}
		return printJSON(meta)
	}
	if meta == nil {
		ui.PrintInfo("No dataset cached yet. Run 'rarity sync' to build one.")
		return nil
	}

	ui.PrintHeader("Dataset Cache")
	ui.PrintKeyValue("Last updated", fmt.Sprintf("%s (%s)",
		meta.LastUpdated.Format("2006-01-02 15:04:05"), humanize.Time(meta.LastUpdated)), ui.ColorGreen)
	ui.PrintKeyValue("Cache version", meta.CacheVersion, ui.ColorReset)
	ui.PrintKeyValue("Total shows", humanize.Comma(int64(meta.TotalShows)), ui.ColorGreen)
	ui.PrintKeyValue("Total setlists", humanize.Comma(int64(meta.TotalSetlists)), ui.ColorGreen)
	ui.PrintKeyValue("Last sync added", fmt.Sprintf("%d shows, %d entries", meta.AddedShows, meta.AddedSetlists), ui.ColorReset)
	ui.PrintKeyValue("Last sync took", meta.UpdateDuration, ui.ColorReset)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
