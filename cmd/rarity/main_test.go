package main

import (
	"strings"
	"testing"

	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/testutil"
	"github.com/jmagar/rarity-cli/internal/ui"
)

func TestPrintProgressSetlistPhase(t *testing.T) {
	progressBarShown = false
	out := testutil.CaptureStdout(t, func() {
		printProgress(model.SyncProgress{Phase: model.PhaseSetlists, Completed: 2, Total: 4})
		printProgress(model.SyncProgress{Phase: model.PhaseComplete, Message: "done"})
	})
	plain := ui.StripAnsiCodes(out)
	if !strings.Contains(plain, "(2/4)") {
		t.Errorf("progress output = %q, want setlist counter", plain)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("complete phase should terminate the progress line with a newline")
	}
	if progressBarShown {
		t.Error("progressBarShown should reset after the complete phase")
	}
}

func TestPrintProgressShowsPhase(t *testing.T) {
	out := testutil.CaptureStdout(t, func() {
		printProgress(model.SyncProgress{Phase: model.PhaseShows, Message: "fetching remote show list"})
	})
	if !strings.Contains(ui.StripAnsiCodes(out), "fetching remote show list") {
		t.Errorf("shows phase output = %q", out)
	}
}

func TestPluralY(t *testing.T) {
	if pluralY(1) != "y" {
		t.Errorf("pluralY(1) = %q, want y", pluralY(1))
	}
	if pluralY(0) != "ies" || pluralY(3) != "ies" {
		t.Error("pluralY(0) and pluralY(3) should be \"ies\"")
	}
}
