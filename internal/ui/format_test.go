package ui

import (
	"strings"
	"testing"

	"github.com/jmagar/rarity-cli/internal/testutil"
)

func TestStripAnsiCodes(t *testing.T) {
	in := ColorGreen + "hello" + ColorReset
	if got := StripAnsiCodes(in); got != "hello" {
		t.Errorf("StripAnsiCodes() = %q, want %q", got, "hello")
	}
}

func TestVisibleLength(t *testing.T) {
	in := ColorBold + "abc" + ColorReset
	if got := VisibleLength(in); got != 3 {
		t.Errorf("VisibleLength() = %d, want 3", got)
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"fits", "short", 10, "short"},
		{"truncated", "a very long string", 10, "a very ..."},
		{"tiny max", "abcdef", 2, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWithEllipsis(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight() = %q", got)
	}
	if got := PadRight("abcdef", 3); got != "abcdef" {
		t.Errorf("PadRight() should not truncate, got %q", got)
	}
}

func TestTablePrintIncludesCells(t *testing.T) {
	out := testutil.CaptureStdout(t, func() {
		table := NewTable([]TableColumn{
			{Header: "Date", Width: 12, Align: "left"},
			{Header: "Score", Width: 8, Align: "right"},
		})
		table.AddRow("2023-06-10", "0.874")
		table.Print()
	})
	plain := StripAnsiCodes(out)
	if !strings.Contains(plain, "2023-06-10") || !strings.Contains(plain, "0.874") {
		t.Errorf("table output missing cells:\n%s", plain)
	}
	if !strings.Contains(plain, "Date") || !strings.Contains(plain, "Score") {
		t.Errorf("table output missing headers:\n%s", plain)
	}
}

func TestRenderProgress(t *testing.T) {
	out := testutil.CaptureStdout(t, func() {
		RenderProgress("Setlists", 3, 4)
	})
	plain := StripAnsiCodes(out)
	if !strings.Contains(plain, "75%") || !strings.Contains(plain, "(3/4)") {
		t.Errorf("progress output = %q", plain)
	}
}
