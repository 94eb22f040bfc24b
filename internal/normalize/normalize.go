// Package normalize turns raw record fields into canonical values:
// HTML-entity-encoded strings, loosely-typed cover flags, and date strings.
package normalize

import (
	"html"
	"strings"
	"time"

	"github.com/jmagar/rarity-cli/internal/model"
)

// quoteReplacer maps straight quotes produced by entity decoding to the
// typographic curly forms the source data uses everywhere else.
var quoteReplacer = strings.NewReplacer(`"`, "”", "'", "’")

// DecodeHTMLEntities decodes numeric and named HTML character references.
// Unrecognized entities are left untouched, and text containing no "&" is
// returned unchanged, which also makes the function idempotent on
// already-decoded input.
func DecodeHTMLEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	return quoteReplacer.Replace(html.UnescapeString(text))
}

// IsCover reports whether a setlist entry is a cover. An explicit
// "is original" indicator wins (negated); otherwise the entry is a cover
// if and only if it carries a non-empty original-artist field.
func IsCover(e model.SetlistEntry) bool {
	if e.IsOriginal.Set {
		return !e.IsOriginal.Value
	}
	return strings.TrimSpace(e.OriginalArtist) != ""
}

// ParseCalendarDate parses a date-only string as UTC midnight. The second
// return value is false for empty or unparsable input; the function never
// panics on malformed data.
func ParseCalendarDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if len(s) > 10 {
		// Tolerate datetime strings; only the calendar day matters.
		s = s[:10]
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SameUTCDay reports whether two instants fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
