// Package identity derives stable keys for songs and setlist entries.
// Song keys aggregate statistics across performances; entry keys recognize
// that two records describe the same real-world performance instance.
package identity

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmagar/rarity-cli/internal/model"
	"github.com/jmagar/rarity-cli/internal/normalize"
)

// SongKey resolves a setlist entry to its song key. Resolution priority is
// strict and total: numeric song id, then slug, then lowercased display
// name, then a synthetic fallback derived from the show id and the entry's
// ordinal in the source array. The fallback is deterministic so re-running
// over the same ordered input always yields identical keys.
func SongKey(e model.SetlistEntry, ordinal int) string {
	if e.SongID > 0 {
		return strconv.Itoa(e.SongID)
	}
	if slug := strings.TrimSpace(e.Slug); slug != "" {
		return slug
	}
	if name := strings.TrimSpace(e.SongName); name != "" {
		return strings.ToLower(normalize.DecodeHTMLEntities(name))
	}
	return fmt.Sprintf("unknown-%d-%d", e.ShowID, ordinal)
}

// EntryKey resolves a setlist entry to its dedup key. An explicit unique id
// wins; otherwise the key is a composite of the show id, the entry's
// position (or set number, or the fallback ordinal), and its slug (or
// lowercased name).
func EntryKey(e model.SetlistEntry, ordinal int) string {
	if id := strings.TrimSpace(e.UniqueID); id != "" {
		return id
	}
	pos := positionPart(e, ordinal)
	name := strings.TrimSpace(e.Slug)
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(e.SongName))
	}
	return fmt.Sprintf("%d:%s:%s", e.ShowID, pos, name)
}

func positionPart(e model.SetlistEntry, ordinal int) string {
	if e.Position > 0 {
		return strconv.Itoa(e.Position)
	}
	if set := strings.TrimSpace(e.SetNumber); set != "" {
		return "s" + set
	}
	return "i" + strconv.Itoa(ordinal)
}
