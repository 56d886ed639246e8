package domain

import "time"

// LocalRecord is a vault note that carries this importer's preamble.
// Records are rebuilt whenever the duplicate index (re)scans the vault and
// go stale on external vault changes until the next refresh.
type LocalRecord struct {
	Path          string // vault-relative path
	RemoteID      string
	RemoteUpdated time.Time
	Title         string

	// Modified is the heuristic flag set when the note body shows
	// patterns the converter never emits.
	Modified bool
}
