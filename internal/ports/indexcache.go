package ports

import "noteferry/internal/domain"

// CachedNote is one scan-cache row. Record is nil for notes that do not
// carry the importer preamble.
type CachedNote struct {
	Path   string
	Mtime  int64
	Record *domain.LocalRecord
}

// IndexCache persists scan results between runs so a refresh only re-parses
// notes whose mtime changed. The cache is advisory: a miss or failure
// degrades to a fresh parse, never to a wrong answer.
type IndexCache interface {
	Open(vaultPath string) error
	Close() error

	// Get returns the cached entry when path and mtime both match.
	Get(path string, mtime int64) (*CachedNote, bool)
	Put(note CachedNote) error

	// Prune drops entries for paths no longer present in the vault.
	Prune(live map[string]bool) error
}
