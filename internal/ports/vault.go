package ports

import "context"

// NoteRef is a handle to a note inside the vault. Paths are always
// vault-relative.
type NoteRef struct {
	Path string
}

// NoteInfo is a note discovered by enumeration.
type NoteInfo struct {
	Path  string
	Mtime int64 // unix seconds, used by the scan cache
}

// Vault is the local file-based store imports are written into. Create
// fails when the path already exists; callers treat that as a signal to
// pick a unique name, not as a hard failure.
type Vault interface {
	Create(ctx context.Context, path, content string) (NoteRef, error)
	Modify(ctx context.Context, ref NoteRef, content string) error
	Read(ctx context.Context, ref NoteRef) (string, error)

	// GetByPath returns nil with no error when the path does not exist.
	GetByPath(ctx context.Context, path string) (*NoteRef, error)

	// ListNotes enumerates every markdown note in the vault.
	ListNotes(ctx context.Context) ([]NoteInfo, error)
}
