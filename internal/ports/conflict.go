package ports

import (
	"context"

	"noteferry/internal/domain"
)

// Conflict is everything a resolver needs to present one decision.
type Conflict struct {
	Document domain.RemoteDocument
	Meta     domain.DocumentMeta
	Status   domain.ImportStatus

	// Existing is the conflicting note, when one exists.
	Existing *NoteRef
}

// ConflictResolver collects exactly one Resolution per conflict, typically
// from a human. Implementations must always complete the handshake: a
// dismissed dialog resolves to skip with a system-supplied reason rather
// than leaving the caller suspended. Resolve may block arbitrarily long;
// the orchestrator holds the document's concurrency slot for the duration.
type ConflictResolver interface {
	Resolve(ctx context.Context, c Conflict) (domain.Resolution, error)
}
