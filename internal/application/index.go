package application

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// Index classifies remote documents against local vault state. It scans
// the vault once on Initialize and again on every Refresh; between scans
// it goes stale on external vault changes.
//
// Classification itself is not parallelized. The scan dominates cost, and
// per-document lookups are map reads.
type Index struct {
	vault ports.Vault
	cache ports.IndexCache // optional
	log   *slog.Logger

	mu sync.RWMutex
	// byID maps remote document id to its vault note.
	byID map[string]*domain.LocalRecord
	// byName maps note filename (base name) to importer-owned notes.
	byName map[string]*domain.LocalRecord
	// foreign holds filenames of notes without a usable importer preamble.
	foreign map[string]bool
	ready   bool
}

// NewIndex creates an index over the given vault. cache may be nil.
func NewIndex(vault ports.Vault, cache ports.IndexCache, log *slog.Logger) *Index {
	if log == nil {
		log = slog.Default()
	}
	return &Index{vault: vault, cache: cache, log: log}
}

// Ready reports whether the index has completed a scan.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// Initialize scans the vault and builds the lookup tables. Enumeration
// failure is fatal; a single unreadable note is logged and excluded.
func (ix *Index) Initialize(ctx context.Context) error {
	notes, err := ix.vault.ListNotes(ctx)
	if err != nil {
		return &ScanError{Err: err}
	}

	byID := make(map[string]*domain.LocalRecord)
	byName := make(map[string]*domain.LocalRecord)
	foreign := make(map[string]bool)
	live := make(map[string]bool, len(notes))

	for _, note := range notes {
		live[note.Path] = true

		rec, owned, err := ix.scanNote(ctx, note)
		if err != nil {
			ix.log.Warn("skipping unreadable note",
				"path", note.Path, "error", err)
			foreign[path.Base(note.Path)] = true
			continue
		}
		if !owned {
			foreign[path.Base(note.Path)] = true
			continue
		}
		byID[rec.RemoteID] = rec
		byName[path.Base(rec.Path)] = rec
	}

	if ix.cache != nil {
		if err := ix.cache.Prune(live); err != nil {
			ix.log.Warn("scan cache prune failed", "error", err)
		}
	}

	ix.mu.Lock()
	ix.byID = byID
	ix.byName = byName
	ix.foreign = foreign
	ix.ready = true
	ix.mu.Unlock()

	ix.log.Debug("vault scan complete",
		"notes", len(notes), "imported", len(byID), "foreign", len(foreign))
	return nil
}

// Refresh rebuilds the index. Callers must refresh after external vault
// changes; the index does not watch the filesystem.
func (ix *Index) Refresh(ctx context.Context) error {
	return ix.Initialize(ctx)
}

// scanNote resolves one enumerated note to a LocalRecord, consulting the
// scan cache first. owned is false for notes without the importer marker.
func (ix *Index) scanNote(ctx context.Context, note ports.NoteInfo) (rec *domain.LocalRecord, owned bool, err error) {
	if ix.cache != nil {
		if cached, hit := ix.cache.Get(note.Path, note.Mtime); hit {
			return cached.Record, cached.Record != nil, nil
		}
	}

	content, err := ix.vault.Read(ctx, ports.NoteRef{Path: note.Path})
	if err != nil {
		return nil, false, err
	}

	pre, body, err := domain.DecodeNote(content)
	if err != nil {
		return nil, false, &ParseError{Path: note.Path, Err: err}
	}

	if pre.FromImporter() {
		_, modified := domain.LooksModified(body, pre)
		rec = &domain.LocalRecord{
			Path:          note.Path,
			RemoteID:      pre.ID,
			RemoteUpdated: pre.UpdatedTime(),
			Title:         pre.Title,
			Modified:      modified,
		}
	}

	if ix.cache != nil {
		cached := ports.CachedNote{Path: note.Path, Mtime: note.Mtime, Record: rec}
		if err := ix.cache.Put(cached); err != nil {
			ix.log.Warn("scan cache write failed", "path", note.Path, "error", err)
		}
	}

	return rec, rec != nil, nil
}

// CheckDocument classifies one remote document. Calling it twice on an
// unchanged index yields the same status.
func (ix *Index) CheckDocument(ctx context.Context, doc domain.RemoteDocument) (domain.ImportStatus, error) {
	ix.mu.RLock()
	rec := ix.byID[doc.ID]
	ix.mu.RUnlock()

	if rec != nil {
		return ix.checkKnown(ctx, doc, rec)
	}
	return ix.checkUnknown(ctx, doc)
}

// checkKnown handles documents whose id is already in the vault.
func (ix *Index) checkKnown(ctx context.Context, doc domain.RemoteDocument, rec *domain.LocalRecord) (domain.ImportStatus, error) {
	content, err := ix.vault.Read(ctx, ports.NoteRef{Path: rec.Path})
	if err != nil {
		return domain.ImportStatus{}, &ParseError{Path: rec.Path, Err: err}
	}
	pre, body, err := domain.DecodeNote(content)
	if err != nil {
		// The note decoded during the scan but not now; treat as
		// hand-edited rather than guessing.
		return domain.ImportStatus{
			Kind:               domain.StatusConflict,
			Reason:             "existing note is no longer readable",
			Existing:           rec,
			RequiresUserChoice: true,
		}, nil
	}

	if name, modified := domain.LooksModified(body, pre); modified {
		return domain.ImportStatus{
			Kind:               domain.StatusConflict,
			Reason:             fmt.Sprintf("local note was edited by hand (%s)", name),
			Existing:           rec,
			RequiresUserChoice: true,
		}, nil
	}

	if doc.UpdatedAt.After(rec.RemoteUpdated) {
		return domain.ImportStatus{
			Kind:     domain.StatusUpdated,
			Reason:   "remote document is newer than the local note",
			Existing: rec,
		}, nil
	}

	return domain.ImportStatus{
		Kind:     domain.StatusExists,
		Reason:   "already imported and unchanged",
		Existing: rec,
	}, nil
}

// checkUnknown handles documents with no indexed id. The converter could
// produce one of two names for it; either colliding with an existing note
// needs a human decision.
func (ix *Index) checkUnknown(ctx context.Context, doc domain.RemoteDocument) (domain.ImportStatus, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, name := range domain.CandidateFilenames(doc) {
		if other := ix.byName[name]; other != nil {
			return domain.ImportStatus{
				Kind:               domain.StatusConflict,
				Reason:             fmt.Sprintf("filename %q belongs to document %s", name, other.RemoteID),
				Existing:           other,
				RequiresUserChoice: true,
			}, nil
		}
		if ix.foreign[name] {
			return domain.ImportStatus{
				Kind:               domain.StatusConflict,
				Reason:             fmt.Sprintf("filename %q is taken by a note this importer does not own", name),
				RequiresUserChoice: true,
			}, nil
		}
		// Catch notes created since the last scan.
		if ref, err := ix.vault.GetByPath(ctx, name); err == nil && ref != nil {
			return domain.ImportStatus{
				Kind:               domain.StatusConflict,
				Reason:             fmt.Sprintf("filename %q appeared in the vault after the last scan", name),
				RequiresUserChoice: true,
			}, nil
		}
	}

	return domain.ImportStatus{
		Kind:   domain.StatusNew,
		Reason: "not present in the vault",
	}, nil
}

// CheckDocuments classifies a batch into an id-keyed map.
func (ix *Index) CheckDocuments(ctx context.Context, docs []domain.RemoteDocument) (map[string]domain.ImportStatus, error) {
	out := make(map[string]domain.ImportStatus, len(docs))
	for _, doc := range docs {
		status, err := ix.CheckDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		out[doc.ID] = status
	}
	return out, nil
}

// Lookup returns the indexed record for a remote id, if any.
func (ix *Index) Lookup(id string) *domain.LocalRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.byID[id]
}
