package application

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// ExistsStrategy selects what to do with documents already in the vault
// when no human choice is needed.
type ExistsStrategy int

const (
	// ExistsSkip leaves existing notes untouched.
	ExistsSkip ExistsStrategy = iota
	// ExistsUpdate rewrites the existing note in place.
	ExistsUpdate
	// ExistsCreateNew writes a new note under a uniquified name.
	ExistsCreateNew
)

const defaultConcurrency = 3

// Options configure one run. Every option is per-run and explicit; nothing
// here is persisted.
type Options struct {
	// Concurrency bounds the number of documents in flight. Defaults to 3.
	Concurrency int

	// AdmissionDelay separates admissions (not completions) to smooth
	// load on the vault and the remote service.
	AdmissionDelay time.Duration

	// SkipEmpty drops documents with no meaningful content before they
	// are attempted, counting them as skipped.
	SkipEmpty bool

	// StopOnError cancels the whole run on the first failed document.
	StopOnError bool

	// AlwaysAsk routes EXISTS and UPDATED documents through the conflict
	// resolver as well, not only CONFLICT ones.
	AlwaysAsk bool

	// ExistsStrategy applies to EXISTS and UPDATED documents that do not
	// need a human choice.
	ExistsStrategy ExistsStrategy

	// Backup writes a timestamped copy of the prior content before any
	// in-place modification or overwrite.
	Backup bool
}

func (o Options) concurrency() int64 {
	if o.Concurrency <= 0 {
		return defaultConcurrency
	}
	return int64(o.Concurrency)
}

// Importer drives selected documents through the import state machine:
// pending → importing → completed | failed | skipped. One run at a time;
// per-document failures never abort the run.
type Importer struct {
	vault    ports.Vault
	index    *Index
	conv     ports.Converter
	resolver ports.ConflictResolver
	tracker  *Tracker
	failures *FailureRegistry
	log      *slog.Logger

	running   atomic.Bool
	cancelled atomic.Bool
}

// NewImporter wires the orchestrator. The tracker and registry are owned
// by the importer's caller so surfaces can observe them directly.
func NewImporter(vault ports.Vault, index *Index, conv ports.Converter, resolver ports.ConflictResolver, tracker *Tracker, failures *FailureRegistry, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{
		vault:    vault,
		index:    index,
		conv:     conv,
		resolver: resolver,
		tracker:  tracker,
		failures: failures,
		log:      log,
	}
}

// Cancel requests cooperative cancellation. Documents not yet admitted are
// skipped; admitted documents run to completion. Completed writes are
// never rolled back.
func (im *Importer) Cancel() {
	im.cancelled.Store(true)
}

// GetFailedDocuments returns the retained failure records.
func (im *Importer) GetFailedDocuments() []domain.FailureRecord {
	return im.failures.All()
}

// GetAllDocumentProgress returns per-document progress for the last run.
func (im *Importer) GetAllDocumentProgress() []domain.DocumentProgress {
	return im.tracker.AllDocuments()
}

// ImportDocuments runs the pipeline over the selected documents. selection
// is intersected with fetched by id; selections absent from the fetch are
// silently excluded from the total. Returns ErrImportInProgress without
// touching any state when a run is already active.
func (im *Importer) ImportDocuments(ctx context.Context, selection []domain.DocumentMeta, fetched []domain.RemoteDocument, opts Options) (domain.ImportRun, error) {
	if !im.running.CompareAndSwap(false, true) {
		return domain.ImportRun{}, ErrImportInProgress
	}
	defer im.running.Store(false)
	im.cancelled.Store(false)

	if err := im.index.Refresh(ctx); err != nil {
		return domain.ImportRun{}, err
	}

	docs, metas := intersect(selection, fetched)
	im.tracker.Begin(metas)

	sem := semaphore.NewWeighted(opts.concurrency())
	var wg sync.WaitGroup

	for i, doc := range docs {
		meta := metas[i]

		// Cancellation is checked before admission only; in-flight
		// documents are never aborted.
		if im.cancelled.Load() {
			im.tracker.Skip(doc.ID, "import cancelled")
			continue
		}

		if opts.SkipEmpty && doc.IsEmpty() {
			im.tracker.Skip(doc.ID, "empty document")
			continue
		}

		if opts.AdmissionDelay > 0 && i > 0 {
			time.Sleep(opts.AdmissionDelay)
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			im.tracker.Skip(doc.ID, "import cancelled")
			continue
		}

		if im.cancelled.Load() {
			sem.Release(1)
			im.tracker.Skip(doc.ID, "import cancelled")
			continue
		}

		wg.Add(1)
		go func(doc domain.RemoteDocument, meta domain.DocumentMeta) {
			defer wg.Done()
			defer sem.Release(1)
			im.importOne(ctx, doc, meta, opts)
		}(doc, meta)
	}

	wg.Wait()
	im.tracker.Finish(im.cancelled.Load())
	return im.tracker.Snapshot(), nil
}

// RetryFailedImports re-runs exactly the documents currently in the
// failure registry, using their stored context. Records are removed only
// when the retry succeeds.
func (im *Importer) RetryFailedImports(ctx context.Context, opts Options) (domain.ImportRun, error) {
	records := im.failures.All()
	if len(records) == 0 {
		return domain.ImportRun{}, ErrNoFailedImports
	}

	selection := make([]domain.DocumentMeta, 0, len(records))
	fetched := make([]domain.RemoteDocument, 0, len(records))
	for _, rec := range records {
		selection = append(selection, rec.Meta)
		fetched = append(fetched, rec.Document)
	}
	return im.ImportDocuments(ctx, selection, fetched, opts)
}

// intersect pairs selected metadata with fetched documents by id,
// preserving selection order.
func intersect(selection []domain.DocumentMeta, fetched []domain.RemoteDocument) ([]domain.RemoteDocument, []domain.DocumentMeta) {
	byID := make(map[string]domain.RemoteDocument, len(fetched))
	for _, doc := range fetched {
		byID[doc.ID] = doc
	}

	var docs []domain.RemoteDocument
	var metas []domain.DocumentMeta
	for _, meta := range selection {
		doc, ok := byID[meta.ID]
		if !ok {
			continue
		}
		docs = append(docs, doc)
		metas = append(metas, meta)
	}
	return docs, metas
}

// importOne drives a single document to a terminal state. Every error is
// absorbed here: the document fails, the run continues.
func (im *Importer) importOne(ctx context.Context, doc domain.RemoteDocument, meta domain.DocumentMeta, opts Options) {
	im.tracker.Start(doc.ID)

	err := im.attempt(ctx, doc, meta, opts)
	if err == nil {
		im.failures.Remove(doc.ID)
		return
	}

	im.log.Warn("import failed", "id", doc.ID, "title", doc.Title, "error", err)
	im.tracker.Fail(doc.ID, err.Error())
	im.failures.Add(doc, meta, err.Error())
	if opts.StopOnError {
		im.Cancel()
	}
}

// attempt is the per-document pipeline body. It converts once and reuses
// the result across every branch.
func (im *Importer) attempt(ctx context.Context, doc domain.RemoteDocument, meta domain.DocumentMeta, opts Options) error {
	im.tracker.Step(doc.ID, 20, "classifying")
	status, err := im.index.CheckDocument(ctx, doc)
	if err != nil {
		return err
	}

	im.tracker.Step(doc.ID, 40, "converting")
	note, err := im.conv.Convert(doc)
	if err != nil {
		return &ConversionError{ID: doc.ID, Err: err}
	}

	needsChoice := status.RequiresUserChoice ||
		(opts.AlwaysAsk && status.Kind != domain.StatusNew)

	if needsChoice {
		return im.resolveConflict(ctx, doc, meta, status, note, opts)
	}

	switch status.Kind {
	case domain.StatusNew:
		return im.writeNew(ctx, doc.ID, note)

	case domain.StatusExists, domain.StatusUpdated:
		switch {
		case status.Kind == domain.StatusExists && opts.ExistsStrategy == ExistsSkip:
			im.tracker.Skip(doc.ID, "already imported")
			return nil
		case opts.ExistsStrategy == ExistsCreateNew:
			return im.writeUnique(ctx, doc.ID, note)
		default:
			return im.updateExisting(ctx, doc.ID, status.Existing.Path, note, opts.Backup)
		}

	default:
		// The classifier marks every conflict as requiring a choice;
		// reaching here means it did not.
		return fmt.Errorf("unresolvable status %s for %s", status.Kind, doc.ID)
	}
}

// resolveConflict runs the human handshake and applies the outcome. The
// concurrency slot stays held for the whole wait; a conflicted document
// can starve a slot for as long as the operator deliberates.
func (im *Importer) resolveConflict(ctx context.Context, doc domain.RemoteDocument, meta domain.DocumentMeta, status domain.ImportStatus, note domain.NoteFile, opts Options) error {
	im.tracker.Step(doc.ID, 60, "waiting for decision")

	conflict := ports.Conflict{Document: doc, Meta: meta, Status: status}
	if status.Existing != nil {
		conflict.Existing = &ports.NoteRef{Path: status.Existing.Path}
	}

	res, err := im.resolver.Resolve(ctx, conflict)
	if err != nil {
		return &ConflictProtocolError{ID: doc.ID, Err: err}
	}
	res = res.Normalize()

	switch res.Kind {
	case domain.ResolveSkip:
		reason := res.Reason
		if reason == "" {
			reason = "skipped by user"
		}
		im.tracker.Skip(doc.ID, reason)
		return nil

	case domain.ResolveOverwrite:
		if conflict.Existing == nil {
			return im.writeNew(ctx, doc.ID, note)
		}
		return im.updateExisting(ctx, doc.ID, conflict.Existing.Path, note, res.CreateBackup || opts.Backup)

	case domain.ResolveMerge:
		if conflict.Existing == nil {
			return im.writeNew(ctx, doc.ID, note)
		}
		return im.mergeExisting(ctx, doc.ID, conflict.Existing.Path, note, res.Merge)

	case domain.ResolveRename:
		if res.NewFilename == "" {
			return &ConflictProtocolError{ID: doc.ID, Err: errors.New("rename resolution without a filename")}
		}
		note.Filename = res.NewFilename
		return im.writeNew(ctx, doc.ID, note)

	default:
		return &ConflictProtocolError{ID: doc.ID, Err: fmt.Errorf("unknown resolution %d", res.Kind)}
	}
}

// writeNew creates the note at its derived filename. Two concurrently
// admitted documents can race on the same name; a name-taken create gets
// one automatic unique-name retry before surfacing as a failure.
func (im *Importer) writeNew(ctx context.Context, id string, note domain.NoteFile) error {
	im.tracker.Step(id, 80, "writing")
	content, err := domain.EncodeNote(note.Preamble, note.Body)
	if err != nil {
		return &WriteError{Path: note.Filename, Err: err}
	}

	ref, err := im.vault.Create(ctx, note.Filename, content)
	if errors.Is(err, fs.ErrExist) {
		// Another writer took the name between classification and
		// create. Regenerate a suffixed name and retry exactly once.
		unique := domain.UniqueFilename(note.Filename, func(name string) bool {
			if name == note.Filename {
				return true
			}
			existing, lookErr := im.vault.GetByPath(ctx, name)
			return lookErr == nil && existing != nil
		})
		ref, err = im.vault.Create(ctx, unique, content)
	}
	if err != nil {
		return &WriteError{Path: note.Filename, Err: err}
	}

	im.tracker.Complete(id, ref.Path)
	return nil
}

// writeUnique writes under a fresh "-N" suffixed name, leaving the
// existing note alone.
func (im *Importer) writeUnique(ctx context.Context, id string, note domain.NoteFile) error {
	note.Filename = domain.UniqueFilename(note.Filename, func(name string) bool {
		existing, err := im.vault.GetByPath(ctx, name)
		return err == nil && existing != nil
	})
	return im.writeNew(ctx, id, note)
}

// updateExisting rewrites a note in place, optionally backing up first.
func (im *Importer) updateExisting(ctx context.Context, id, path string, note domain.NoteFile, backup bool) error {
	ref := ports.NoteRef{Path: path}

	if backup {
		if err := im.writeBackup(ctx, ref); err != nil {
			return err
		}
	}

	im.tracker.Step(id, 80, "updating")
	content, err := domain.EncodeNote(note.Preamble, note.Body)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := im.vault.Modify(ctx, ref, content); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	im.tracker.Complete(id, path)
	return nil
}

// mergeExisting recombines the converted body with the existing one,
// keeping the existing preamble.
func (im *Importer) mergeExisting(ctx context.Context, id, path string, note domain.NoteFile, strategy domain.MergeStrategy) error {
	ref := ports.NoteRef{Path: path}

	existing, err := im.vault.Read(ctx, ref)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	pre, body, err := domain.DecodeNote(existing)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}

	var merged string
	switch strategy {
	case domain.MergePrepend:
		merged = note.Body + "\n\n---\n\n" + body
	default:
		merged = body + "\n\n---\n\n" + note.Body
	}

	im.tracker.Step(id, 80, "merging")
	content, err := domain.EncodeNote(pre, merged)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := im.vault.Modify(ctx, ref, content); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	im.tracker.Complete(id, path)
	return nil
}

// writeBackup copies the current note content to a timestamped sibling.
func (im *Importer) writeBackup(ctx context.Context, ref ports.NoteRef) error {
	content, err := im.vault.Read(ctx, ref)
	if err != nil {
		return &WriteError{Path: ref.Path, Err: err}
	}
	backupPath := fmt.Sprintf("%s.%d.bak", ref.Path, time.Now().Unix())
	if _, err := im.vault.Create(ctx, backupPath, content); err != nil {
		return &WriteError{Path: backupPath, Err: err}
	}
	return nil
}
