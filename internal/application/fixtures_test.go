package application

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// fakeVault is an in-memory ports.Vault that records every write.
type fakeVault struct {
	mu     sync.Mutex
	notes  map[string]string
	writes []string // "create:path" / "modify:path"

	failCreate map[string]error
	failList   error
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		notes:      make(map[string]string),
		failCreate: make(map[string]error),
	}
}

func (v *fakeVault) Create(_ context.Context, path, content string) (ports.NoteRef, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.failCreate[path]; err != nil {
		return ports.NoteRef{}, err
	}
	if _, exists := v.notes[path]; exists {
		return ports.NoteRef{}, fmt.Errorf("create %s: %w", path, fs.ErrExist)
	}
	v.notes[path] = content
	v.writes = append(v.writes, "create:"+path)
	return ports.NoteRef{Path: path}, nil
}

func (v *fakeVault) Modify(_ context.Context, ref ports.NoteRef, content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.notes[ref.Path]; !exists {
		return fmt.Errorf("modify %s: %w", ref.Path, fs.ErrNotExist)
	}
	v.notes[ref.Path] = content
	v.writes = append(v.writes, "modify:"+ref.Path)
	return nil
}

func (v *fakeVault) Read(_ context.Context, ref ports.NoteRef) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	content, exists := v.notes[ref.Path]
	if !exists {
		return "", fmt.Errorf("read %s: %w", ref.Path, fs.ErrNotExist)
	}
	return content, nil
}

func (v *fakeVault) GetByPath(_ context.Context, path string) (*ports.NoteRef, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.notes[path]; !exists {
		return nil, nil
	}
	return &ports.NoteRef{Path: path}, nil
}

func (v *fakeVault) ListNotes(_ context.Context) ([]ports.NoteInfo, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failList != nil {
		return nil, v.failList
	}
	var out []ports.NoteInfo
	for path := range v.notes {
		if strings.HasSuffix(path, ".md") {
			out = append(out, ports.NoteInfo{Path: path, Mtime: 1})
		}
	}
	return out, nil
}

func (v *fakeVault) writeLog() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.writes...)
}

// addImportedNote seeds the vault with an importer-owned note.
func (v *fakeVault) addImportedNote(t *testing.T, path string, doc domain.RemoteDocument, body string) {
	t.Helper()
	content, err := domain.EncodeNote(domain.NewPreamble(doc, len(body)), body)
	if err != nil {
		t.Fatalf("encode note: %v", err)
	}
	v.mu.Lock()
	v.notes[path] = content
	v.mu.Unlock()
}

// fakeConverter produces a deterministic note, failing for listed ids.
type fakeConverter struct {
	failIDs map[string]error
}

func (c *fakeConverter) Convert(doc domain.RemoteDocument) (domain.NoteFile, error) {
	if err := c.failIDs[doc.ID]; err != nil {
		return domain.NoteFile{}, err
	}
	body := ""
	if content, ok := doc.BestContent(); ok {
		body = content.Body
	}
	return domain.NoteFile{
		Filename: domain.DatedFilename(doc.Title, doc.CreatedAt),
		Body:     body,
		Preamble: domain.NewPreamble(doc, len(body)),
	}, nil
}

// fakeResolver answers every conflict with a canned resolution.
type fakeResolver struct {
	mu         sync.Mutex
	resolution domain.Resolution
	err        error
	conflicts  []ports.Conflict
}

func (r *fakeResolver) Resolve(_ context.Context, c ports.Conflict) (domain.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts = append(r.conflicts, c)
	if r.err != nil {
		return domain.Resolution{}, r.err
	}
	return r.resolution, nil
}

func (r *fakeResolver) seen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conflicts)
}

func testDoc(id, title string, day int) domain.RemoteDocument {
	return domain.RemoteDocument{
		ID:        id,
		Title:     title,
		CreatedAt: time.Date(2024, 1, day, 8, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, day, 18, 0, 0, 0, time.UTC),
		Contents: []domain.Content{
			{Format: domain.FormatMarkdown, Body: "# " + title},
		},
	}
}

func metasFor(docs ...domain.RemoteDocument) []domain.DocumentMeta {
	out := make([]domain.DocumentMeta, len(docs))
	for i, d := range docs {
		out[i] = d.Meta()
	}
	return out
}

// newTestImporter wires an importer over the fakes with quiet logging.
func newTestImporter(vault *fakeVault, conv ports.Converter, resolver ports.ConflictResolver) (*Importer, *Tracker, *FailureRegistry) {
	log := slog.New(slog.DiscardHandler)
	index := NewIndex(vault, nil, log)
	tracker := NewTracker(nil, nil)
	failures := NewFailureRegistry()
	return NewImporter(vault, index, conv, resolver, tracker, failures, log), tracker, failures
}
