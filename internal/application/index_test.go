package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"noteferry/internal/domain"
)

func newTestIndex(t *testing.T, vault *fakeVault) *Index {
	t.Helper()
	ix := NewIndex(vault, nil, slog.New(slog.DiscardHandler))
	if err := ix.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return ix
}

func TestCheckDocument_New(t *testing.T) {
	vault := newFakeVault()
	ix := newTestIndex(t, vault)

	doc := domain.RemoteDocument{
		ID:        "d1",
		Title:     "Fresh Note",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusNew {
		t.Errorf("expected new, got %s (%s)", status.Kind, status.Reason)
	}
	if status.RequiresUserChoice {
		t.Error("new documents must not require a user choice")
	}
}

func TestCheckDocument_ExistsAndUpdated(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Weekly Planning", 2)
	vault.addImportedNote(t, "2024-01-02 Weekly Planning.md", doc, "# Weekly Planning")
	ix := newTestIndex(t, vault)

	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusExists {
		t.Errorf("unchanged document should be exists, got %s (%s)", status.Kind, status.Reason)
	}
	if status.RequiresUserChoice {
		t.Error("exists must be auto-resolvable")
	}

	newer := doc
	newer.UpdatedAt = doc.UpdatedAt.Add(time.Hour)
	status, err = ix.CheckDocument(context.Background(), newer)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusUpdated {
		t.Errorf("newer remote should be updated, got %s", status.Kind)
	}
	if status.RequiresUserChoice {
		t.Error("updated must be auto-resolvable")
	}
	if status.Existing == nil || status.Existing.RemoteID != "d1" {
		t.Error("updated status should reference the local record")
	}
}

func TestCheckDocument_SubSecondTimestampStaysExists(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Weekly Planning", 2)
	doc.UpdatedAt = doc.UpdatedAt.Add(123 * time.Millisecond)
	vault.addImportedNote(t, "2024-01-02 Weekly Planning.md", doc, "# Weekly Planning")
	ix := newTestIndex(t, vault)

	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusExists {
		t.Errorf("unchanged document with fractional timestamp should be exists, got %s (%s)",
			status.Kind, status.Reason)
	}
}

func TestCheckDocument_HandEditConflict(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Weekly Planning", 2)
	vault.addImportedNote(t, "2024-01-02 Weekly Planning.md", doc,
		"# Weekly Planning\n\nadded by hand #followup")
	ix := newTestIndex(t, vault)

	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusConflict {
		t.Fatalf("hand-edited note should conflict, got %s", status.Kind)
	}
	if !status.RequiresUserChoice {
		t.Error("conflicts always require a user choice")
	}
}

func TestCheckDocument_FilenameCollisions(t *testing.T) {
	vault := newFakeVault()
	other := testDoc("other-id", "Weekly Planning", 2)
	vault.addImportedNote(t, "2024-01-02 Weekly Planning.md", other, "# Weekly Planning")
	vault.mu.Lock()
	vault.notes["Retro.md"] = "hand-written note, no preamble\n"
	vault.mu.Unlock()
	ix := newTestIndex(t, vault)

	// Same derived filename, different remote id.
	doc := testDoc("d9", "Weekly Planning", 2)
	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusConflict || !status.RequiresUserChoice {
		t.Errorf("expected filename-collision conflict, got %s (%s)", status.Kind, status.Reason)
	}

	// Legacy filename taken by a foreign file.
	foreign := domain.RemoteDocument{ID: "d10", Title: "Retro"}
	status, err = ix.CheckDocument(context.Background(), foreign)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusConflict {
		t.Errorf("expected foreign-file conflict, got %s (%s)", status.Kind, status.Reason)
	}
}

func TestCheckDocument_Idempotent(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Weekly Planning", 2)
	vault.addImportedNote(t, "2024-01-02 Weekly Planning.md", doc, "# Weekly Planning")
	ix := newTestIndex(t, vault)

	first, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	second, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if first.Kind != second.Kind || first.RequiresUserChoice != second.RequiresUserChoice {
		t.Errorf("classification is not idempotent: %+v vs %+v", first, second)
	}
}

func TestCheckDocument_RescanPicksUpHandEdits(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Weekly Planning", 2)
	path := "2024-01-02 Weekly Planning.md"
	vault.addImportedNote(t, path, doc, "# Weekly Planning")
	ix := newTestIndex(t, vault)

	status, _ := ix.CheckDocument(context.Background(), doc)
	if status.Kind != domain.StatusExists {
		t.Fatalf("precondition: expected exists, got %s", status.Kind)
	}

	// Hand-edit the note to add an inline tag, then rescan.
	vault.addImportedNote(t, path, doc, "# Weekly Planning\n\nremember #budget")
	if err := ix.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	status, err := ix.CheckDocument(context.Background(), doc)
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusConflict || !status.RequiresUserChoice {
		t.Errorf("expected conflict after hand edit, got %s (%s)", status.Kind, status.Reason)
	}
}

func TestInitialize_ScanFailureIsFatal(t *testing.T) {
	vault := newFakeVault()
	vault.failList = errors.New("disk gone")
	ix := NewIndex(vault, nil, slog.New(slog.DiscardHandler))

	err := ix.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected scan failure")
	}
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Errorf("expected *ScanError, got %T", err)
	}
}

func TestInitialize_UnparsableNoteIsSkipped(t *testing.T) {
	vault := newFakeVault()
	doc := testDoc("d1", "Good", 2)
	vault.addImportedNote(t, "2024-01-02 Good.md", doc, "# Good")
	vault.mu.Lock()
	vault.notes["Broken.md"] = "---\ntitle: never closed\n"
	vault.mu.Unlock()

	ix := newTestIndex(t, vault)

	if ix.Lookup("d1") == nil {
		t.Error("parsable note should still be indexed")
	}
	// The broken note is excluded from the id index but its filename
	// still blocks new creates.
	status, err := ix.CheckDocument(context.Background(), domain.RemoteDocument{ID: "d2", Title: "Broken"})
	if err != nil {
		t.Fatalf("CheckDocument failed: %v", err)
	}
	if status.Kind != domain.StatusConflict {
		t.Errorf("expected conflict with unparsable file's name, got %s", status.Kind)
	}
}

func TestCheckDocuments_Batch(t *testing.T) {
	vault := newFakeVault()
	existing := testDoc("d1", "Old", 2)
	vault.addImportedNote(t, "2024-01-02 Old.md", existing, "# Old")
	ix := newTestIndex(t, vault)

	batch := []domain.RemoteDocument{existing, testDoc("d2", "New", 3)}
	statuses, err := ix.CheckDocuments(context.Background(), batch)
	if err != nil {
		t.Fatalf("CheckDocuments failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses["d1"].Kind != domain.StatusExists {
		t.Errorf("d1 should be exists, got %s", statuses["d1"].Kind)
	}
	if statuses["d2"].Kind != domain.StatusNew {
		t.Errorf("d2 should be new, got %s", statuses["d2"].Kind)
	}
}
