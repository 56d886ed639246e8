package markdown

import (
	"strings"
	"testing"
	"time"

	"noteferry/internal/domain"
)

func TestConvert_Markdown(t *testing.T) {
	doc := domain.RemoteDocument{
		ID:        "d1",
		Title:     "Weekly Planning",
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		Contents: []domain.Content{
			{Format: domain.FormatMarkdown, Body: "# Plan\n\n- item one\n"},
			{Format: domain.FormatPlain, Body: "Plan item one"},
		},
	}

	c := NewConverter()
	note, err := c.Convert(doc)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if note.Filename != "2024-01-02 Weekly Planning.md" {
		t.Errorf("unexpected filename %q", note.Filename)
	}
	if !strings.HasPrefix(note.Body, "# Plan") {
		t.Errorf("markdown rendering should pass through, got %q", note.Body)
	}
	if note.Preamble.ID != "d1" || !note.Preamble.FromImporter() {
		t.Errorf("preamble missing importer identity: %+v", note.Preamble)
	}
	if note.Preamble.Size != len(note.Body) {
		t.Errorf("preamble size %d should match body length %d", note.Preamble.Size, len(note.Body))
	}
}

func TestConvert_FallsBackToHTML(t *testing.T) {
	doc := domain.RemoteDocument{
		ID:        "d2",
		Title:     "Call Notes",
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Contents: []domain.Content{
			{Format: domain.FormatMarkdown, Body: "   "},
			{Format: domain.FormatHTML, Body: "<h1>Call</h1><p>Tom &amp; Jerry<br>agreed</p>"},
		},
	}

	note, err := NewConverter().Convert(doc)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	for _, want := range []string{"Call", "Tom & Jerry", "agreed"} {
		if !strings.Contains(note.Body, want) {
			t.Errorf("body missing %q:\n%s", want, note.Body)
		}
	}
	if strings.Contains(note.Body, "<p>") {
		t.Errorf("tags should be stripped:\n%s", note.Body)
	}
}

func TestConvert_EmptyDocumentFails(t *testing.T) {
	doc := domain.RemoteDocument{ID: "d3", Title: "Blank"}
	if _, err := NewConverter().Convert(doc); err == nil {
		t.Error("expected an error for a document with no content")
	}
}

func TestConvert_IsDeterministic(t *testing.T) {
	doc := domain.RemoteDocument{
		ID:        "d4",
		Title:     "Repeat",
		CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Contents:  []domain.Content{{Format: domain.FormatMarkdown, Body: "same"}},
	}

	c := NewConverter()
	first, err := c.Convert(doc)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	second, err := c.Convert(doc)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if first.Filename != second.Filename || first.Body != second.Body || first.Preamble != second.Preamble {
		t.Error("conversion must be pure")
	}
}
