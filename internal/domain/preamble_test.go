package domain

import (
	"strings"
	"testing"
	"time"
)

func TestEncodeDecodeNote(t *testing.T) {
	doc := RemoteDocument{
		ID:        "doc-42",
		Title:     "Standup Notes",
		CreatedAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC),
	}
	body := "# Standup\n\n- shipped the thing"
	p := NewPreamble(doc, len(body))

	content, err := EncodeNote(p, body)
	if err != nil {
		t.Fatalf("EncodeNote failed: %v", err)
	}
	if !strings.HasPrefix(content, "---\n") {
		t.Fatalf("encoded note missing leading fence:\n%s", content)
	}
	if !strings.Contains(content, "source: noteferry") {
		t.Errorf("encoded note missing source marker:\n%s", content)
	}

	decoded, gotBody, err := DecodeNote(content)
	if err != nil {
		t.Fatalf("DecodeNote failed: %v", err)
	}
	if decoded.ID != "doc-42" {
		t.Errorf("expected ID doc-42, got %q", decoded.ID)
	}
	if !decoded.FromImporter() {
		t.Error("decoded preamble should carry the importer marker")
	}
	if got := decoded.UpdatedTime(); !got.Equal(doc.UpdatedAt) {
		t.Errorf("expected updated %v, got %v", doc.UpdatedAt, got)
	}
	if strings.TrimSuffix(gotBody, "\n") != body {
		t.Errorf("body round trip mismatch:\n%q\nvs\n%q", gotBody, body)
	}
}

func TestEncodeDecodeNote_SubSecondTimestamps(t *testing.T) {
	doc := RemoteDocument{
		ID:        "doc-7",
		Title:     "Sync Log",
		UpdatedAt: time.Date(2024, 1, 2, 9, 0, 0, 123456789, time.UTC),
	}
	content, err := EncodeNote(NewPreamble(doc, 0), "body")
	if err != nil {
		t.Fatalf("EncodeNote failed: %v", err)
	}

	decoded, _, err := DecodeNote(content)
	if err != nil {
		t.Fatalf("DecodeNote failed: %v", err)
	}
	if got := decoded.UpdatedTime(); !got.Equal(doc.UpdatedAt) {
		t.Errorf("updated timestamp lost precision: stored %v, got %v", doc.UpdatedAt, got)
	}
}

func TestDecodeNote_NoPreamble(t *testing.T) {
	content := "just a plain note\n"
	p, body, err := DecodeNote(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FromImporter() {
		t.Error("plain note should not look importer-owned")
	}
	if body != content {
		t.Errorf("body should be the full content, got %q", body)
	}
}

func TestDecodeNote_ForeignPreamble(t *testing.T) {
	content := "---\ntags: [journal]\n---\n\nhand-written\n"
	p, body, err := DecodeNote(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FromImporter() {
		t.Error("foreign preamble should not carry the importer marker")
	}
	if body != "hand-written\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestDecodeNote_UnclosedFence(t *testing.T) {
	if _, _, err := DecodeNote("---\ntitle: broken\n"); err == nil {
		t.Error("expected error for unclosed fence")
	}
}
