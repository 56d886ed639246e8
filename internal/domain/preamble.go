package domain

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SourceMarker identifies notes produced by this importer. The duplicate
// index ignores any preamble that does not carry it.
const SourceMarker = "noteferry"

const preambleFence = "---"

// Preamble is the structured metadata block at the top of every generated
// note. It is the only integration surface between the orchestrator's
// writes and the duplicate index's scans.
type Preamble struct {
	Title   string `yaml:"title,omitempty"`
	Source  string `yaml:"source"`
	ID      string `yaml:"noteferry-id"`
	Created string `yaml:"noteferry-created,omitempty"`
	Updated string `yaml:"noteferry-updated"`

	// Size records the converter's body length at write time so the
	// modification heuristics have a baseline to compare against.
	Size int `yaml:"noteferry-size,omitempty"`
}

// NewPreamble builds the preamble for a converted document. Timestamps
// keep their full precision; truncating them would make an unchanged
// document look newer than its note on every later check.
func NewPreamble(doc RemoteDocument, bodyLen int) Preamble {
	p := Preamble{
		Title:   doc.Title,
		Source:  SourceMarker,
		ID:      doc.ID,
		Updated: doc.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Size:    bodyLen,
	}
	if !doc.CreatedAt.IsZero() {
		p.Created = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return p
}

// UpdatedTime parses the stored updated timestamp. A zero time is returned
// for a missing or malformed value.
func (p Preamble) UpdatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, p.Updated)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FromImporter reports whether the preamble carries this importer's marker.
func (p Preamble) FromImporter() bool {
	return p.Source == SourceMarker && p.ID != ""
}

// EncodeNote renders a preamble plus body into file content.
func EncodeNote(p Preamble, body string) (string, error) {
	meta, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode preamble: %w", err)
	}

	var b strings.Builder
	b.WriteString(preambleFence)
	b.WriteString("\n")
	b.Write(meta)
	b.WriteString(preambleFence)
	b.WriteString("\n\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}

// DecodeNote splits file content into its preamble and body. Content
// without a leading fence decodes to a zero preamble and the full body.
func DecodeNote(content string) (Preamble, string, error) {
	rest, ok := strings.CutPrefix(content, preambleFence+"\n")
	if !ok {
		return Preamble{}, content, nil
	}

	meta, body, ok := strings.Cut(rest, "\n"+preambleFence+"\n")
	if !ok {
		trimmed, closed := strings.CutSuffix(rest, "\n"+preambleFence)
		if !closed {
			return Preamble{}, content, fmt.Errorf("decode preamble: closing fence not found")
		}
		meta, body = trimmed, ""
	}

	var p Preamble
	if err := yaml.Unmarshal([]byte(meta), &p); err != nil {
		return Preamble{}, content, fmt.Errorf("decode preamble: %w", err)
	}

	body = strings.TrimPrefix(body, "\n")
	return p, body, nil
}
