package domain

import (
	"strings"
	"time"
)

// ContentFormat identifies one rendering of a remote document body.
type ContentFormat string

const (
	FormatMarkdown ContentFormat = "markdown"
	FormatHTML     ContentFormat = "html"
	FormatPlain    ContentFormat = "plain"
)

// Content is one redundant rendering of a document body.
type Content struct {
	Format ContentFormat
	Body   string
}

// RemoteDocument is a document as returned by the remote service.
// Instances are immutable for the duration of an import run.
type RemoteDocument struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Contents holds the redundant renderings of the body, ordered from
	// most to least reliable.
	Contents []Content
}

// DocumentMeta is the display metadata a caller selects documents by.
type DocumentMeta struct {
	ID        string
	Title     string
	UpdatedAt time.Time
	Snippet   string
}

// Meta derives display metadata from the document itself.
func (d RemoteDocument) Meta() DocumentMeta {
	return DocumentMeta{
		ID:        d.ID,
		Title:     d.Title,
		UpdatedAt: d.UpdatedAt,
	}
}

// BestContent returns the first non-empty rendering, in reliability order.
func (d RemoteDocument) BestContent() (Content, bool) {
	for _, c := range d.Contents {
		if strings.TrimSpace(c.Body) != "" {
			return c, true
		}
	}
	return Content{}, false
}

// IsEmpty reports whether no rendering carries meaningful content.
func (d RemoteDocument) IsEmpty() bool {
	_, ok := d.BestContent()
	return !ok
}
