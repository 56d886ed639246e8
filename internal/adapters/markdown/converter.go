package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// Converter is the default ports.Converter. It picks the most reliable
// rendering of a document and emits a dated note with the importer
// preamble. Pure: the same document always converts to the same note.
type Converter struct{}

// Ensure Converter implements the port
var _ ports.Converter = (*Converter)(nil)

// NewConverter creates the default converter.
func NewConverter() *Converter {
	return &Converter{}
}

// Convert turns a remote document into note file parts.
func (c *Converter) Convert(doc domain.RemoteDocument) (domain.NoteFile, error) {
	content, ok := doc.BestContent()
	if !ok {
		return domain.NoteFile{}, fmt.Errorf("document %s has no usable content", doc.ID)
	}

	body := renderBody(content)
	return domain.NoteFile{
		Filename: domain.DatedFilename(doc.Title, doc.CreatedAt),
		Body:     body,
		Preamble: domain.NewPreamble(doc, len(body)),
	}, nil
}

var (
	brPattern      = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockEnds      = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|ul|ol|blockquote)>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	tripleNewlines = regexp.MustCompile(`\n{3,}`)
)

// renderBody normalizes one rendering into markdown text. Markdown passes
// through; HTML is flattened to text with paragraph breaks preserved.
func renderBody(content domain.Content) string {
	body := content.Body
	if content.Format == domain.FormatHTML {
		body = brPattern.ReplaceAllString(body, "\n")
		body = blockEnds.ReplaceAllString(body, "\n\n")
		body = tagPattern.ReplaceAllString(body, "")
		body = htmlUnescape(body)
	}
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = tripleNewlines.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body) + "\n"
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func htmlUnescape(s string) string {
	return entityReplacer.Replace(s)
}
