package domain

import "testing"

func TestBestContent(t *testing.T) {
	doc := RemoteDocument{
		ID: "d1",
		Contents: []Content{
			{Format: FormatMarkdown, Body: "   "},
			{Format: FormatHTML, Body: "<p>hello</p>"},
			{Format: FormatPlain, Body: "hello"},
		},
	}

	c, ok := doc.BestContent()
	if !ok {
		t.Fatal("expected a usable rendering")
	}
	if c.Format != FormatHTML {
		t.Errorf("expected first non-empty rendering (html), got %s", c.Format)
	}
}

func TestIsEmpty(t *testing.T) {
	doc := RemoteDocument{
		ID: "d2",
		Contents: []Content{
			{Format: FormatMarkdown, Body: "\n\t "},
			{Format: FormatPlain, Body: ""},
		},
	}
	if !doc.IsEmpty() {
		t.Error("whitespace-only renderings should count as empty")
	}

	doc.Contents = append(doc.Contents, Content{Format: FormatPlain, Body: "x"})
	if doc.IsEmpty() {
		t.Error("document with content should not be empty")
	}
}
