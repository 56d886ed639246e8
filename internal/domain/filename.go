package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const untitledName = "Untitled"

var (
	forbiddenChars = regexp.MustCompile(`[\\/:*?"<>|#^\[\]]`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a document title into a safe note name.
func SanitizeTitle(title string) string {
	name := forbiddenChars.ReplaceAllString(title, "")
	name = multiSpace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")
	if name == "" {
		return untitledName
	}
	return name
}

// LegacyFilename is the unprefixed note name earlier releases produced.
func LegacyFilename(title string) string {
	return SanitizeTitle(title) + ".md"
}

// DatedFilename is the date-prefixed note name the converter produces.
func DatedFilename(title string, created time.Time) string {
	if created.IsZero() {
		return LegacyFilename(title)
	}
	return created.Format("2006-01-02") + " " + SanitizeTitle(title) + ".md"
}

// CandidateFilenames returns every note name the converter could have
// produced for this document, in current-first order.
func CandidateFilenames(doc RemoteDocument) []string {
	dated := DatedFilename(doc.Title, doc.CreatedAt)
	legacy := LegacyFilename(doc.Title)
	if dated == legacy {
		return []string{dated}
	}
	return []string{dated, legacy}
}

// UniqueFilename appends "-N" to the name until taken reports it free.
func UniqueFilename(filename string, taken func(string) bool) string {
	if !taken(filename) {
		return filename
	}
	base := strings.TrimSuffix(filename, ".md")
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d.md", base, n)
		if !taken(candidate) {
			return candidate
		}
	}
}
