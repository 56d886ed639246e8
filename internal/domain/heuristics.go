package domain

import "regexp"

// ModificationPredicate is one named heuristic for detecting hand edits.
// A note body matching any predicate is treated as locally modified, since
// the converter never emits these patterns.
type ModificationPredicate struct {
	Name  string
	Match func(body string, p Preamble) bool
}

var (
	wikiLinkPattern  = regexp.MustCompile(`\[\[[^\]]+\]\]`)
	// Purely numeric fragments like "issue #1" are not tags.
	inlineTagPattern = regexp.MustCompile(`(^|\s)#\p{N}*[\p{L}_/-][\p{L}\p{N}_/-]*`)
	calloutPattern   = regexp.MustCompile(`(?m)^>\s*\[!`)
	blockRefPattern  = regexp.MustCompile(`(?m)\s\^[A-Za-z0-9-]+$`)
)

// ModificationPredicates is the ordered heuristic list. Extend here, not
// in the classifier.
var ModificationPredicates = []ModificationPredicate{
	{
		Name: "wiki link",
		Match: func(body string, _ Preamble) bool {
			return wikiLinkPattern.MatchString(body)
		},
	},
	{
		Name: "inline tag",
		Match: func(body string, _ Preamble) bool {
			return inlineTagPattern.MatchString(body)
		},
	},
	{
		Name: "callout",
		Match: func(body string, _ Preamble) bool {
			return calloutPattern.MatchString(body)
		},
	},
	{
		Name: "block reference",
		Match: func(body string, _ Preamble) bool {
			return blockRefPattern.MatchString(body)
		},
	},
	{
		// Bodies far beyond the recorded converter output length imply
		// hand-added content. Notes written before Size was recorded
		// skip this check.
		Name: "implausible length",
		Match: func(body string, p Preamble) bool {
			if p.Size <= 0 {
				return false
			}
			return len(body) > p.Size*3/2+200
		},
	},
}

// LooksModified runs the predicate list and returns the first match.
func LooksModified(body string, p Preamble) (string, bool) {
	for _, pred := range ModificationPredicates {
		if pred.Match(body, p) {
			return pred.Name, true
		}
	}
	return "", false
}
