package ports

import "noteferry/internal/domain"

// Converter turns a remote document into note file parts. Implementations
// must be pure: no side effects, same output for the same input.
type Converter interface {
	Convert(doc domain.RemoteDocument) (domain.NoteFile, error)
}
