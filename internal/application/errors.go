package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrImportInProgress is returned synchronously when a second run is
	// attempted while one is active. No state is mutated.
	ErrImportInProgress = errors.New("an import is already in progress")

	// ErrNoFailedImports is returned by RetryFailedImports when the
	// failure registry is empty.
	ErrNoFailedImports = errors.New("no failed imports to retry")
)

// ScanError means vault enumeration failed. It is fatal to index
// initialization and crosses the orchestrator boundary.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("vault scan failed: %v", e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ParseError means one note's preamble was unreadable. The scan logs it,
// excludes the note, and continues.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConversionError means the converter failed for a document.
type ConversionError struct {
	ID  string
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert document %s: %v", e.ID, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// WriteError means a vault create or modify failed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cannot write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// ConflictProtocolError means the conflict resolver failed or rejected.
// It fails the document, never the run.
type ConflictProtocolError struct {
	ID  string
	Err error
}

func (e *ConflictProtocolError) Error() string {
	return fmt.Sprintf("conflict resolution failed for %s: %v", e.ID, e.Err)
}

func (e *ConflictProtocolError) Unwrap() error { return e.Err }
