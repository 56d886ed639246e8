package views

import (
	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// StartImportMsg asks the app to run the pipeline over a selection.
type StartImportMsg struct {
	Selection []domain.DocumentMeta
}

// RetryMsg asks the app to re-run the failure registry.
type RetryMsg struct{}

// RunProgressMsg carries an overall-progress snapshot.
type RunProgressMsg struct {
	Run domain.ImportRun
}

// DocProgressMsg carries a per-document snapshot.
type DocProgressMsg struct {
	Doc domain.DocumentProgress
}

// ConflictRequestMsg surfaces a suspended conflict handshake. Reply must
// be completed exactly once; the app owns that guarantee.
type ConflictRequestMsg struct {
	Conflict ports.Conflict
	Reply    chan domain.Resolution
}

// ResolutionChosenMsg is the dialog's single answer.
type ResolutionChosenMsg struct {
	Resolution domain.Resolution
}
