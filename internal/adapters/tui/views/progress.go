package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"noteferry/internal/adapters/tui/styles"
	"noteferry/internal/domain"
)

// ProgressKeyMap defines key bindings for the progress/summary view
type ProgressKeyMap struct {
	Cancel key.Binding
	Retry  key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

// DefaultProgressKeys returns the default progress view key bindings
var DefaultProgressKeys = ProgressKeyMap{
	Cancel: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
	Retry:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry failures")),
	Copy:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy errors")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// CancelRequestMsg asks the app to cancel the active run.
type CancelRequestMsg struct{}

// CopyErrorsMsg asks the app to copy failure messages to the clipboard.
type CopyErrorsMsg struct{}

// ProgressModel renders the run aggregate and per-document lines while the
// pipeline is active, then a summary once it finishes.
type ProgressModel struct {
	run    domain.ImportRun
	order  []string
	docs   map[string]domain.DocumentProgress
	bar    progress.Model
	keys   ProgressKeyMap
	copied bool
	width  int
	height int
}

// NewProgressModel creates an empty progress view.
func NewProgressModel() *ProgressModel {
	bar := progress.New(progress.WithDefaultGradient())
	return &ProgressModel{
		docs: make(map[string]domain.DocumentProgress),
		bar:  bar,
		keys: DefaultProgressKeys,
	}
}

// SetSize updates the view dimensions.
func (m *ProgressModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = width - 8
	if m.bar.Width > 60 {
		m.bar.Width = 60
	}
}

// Reset prepares the view for a fresh run over the given selection.
func (m *ProgressModel) Reset(selection []domain.DocumentMeta) {
	m.run = domain.ImportRun{Total: len(selection), Running: true}
	m.order = m.order[:0]
	m.docs = make(map[string]domain.DocumentProgress, len(selection))
	m.copied = false
	for _, meta := range selection {
		m.order = append(m.order, meta.ID)
		m.docs[meta.ID] = domain.DocumentProgress{ID: meta.ID, Title: meta.Title, State: domain.StatePending}
	}
}

// SetRun applies a run-level snapshot.
func (m *ProgressModel) SetRun(run domain.ImportRun) {
	m.run = run
}

// SetDocument applies a per-document snapshot.
func (m *ProgressModel) SetDocument(doc domain.DocumentProgress) {
	if _, known := m.docs[doc.ID]; !known {
		m.order = append(m.order, doc.ID)
	}
	m.docs[doc.ID] = doc
}

// Failures returns the failed documents in display order.
func (m *ProgressModel) Failures() []domain.DocumentProgress {
	var failed []domain.DocumentProgress
	for _, id := range m.order {
		if d, ok := m.docs[id]; ok && d.State == domain.StateFailed {
			failed = append(failed, d)
		}
	}
	return failed
}

// MarkCopied flips the copied indicator in the summary.
func (m *ProgressModel) MarkCopied() {
	m.copied = true
}

// Init implements tea.Model.
func (m *ProgressModel) Init() tea.Cmd { return nil }

// Update handles key messages for the progress view.
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.run.Running {
		switch {
		case key.Matches(keyMsg, m.keys.Cancel):
			return m, func() tea.Msg { return CancelRequestMsg{} }
		case key.Matches(keyMsg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Retry):
		if len(m.Failures()) > 0 {
			return m, func() tea.Msg { return RetryMsg{} }
		}
	case key.Matches(keyMsg, m.keys.Copy):
		if len(m.Failures()) > 0 {
			return m, func() tea.Msg { return CopyErrorsMsg{} }
		}
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// View renders the run.
func (m *ProgressModel) View() string {
	var b strings.Builder

	if m.run.Running {
		b.WriteString(styles.Title.Render("Importing"))
	} else if m.run.Cancelled {
		b.WriteString(styles.Title.Render("Import cancelled"))
	} else {
		b.WriteString(styles.Title.Render("Import finished"))
	}
	b.WriteString("\n")

	b.WriteString(m.bar.ViewAs(m.run.Percent / 100))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(m.summaryLine()))
	b.WriteString("\n\n")

	for _, id := range m.order {
		doc, ok := m.docs[id]
		if !ok {
			continue
		}
		b.WriteString(m.renderDoc(doc))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpView())
	return styles.App.Render(b.String())
}

func (m *ProgressModel) summaryLine() string {
	line := fmt.Sprintf("%d/%d done · %d ok · %d skipped · %d failed",
		m.run.Processed(), m.run.Total, m.run.Completed, m.run.Skipped, m.run.Failed)
	if m.run.Running && m.run.Throughput > 0 {
		line += fmt.Sprintf(" · %.1f/s · ETA %s", m.run.Throughput, m.run.ETA.Round(1e9))
	}
	return line
}

func (m *ProgressModel) renderDoc(doc domain.DocumentProgress) string {
	switch doc.State {
	case domain.StatePending:
		return styles.StatusExists.Render("  · " + doc.Title)
	case domain.StateImporting:
		return fmt.Sprintf("  %s %s (%d%%)", styles.StatusUpdated.Render("▶"), doc.Title, doc.Percent)
	case domain.StateCompleted:
		return fmt.Sprintf("  %s %s → %s", styles.StatusNew.Render("✓"), doc.Title, doc.ResultingFile)
	case domain.StateSkipped:
		return fmt.Sprintf("  %s %s: %s", styles.StatusExists.Render("−"), doc.Title, doc.Message)
	case domain.StateFailed:
		return fmt.Sprintf("  %s %s: %s", styles.StatusFailed.Render("✗"), doc.Title, doc.Error)
	default:
		return "  " + doc.Title
	}
}

func (m *ProgressModel) helpView() string {
	if m.run.Running {
		return helpLine("c", "cancel", "q", "quit")
	}
	pairs := []string{"q", "quit"}
	if len(m.Failures()) > 0 {
		pairs = append([]string{"r", "retry failures", "y", "copy errors"}, pairs...)
	}
	line := helpLine(pairs...)
	if m.copied {
		line += styles.HelpDesc.Render("  ·  errors copied")
	}
	return line
}
