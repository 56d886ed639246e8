package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"noteferry/internal/adapters/tui/styles"
	"noteferry/internal/domain"
	"noteferry/internal/ports"
)

// ConflictKeyMap defines key bindings for the conflict dialog
type ConflictKeyMap struct {
	Skip      key.Binding
	Overwrite key.Binding
	Backup    key.Binding
	Append    key.Binding
	Prepend   key.Binding
	Rename    key.Binding
	Dismiss   key.Binding
}

// DefaultConflictKeys returns the default conflict dialog key bindings
var DefaultConflictKeys = ConflictKeyMap{
	Skip:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "skip")),
	Overwrite: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "overwrite")),
	Backup:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "overwrite + backup")),
	Append:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "merge append")),
	Prepend:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "merge prepend")),
	Rename:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename")),
	Dismiss:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss (skip)")),
}

// ConflictModel collects exactly one Resolution for a suspended conflict.
// Dismissing the dialog resolves to skip; the handshake is never left
// pending.
type ConflictModel struct {
	conflict ports.Conflict
	renaming bool
	input    textinput.Model
	keys     ConflictKeyMap
	width    int
	height   int
}

// NewConflictModel creates an idle dialog.
func NewConflictModel() *ConflictModel {
	input := textinput.New()
	input.Placeholder = "new filename.md"
	input.CharLimit = 120
	return &ConflictModel{
		input: input,
		keys:  DefaultConflictKeys,
	}
}

// SetSize updates the view dimensions.
func (m *ConflictModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetConflict arms the dialog for one handshake.
func (m *ConflictModel) SetConflict(c ports.Conflict) {
	m.conflict = c
	m.renaming = false
	m.input.SetValue("")
	m.input.Blur()
}

// Init implements tea.Model.
func (m *ConflictModel) Init() tea.Cmd { return nil }

// Update handles key messages for the dialog.
func (m *ConflictModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.renaming {
		return m.updateRenaming(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Skip):
		return m, chooseCmd(domain.SkipResolution("skipped by user"))
	case key.Matches(keyMsg, m.keys.Overwrite):
		return m, chooseCmd(domain.Resolution{Kind: domain.ResolveOverwrite})
	case key.Matches(keyMsg, m.keys.Backup):
		return m, chooseCmd(domain.Resolution{Kind: domain.ResolveOverwrite, CreateBackup: true})
	case key.Matches(keyMsg, m.keys.Append):
		return m, chooseCmd(domain.Resolution{Kind: domain.ResolveMerge, Merge: domain.MergeAppend})
	case key.Matches(keyMsg, m.keys.Prepend):
		return m, chooseCmd(domain.Resolution{Kind: domain.ResolveMerge, Merge: domain.MergePrepend})
	case key.Matches(keyMsg, m.keys.Rename):
		m.renaming = true
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(keyMsg, m.keys.Dismiss):
		return m, chooseCmd(domain.SkipResolution("dialog dismissed without a choice"))
	}
	return m, nil
}

func (m *ConflictModel) updateRenaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			return m, nil
		}
		if !strings.HasSuffix(name, ".md") {
			name += ".md"
		}
		m.renaming = false
		return m, chooseCmd(domain.Resolution{Kind: domain.ResolveRename, NewFilename: name})
	case tea.KeyEsc:
		m.renaming = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func chooseCmd(res domain.Resolution) tea.Cmd {
	return func() tea.Msg { return ResolutionChosenMsg{Resolution: res} }
}

// View renders the dialog.
func (m *ConflictModel) View() string {
	var b strings.Builder
	b.WriteString(styles.StatusConflict.Render("Conflict"))
	b.WriteString("\n\n")
	b.WriteString(styles.InputLabel.Render(m.conflict.Document.Title))
	b.WriteString("\n")
	b.WriteString(m.conflict.Status.Reason)
	b.WriteString("\n")
	if m.conflict.Existing != nil {
		b.WriteString(styles.Subtitle.Render("existing: " + m.conflict.Existing.Path))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.renaming {
		b.WriteString(styles.InputLabel.Render("New filename:"))
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpLine("enter", "confirm", "esc", "back"))
	} else {
		b.WriteString(helpLine(
			"s", "skip",
			"o", "overwrite",
			"b", "overwrite+backup",
			"m/p", "merge",
			"r", "rename",
			"esc", "skip",
		))
	}
	return styles.DialogBox.Render(b.String())
}
