package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"noteferry/internal/adapters/tui/styles"
	"noteferry/internal/domain"
)

// PickerKeyMap defines key bindings for the document picker
type PickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	All    key.Binding
	None   key.Binding
	Start  key.Binding
	Quit   key.Binding
}

// DefaultPickerKeys returns the default picker key bindings
var DefaultPickerKeys = PickerKeyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	All:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
	None:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "select none")),
	Start:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "import")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// PickerModel lets the operator choose documents from the fetched batch.
type PickerModel struct {
	docs     []domain.RemoteDocument
	statuses map[string]domain.ImportStatus
	selected map[string]bool
	cursor   int
	keys     PickerKeyMap
	width    int
	height   int
}

// NewPickerModel creates an empty picker.
func NewPickerModel() *PickerModel {
	return &PickerModel{
		selected: make(map[string]bool),
		keys:     DefaultPickerKeys,
	}
}

// SetSize updates the view dimensions.
func (m *PickerModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetDocuments loads the fetched batch, preselecting everything that is
// not already imported unchanged.
func (m *PickerModel) SetDocuments(docs []domain.RemoteDocument, statuses map[string]domain.ImportStatus) {
	m.docs = docs
	m.statuses = statuses
	m.selected = make(map[string]bool, len(docs))
	m.cursor = 0
	for _, doc := range docs {
		if statuses[doc.ID].Kind != domain.StatusExists {
			m.selected[doc.ID] = true
		}
	}
}

// Selection returns the chosen documents as display metadata.
func (m *PickerModel) Selection() []domain.DocumentMeta {
	var metas []domain.DocumentMeta
	for _, doc := range m.docs {
		if m.selected[doc.ID] {
			metas = append(metas, doc.Meta())
		}
	}
	return metas
}

// Init implements tea.Model.
func (m *PickerModel) Init() tea.Cmd { return nil }

// Update handles key messages for the picker.
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.docs)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Toggle):
		if m.cursor < len(m.docs) {
			id := m.docs[m.cursor].ID
			m.selected[id] = !m.selected[id]
		}
	case key.Matches(keyMsg, m.keys.All):
		for _, doc := range m.docs {
			m.selected[doc.ID] = true
		}
	case key.Matches(keyMsg, m.keys.None):
		m.selected = make(map[string]bool, len(m.docs))
	case key.Matches(keyMsg, m.keys.Start):
		selection := m.Selection()
		if len(selection) == 0 {
			return m, nil
		}
		return m, func() tea.Msg { return StartImportMsg{Selection: selection} }
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// View renders the picker.
func (m *PickerModel) View() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Select documents to import"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render(fmt.Sprintf("%d fetched, %d selected", len(m.docs), len(m.Selection()))))
	b.WriteString("\n\n")

	for i, doc := range m.docs {
		mark := "[ ]"
		if m.selected[doc.ID] {
			mark = "[x]"
		}
		status := m.statuses[doc.ID]
		line := fmt.Sprintf("%s %s  %s", mark, doc.Title, renderStatus(status))
		if i == m.cursor {
			line = styles.RowSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpLine(
		"space", "toggle",
		"a/n", "all/none",
		"enter", "import",
		"q", "quit",
	))
	return styles.App.Render(b.String())
}

func renderStatus(status domain.ImportStatus) string {
	label := status.Kind.String()
	switch status.Kind {
	case domain.StatusNew:
		return styles.StatusNew.Render(label)
	case domain.StatusExists:
		return styles.StatusExists.Render(label)
	case domain.StatusUpdated:
		return styles.StatusUpdated.Render(label)
	case domain.StatusConflict:
		return styles.StatusConflict.Render(label)
	default:
		return label
	}
}

// helpLine renders alternating key/description pairs.
func helpLine(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(styles.HelpDesc.Render("  ·  "))
		}
		b.WriteString(styles.HelpKey.Render(pairs[i]))
		b.WriteString(styles.HelpDesc.Render(" " + pairs[i+1]))
	}
	return b.String()
}
