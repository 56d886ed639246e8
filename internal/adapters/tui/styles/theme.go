package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Document list styles
	RowSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	StatusNew = lipgloss.NewStyle().
			Foreground(Secondary)

	StatusExists = lipgloss.NewStyle().
			Foreground(Muted)

	StatusUpdated = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")) // Blue

	StatusConflict = lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true)

	StatusFailed = lipgloss.NewStyle().
			Foreground(Error)

	// Dialog styles
	DialogBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Warning).
			Padding(1, 2)

	InputLabel = lipgloss.NewStyle().
			Bold(true)

	// Help bar styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)
)
