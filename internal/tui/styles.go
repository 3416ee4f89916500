package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed    = lipgloss.Color("#ff5555")
	colorGreen  = lipgloss.Color("#50fa7b")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorBlue   = lipgloss.Color("#8be9fd")
	colorDim    = lipgloss.Color("#6272a4")
	colorFg     = lipgloss.Color("#f8f8f2")
	colorBorder = lipgloss.Color("#44475a")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	sectionTabStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	sectionTabActiveStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorBorder).
				Bold(true).
				Padding(0, 1)

	bodyStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	literalStyle = lipgloss.NewStyle().Foreground(colorFg)

	// edit segments by status
	pendingTargetStyle = lipgloss.NewStyle().
				Foreground(colorYellow).
				Underline(true)
	acceptedStyle = lipgloss.NewStyle().
			Foreground(colorGreen)
	rejectedStyle = lipgloss.NewStyle().
			Foreground(colorDim)
	selectedStyle = lipgloss.NewStyle().
			Reverse(true)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Italic(true)

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Width(10)

	deletedStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Strikethrough(true)
	insertedStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBorder)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)
