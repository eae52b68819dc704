package styles

import "github.com/charmbracelet/lipgloss"

var (
	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(defaultTheme.Border).
			Padding(0, 1)

	tableBorderStyle = lipgloss.NewStyle().Foreground(defaultTheme.Border)
)

// PanelStyle returns the rounded box drawn around report headers.
func PanelStyle() lipgloss.Style {
	return panelStyle
}

// TableBorderStyle returns the style for table borders.
func TableBorderStyle() lipgloss.Style {
	return tableBorderStyle
}
