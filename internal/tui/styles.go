package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorIncluded = lipgloss.Color("46")  // green
	colorExcluded = lipgloss.Color("240") // gray
	colorAccent   = lipgloss.Color("39")  // blue
	colorError    = lipgloss.Color("196") // red

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			PaddingLeft(1).
			PaddingRight(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Underline(true).
			PaddingRight(2)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			PaddingRight(2)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	excludedItemStyle = lipgloss.NewStyle().
				Foreground(colorExcluded)

	selectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorAccent).
				Background(lipgloss.Color("237"))

	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("180")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("248"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorIncluded)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

func checkbox(included bool) string {
	if included {
		return lipgloss.NewStyle().Foreground(colorIncluded).Render("[x]")
	}
	return lipgloss.NewStyle().Foreground(colorExcluded).Render("[ ]")
}
