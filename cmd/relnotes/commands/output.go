package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/relnotes/internal/release"
)

const titleWidth = 60

// printTable writes rows under headers without borders between cells.
func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderHeader(false).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingRight(2)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	for _, r := range rows {
		t.Row(r...)
	}
	fmt.Fprintln(w, t.Render())
}

func truncate(s string, width int) string {
	s = release.FirstLine(s)
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "...")
	}
	return s
}

func check(included bool) string {
	if included {
		return "[x]"
	}
	return "[ ]"
}
