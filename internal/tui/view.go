package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/marcin-skalski/relnotes/internal/release"
)

// Rows used by everything but the item list.
const chromeRows = 8

func renderView(m Model) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(renderHeader(m)))
	b.WriteString("\n")
	b.WriteString(renderTabs(m))
	b.WriteString("\n\n")
	b.WriteString(renderItems(m))

	switch m.mode {
	case modeNote:
		b.WriteString("\nnote: ")
		b.WriteString(m.input.View())
	case modeSearch:
		b.WriteString("\n/")
		b.WriteString(m.input.View())
	}

	if m.status != "" {
		b.WriteString("\n")
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(renderHelp(m)))
	return b.String()
}

func renderHeader(m Model) string {
	header := fmt.Sprintf("relnotes │ %s/%s", m.session.Owner(), m.session.Name())
	d, ok := m.session.Draft()
	if !ok {
		return header + " │ no draft"
	}
	version := d.Version
	if version == "" {
		version = "unreleased"
	}
	header += fmt.Sprintf(" │ %s │ %d/%d included", version, release.CountIncluded(d.Items), len(d.Items))
	if d.Filter != nil {
		header += " │ " + d.Filter.String()
	}
	return header
}

func renderTabs(m Model) string {
	d, _ := m.session.Draft()
	var parts []string
	for i, kind := range release.Kinds {
		items := release.OfKind(d.Items, kind)
		label := fmt.Sprintf("%d %s (%d/%d)", i+1, kind.Label(), release.CountIncluded(items), len(items))
		if i == m.tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return " " + strings.Join(parts, "")
}

func renderItems(m Model) string {
	items := m.visible()
	if len(items) == 0 {
		if q := m.session.Query(); q != "" {
			return emptyStyle.Render(fmt.Sprintf("  (nothing matches %q)", q)) + "\n"
		}
		return emptyStyle.Render("  (no "+strings.ToLower(m.kind().Label())+")") + "\n"
	}

	start, end := window(len(items), m.cursor, max(3, m.height-chromeRows))
	titleWidth := max(20, m.width-30)

	var b strings.Builder
	for i := start; i < end; i++ {
		it := items[i]
		line := fmt.Sprintf("%s %s %s", checkbox(it.Included), itemKey(it), truncate(it.Title(), titleWidth))
		if author := it.Author(); author != "" {
			line += " (@" + author + ")"
		}
		for _, l := range it.Labels() {
			line += " " + labelStyle.Render(l)
		}

		switch {
		case i == m.cursor:
			b.WriteString(selectedItemStyle.Render("▸ " + line))
		case it.Included:
			b.WriteString(itemStyle.Render("  " + line))
		default:
			b.WriteString(excludedItemStyle.Render("  " + line))
		}
		b.WriteString("\n")
		if it.Note != "" {
			b.WriteString(noteStyle.Render("      > " + truncate(it.Note, titleWidth)))
			b.WriteString("\n")
		}
		if i == m.cursor && m.expanded {
			b.WriteString(renderBody(it, titleWidth))
		}
	}
	if len(items) > end-start {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(items))))
		b.WriteString("\n")
	}
	return b.String()
}

// Longest body shown when an item is expanded.
const maxBodyLines = 8

func renderBody(it release.Item, width int) string {
	body := strings.TrimSpace(strings.ReplaceAll(it.Body(), "\r\n", "\n"))
	if body == "" {
		return emptyStyle.Render("      (no description)") + "\n"
	}
	lines := strings.Split(body, "\n")
	more := 0
	if len(lines) > maxBodyLines {
		lines, more = lines[:maxBodyLines], len(lines)-maxBodyLines
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(bodyStyle.Render("      " + truncate(l, width)))
		b.WriteString("\n")
	}
	if more > 0 {
		b.WriteString(emptyStyle.Render(fmt.Sprintf("      (%d more lines)", more)))
		b.WriteString("\n")
	}
	return b.String()
}

func itemKey(it release.Item) string {
	if it.Kind == release.KindCommit {
		return it.ShortSHA()
	}
	return fmt.Sprintf("#%d", it.Number())
}

// window returns the [start, end) slice of n rows of height size that keeps
// cursor visible.
func window(n, cursor, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	start = max(0, min(start, n-size))
	return start, start + size
}

func truncate(s string, width int) string {
	s = release.FirstLine(s)
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "...")
	}
	return s
}

func renderHelp(m Model) string {
	switch m.mode {
	case modeNote:
		return "enter:save esc:cancel"
	case modeSearch:
		return "enter:done esc:clear"
	default:
		return "tab:kind j/k:move space:toggle a/n:all on/off e:note v:body /:search q:quit"
	}
}
