package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/marcin-skalski/relnotes/internal/release"
)

const dateLayout = "January 2, 2006"

// ToMarkdown renders e as a Markdown document. Sections without items are
// omitted.
func ToMarkdown(e Release) string {
	var b strings.Builder

	title := e.Title
	if title == "" {
		title = "Release " + e.Version
	}
	version := e.Version
	if version == "" {
		version = "Unreleased"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Version:** %s\n", version)
	fmt.Fprintf(&b, "**Date:** %s\n\n", e.Date.Format(dateLayout))

	if e.Description != "" {
		b.WriteString(e.Description)
		b.WriteString("\n\n")
	}

	writeChanges(&b, "Pull Requests", e.PullRequests)
	writeChanges(&b, "Issues Fixed", e.Issues)

	if len(e.Commits) > 0 {
		b.WriteString("## Commits\n\n")
		for _, c := range e.Commits {
			fmt.Fprintf(&b, "- [`%s`](%s) %s (@%s)\n", release.ShortSHA(c.SHA), c.URL, c.Message, c.Author)
			writeNote(&b, c.Note)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Generated from [%s/%s](%s)*\n", e.Repository.Owner, e.Repository.Name, e.Repository.URL)
	return b.String()
}

func writeChanges(b *strings.Builder, heading string, changes []Change) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, c := range changes {
		fmt.Fprintf(b, "- [#%d](%s) %s (@%s)", c.Number, c.URL, c.Title, c.Author)
		for _, l := range c.Labels {
			fmt.Fprintf(b, " `%s`", l)
		}
		b.WriteString("\n")
		writeNote(b, c.Note)
	}
	b.WriteString("\n")
}

func writeNote(b *strings.Builder, note string) {
	if note == "" {
		return
	}
	fmt.Fprintf(b, "  > %s\n", note)
}

// Summary is the plain prose digest embedded in the JSON document.
func Summary(e Release) string {
	var parts []string
	if e.Description != "" {
		parts = append(parts, e.Description, "")
	}
	if len(e.PullRequests) > 0 {
		parts = append(parts, "## Pull Requests", "")
		for _, c := range e.PullRequests {
			parts = append(parts, fmt.Sprintf("- %s (#%d)%s", c.Title, c.Number, noteSuffix(c.Note)))
		}
		parts = append(parts, "")
	}
	if len(e.Issues) > 0 {
		parts = append(parts, "## Issues Fixed", "")
		for _, c := range e.Issues {
			parts = append(parts, fmt.Sprintf("- %s (#%d)%s", c.Title, c.Number, noteSuffix(c.Note)))
		}
		parts = append(parts, "")
	}
	if len(e.Commits) > 0 {
		parts = append(parts, "## Commits", "")
		for _, c := range e.Commits {
			parts = append(parts, fmt.Sprintf("- %s (%s)%s", c.Message, release.ShortSHA(c.SHA), noteSuffix(c.Note)))
		}
	}
	return strings.Join(parts, "\n")
}

func noteSuffix(note string) string {
	if note == "" {
		return ""
	}
	return " - " + note
}

// JSON renders e as an indented JSON document.
func JSON(e Release) ([]byte, error) {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return append(data, '\n'), nil
}
