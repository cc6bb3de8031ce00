package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcin-skalski/relnotes/internal/draft"
	"github.com/marcin-skalski/relnotes/internal/release"
)

// Session is the review state the screen edits. *workspace.Workspace
// implements it.
type Session interface {
	Owner() string
	Name() string
	Draft() (draft.Draft, bool)
	Items(kind release.ItemKind) []release.Item
	Search(query string)
	Query() string
	UpdateItem(ctx context.Context, itemID string, u draft.ItemUpdate) (release.Item, error)
	SetAll(ctx context.Context, kind release.ItemKind, included bool) (int, error)
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeNote
	modeSearch
)

type Model struct {
	ctx     context.Context
	session Session

	tab    int // index into release.Kinds
	cursor int
	mode   inputMode
	input  textinput.Model
	editID string
	// expanded shows the full body of the item under the cursor.
	expanded bool

	status    string
	statusErr bool
	width     int
	height    int
}

func NewModel(ctx context.Context, session Session) Model {
	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60
	return Model{
		ctx:     ctx,
		session: session,
		input:   input,
		height:  24,
		width:   100,
	}
}

// Run shows the review screen until the user quits.
func Run(ctx context.Context, session Session) error {
	p := tea.NewProgram(NewModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run review screen: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) kind() release.ItemKind {
	return release.Kinds[m.tab]
}

func (m Model) visible() []release.Item {
	return m.session.Items(m.kind())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeNote:
			return m.updateNote(msg)
		case modeSearch:
			return m.updateSearch(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.visible()
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "right", "l":
		m.tab = (m.tab + 1) % len(release.Kinds)
		m.cursor = 0
	case "shift+tab", "left", "h":
		m.tab = (m.tab + len(release.Kinds) - 1) % len(release.Kinds)
		m.cursor = 0
	case "1", "2", "3":
		m.tab = int(msg.String()[0] - '1')
		m.cursor = 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(0, len(items)-1)
	case " ", "x":
		if m.cursor < len(items) {
			included := !items[m.cursor].Included
			if _, err := m.session.UpdateItem(m.ctx, items[m.cursor].ID, draft.ItemUpdate{Included: &included}); err != nil {
				m.setError(err)
			} else {
				m.status = ""
			}
		}
	case "a", "n":
		included := msg.String() == "a"
		changed, err := m.session.SetAll(m.ctx, m.kind(), included)
		if err != nil {
			m.setError(err)
			break
		}
		verb := "excluded"
		if included {
			verb = "included"
		}
		m.setStatus(fmt.Sprintf("%s %d %s", verb, changed, m.kind().Label()))
	case "e", "enter":
		if m.cursor < len(items) {
			m.mode = modeNote
			m.editID = items[m.cursor].ID
			m.input.Placeholder = "release note"
			m.input.SetValue(items[m.cursor].Note)
			m.input.CursorEnd()
			return m, m.input.Focus()
		}
	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "search title, author, number"
		m.input.SetValue(m.session.Query())
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "v":
		m.expanded = !m.expanded
	case "esc":
		if m.session.Query() != "" {
			m.session.Search("")
			m.cursor = 0
		}
	}
	return m, nil
}

func (m Model) updateNote(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		note := m.input.Value()
		if _, err := m.session.UpdateItem(m.ctx, m.editID, draft.ItemUpdate{Note: &note}); err != nil {
			m.setError(err)
		} else {
			m.setStatus("note saved")
		}
		m.endInput()
		return m, nil
	case "esc", "ctrl+c":
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.endInput()
		return m, nil
	case "esc", "ctrl+c":
		m.session.Search("")
		m.cursor = 0
		m.endInput()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.session.Search(m.input.Value())
	m.cursor = 0
	return m, cmd
}

func (m *Model) endInput() {
	m.mode = modeBrowse
	m.editID = ""
	m.input.Blur()
	m.input.SetValue("")
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m Model) View() string {
	return renderView(m)
}
