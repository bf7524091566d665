// Package tui is the full-screen front end: a single address field with a
// dropdown of suggestions under it.
package tui

import (
	"strings"
	"sync/atomic"

	"github.com/bastiangx/addrcomplete/pkg/widget"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

// StateMsg carries a widget snapshot into the program loop.
type StateMsg widget.State

// Model is the bubbletea model around a widget.Widget.
type Model struct {
	widget    *widget.Widget
	input     textinput.Model
	state     widget.State
	cursor    int
	width     int
	height    int
	cellWidth int
}

// NewModel builds a model for w. cellWidth converts terminal columns to the
// logical pixels the widget layout works in.
func NewModel(w *widget.Widget, cellWidth int) *Model {
	if cellWidth < 1 {
		cellWidth = 1
	}

	ti := textinput.New()
	ti.Placeholder = "Street address"
	ti.Prompt = "› "
	ti.CharLimit = 200
	ti.Width = 60
	ti.Focus()

	return &Model{
		widget:    w,
		input:     ti,
		state:     w.State(),
		cellWidth: cellWidth,
	}
}

// programRef forwards widget snapshots into a running program.
type programRef struct {
	p atomic.Pointer[tea.Program]
}

// send never blocks the caller: the widget publishes from inside Update on
// selection and dismiss, and Program.Send waits for that same loop.
func (r *programRef) send(s widget.State) {
	if p := r.p.Load(); p != nil {
		go p.Send(StateMsg(s))
	}
}

// Run mounts a widget built from opts in a bubbletea program and blocks until
// the user quits. The widget is closed before Run returns.
func Run(opts widget.Options, cellWidth int, programOpts ...tea.ProgramOption) error {
	var ref programRef
	opts.OnChange = ref.send

	w, err := widget.New(opts)
	if err != nil {
		return err
	}
	defer w.Close()

	programOpts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithMouseCellMotion()}, programOpts...)
	p := tea.NewProgram(NewModel(w, cellWidth), programOpts...)
	ref.p.Store(p)

	_, err = p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.widget.Resize(msg.Width * m.cellWidth)
		if w := msg.Width - 4; w > 10 {
			m.input.Width = w
		}
		return m, nil

	case StateMsg:
		// snapshots are sent from several goroutines and may arrive out of order
		if msg.Rev < m.state.Rev {
			return m, nil
		}
		m.state = widget.State(msg)
		if m.cursor >= len(m.state.Entries) {
			m.cursor = 0
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.click(msg.Y)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.dropdownShown() && m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.dropdownShown() && m.cursor < len(m.state.Entries)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if m.dropdownShown() {
				m.choose(m.cursor)
			}
			return m, nil
		case "esc":
			m.widget.Dismiss()
			m.state = m.widget.State()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.widget.SetInput(after)
	}
	return m, cmd
}

// choose fills the field with row index.
func (m *Model) choose(index int) {
	if index < 0 || index >= len(m.state.Entries) {
		return
	}
	text := m.state.Entries[index].Text
	if m.widget.Select(index) {
		m.input.SetValue(text)
		m.input.CursorEnd()
		m.cursor = 0
		m.state = m.widget.State()
	}
}

// click maps a screen row to a dropdown row. Clicks on the dropdown border
// or padding do nothing.
func (m *Model) click(y int) {
	if !m.dropdownShown() {
		return
	}
	m.choose(y - m.entriesTop())
}

func (m *Model) dropdownShown() bool {
	return m.state.Visible && len(m.state.Entries) > 0
}

func (m *Model) statusLines() []string {
	page := m.widget.Page()
	var lines []string
	if page.Success != "" {
		lines = append(lines, successStyle.Render(page.Success))
	}
	if page.Error != "" {
		lines = append(lines, errorStyle.Render(page.Error))
	}
	return lines
}

// entriesTop is the screen row of the first dropdown entry: the header
// block, the input line and the dropdown's top border.
func (m *Model) entriesTop() int {
	margin := m.state.HeadingMargin
	return 2*margin + 2 + len(m.statusLines()) + 1 + 1 + 1
}

func (m *Model) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	return runewidth.Truncate(s, m.width, "…")
}

func (m *Model) View() string {
	page := m.widget.Page()
	margin := strings.Repeat("\n", m.state.HeadingMargin)

	var b strings.Builder
	b.WriteString(margin)
	b.WriteString(headingStyle.Render(m.fit(page.Heading)))
	b.WriteString("\n")
	b.WriteString(margin)
	b.WriteString(descriptionStyle.Render(m.fit(page.Description)))
	b.WriteString("\n")
	for _, line := range m.statusLines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.dropdownShown() {
		rows := make([]string, len(m.state.Entries))
		for i, e := range m.state.Entries {
			text := e.Text
			if m.width > 8 {
				text = runewidth.Truncate(text, m.width-6, "…")
			}
			if i == m.cursor {
				rows[i] = selectedChoiceStyle.Render(text)
			} else {
				rows[i] = choiceStyle.Render(text)
			}
		}
		b.WriteString(dropdownStyle.Render(strings.Join(rows, "\n")))
		b.WriteString("\n")
	}

	if m.state.Unavailable {
		b.WriteString(noticeStyle.Render("Address suggestions are unavailable right now."))
		b.WriteString("\n")
	}

	if m.state.Offset == 0 {
		b.WriteString("\n")
		for _, line := range footerArt {
			b.WriteString(footerStyle.Render(m.fit(line)))
			b.WriteString("\n")
		}
	}
	return b.String()
}
