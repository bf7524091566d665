package tui

import (
	"testing"
	"time"

	"github.com/bastiangx/addrcomplete/pkg/widget"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// peekMsg asks the running program for the snapshot its model holds.
type peekMsg struct {
	reply chan widget.State
}

// peekModel answers peekMsg and otherwise behaves like Model.
type peekModel struct {
	*Model
}

func (pm peekModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if peek, ok := msg.(peekMsg); ok {
		peek.reply <- pm.Model.state
		return pm, nil
	}
	_, cmd := pm.Model.Update(msg)
	return pm, cmd
}

type liveProgram struct {
	t       *testing.T
	program *tea.Program
	widget  *widget.Widget
	done    chan tea.Model
}

// startProgram wires the widget into a real program the same way Run does.
func startProgram(t *testing.T) *liveProgram {
	t.Helper()
	var ref programRef
	w, err := widget.New(widget.Options{
		Page:     page,
		Source:   stubSource{},
		Debounce: 10 * time.Millisecond,
		Width:    1200,
		OnChange: ref.send,
	})
	require.NoError(t, err)

	p := tea.NewProgram(peekModel{NewModel(w, 8)}, tea.WithInput(nil), tea.WithoutRenderer())
	ref.p.Store(p)

	lp := &liveProgram{t: t, program: p, widget: w, done: make(chan tea.Model, 1)}
	go func() {
		final, _ := p.Run()
		lp.done <- final
	}()
	t.Cleanup(func() {
		p.Quit()
		select {
		case <-lp.done:
		case <-time.After(2 * time.Second):
			t.Error("program did not exit")
		}
		w.Close()
	})
	return lp
}

// snapshot returns the model's state, or false if the event loop does not
// answer in time.
func (lp *liveProgram) snapshot() (widget.State, bool) {
	reply := make(chan widget.State, 1)
	go lp.program.Send(peekMsg{reply: reply})
	select {
	case s := <-reply:
		return s, true
	case <-time.After(2 * time.Second):
		return widget.State{}, false
	}
}

func (lp *liveProgram) peek() widget.State {
	lp.t.Helper()
	s, ok := lp.snapshot()
	if !ok {
		lp.t.Fatal("event loop stopped handling messages")
	}
	return s
}

func (lp *liveProgram) typeAndWait(text string) {
	lp.t.Helper()
	lp.program.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	require.Eventually(lp.t, func() bool {
		s, ok := lp.snapshot()
		return ok && s.Visible && len(s.Entries) == 2
	}, 3*time.Second, 5*time.Millisecond)
}

func TestProgramEnterSelectsAndHidesList(t *testing.T) {
	lp := startProgram(t)
	lp.typeAndWait("main")

	lp.program.Send(tea.KeyMsg{Type: tea.KeyEnter})

	state := lp.peek()
	assert.False(t, state.Visible)
	assert.Equal(t, "123 Main St, Springfield, IL, USA", state.Input)
	assert.Equal(t, 0, state.Offset)

	// still responsive after the selection
	lp.program.Send(tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, lp.peek().Visible)
	assert.Equal(t, "123 Main St, Springfield, IL, USA", lp.widget.State().Input)
}

func TestProgramClickSelectsRow(t *testing.T) {
	lp := startProgram(t)
	lp.typeAndWait("main")

	// margin, heading, margin, description, blank, input, border
	top := 7
	lp.program.Send(tea.MouseMsg{X: 3, Y: top + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})

	state := lp.peek()
	assert.False(t, state.Visible)
	assert.Equal(t, "Main St, CA, USA", state.Input)
}

func TestProgramEscHidesList(t *testing.T) {
	lp := startProgram(t)
	lp.typeAndWait("main")

	lp.program.Send(tea.KeyMsg{Type: tea.KeyEsc})

	state := lp.peek()
	assert.False(t, state.Visible)
	assert.Equal(t, "main", state.Input)
	assert.Equal(t, 0, state.Offset)

	// typing again brings the list back
	lp.typeAndWait(" st")
	assert.Equal(t, "main st", lp.widget.State().Input)
}

func TestProgramFinalModelMatchesWidget(t *testing.T) {
	lp := startProgram(t)
	lp.typeAndWait("main")
	lp.program.Send(tea.KeyMsg{Type: tea.KeyEnter})
	lp.peek()

	lp.program.Quit()
	var final tea.Model
	select {
	case final = <-lp.done:
	case <-time.After(2 * time.Second):
		t.Fatal("program did not exit")
	}
	lp.done <- final

	m := final.(peekModel).Model
	assert.Equal(t, "123 Main St, Springfield, IL, USA", m.input.Value())
	assert.False(t, m.dropdownShown())
}
