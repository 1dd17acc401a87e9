// Package teatest drives bubbletea models synchronously in tests.
//
// Update is called directly and returned commands are run inline. Commands
// that block on timers (spinner frames, once-a-second ticks, channel reads)
// are abandoned after a short wait so tests stay deterministic.
package teatest

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDepth bounds how far a chain of commands is followed.
const maxDepth = 50

// cmdWait is how long a command may run before it is treated as a timer.
const cmdWait = 10 * time.Millisecond

// Driver stands in for tea.Program.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once the model returns tea.Quit.
	Quitting bool
}

func New(t *testing.T, model tea.Model) *Driver {
	t.Helper()
	return &Driver{T: t, Model: model}
}

// Init runs the model's Init command.
func (d *Driver) Init() {
	d.T.Helper()
	d.run(d.Model.Init(), 0)
}

// Send delivers msg to the model and runs whatever it returns.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	next, cmd := d.Model.Update(msg)
	d.Model = next
	d.run(cmd, 0)
}

// Resize sends a window size message.
func (d *Driver) Resize(w, h int) {
	d.T.Helper()
	d.Send(tea.WindowSizeMsg{Width: w, Height: h})
}

// PressKey sends a single rune key.
func (d *Driver) PressKey(r rune) {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
}

func (d *Driver) PressCtrlC() {
	d.T.Helper()
	d.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
}

func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) run(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.T.Logf("teatest: command chain deeper than %d, stopping", maxDepth)
		return
	}

	msg := runWithWait(cmd)
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range msg {
			d.run(sub, depth+1)
		}
	case tea.QuitMsg:
		d.Quitting = true
	default:
		next, nextCmd := d.Model.Update(msg)
		d.Model = next
		d.run(nextCmd, depth+1)
	}
}

func runWithWait(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(cmdWait):
		return nil
	}
}
