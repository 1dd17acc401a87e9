package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/jobclock/internal/cli/formatter"
	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type statusMsg domain.AutoTimerStatus

type statusClosedMsg struct{}

type elapsedTickMsg time.Time

type trackKeyMap struct {
	Quit key.Binding
}

func defaultTrackKeys() trackKeyMap {
	return trackKeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// trackModel follows the engine's status stream while the track command runs.
type trackModel struct {
	statuses <-chan domain.AutoTimerStatus
	elapsed  func() int
	source   string

	status      domain.AutoTimerStatus
	haveStatus  bool
	elapsedSecs int

	spinner  spinner.Model
	keys     trackKeyMap
	width    int
	quitting bool
}

func newTrackModel(initial domain.AutoTimerStatus, statuses <-chan domain.AutoTimerStatus, elapsed func() int, source string) trackModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = formatter.StyleHeader
	return trackModel{
		status:     initial,
		haveStatus: true,
		statuses:   statuses,
		elapsed:    elapsed,
		source:     source,
		spinner:    sp,
		keys:       defaultTrackKeys(),
	}
}

func (m trackModel) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), m.spinner.Tick, elapsedTick())
}

func (m trackModel) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-m.statuses
		if !ok {
			return statusClosedMsg{}
		}
		return statusMsg(st)
	}
}

func elapsedTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return elapsedTickMsg(t) })
}

func (m trackModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case statusMsg:
		m.status = domain.AutoTimerStatus(msg)
		m.haveStatus = true
		m.refreshElapsed()
		return m, m.waitForStatus()
	case statusClosedMsg:
		m.quitting = true
		return m, tea.Quit
	case elapsedTickMsg:
		m.refreshElapsed()
		return m, elapsedTick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *trackModel) refreshElapsed() {
	if m.elapsed != nil {
		m.elapsedSecs = m.elapsed()
	}
}

func (m trackModel) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	if !m.haveStatus {
		fmt.Fprintf(&b, "%s Waiting for engine status...\n", m.spinner.View())
	} else {
		st := m.status
		fmt.Fprintf(&b, "%s %s  %s\n", m.spinner.View(), formatter.StateIndicator(st.State), domain.HumanMessage(st))
		if st.State == domain.StateEntering || st.State == domain.StateLeaving {
			fmt.Fprintf(&b, "  %s\n", formatter.RenderCountdown(st.RemainingSeconds, st.TotalDelaySeconds, countdownBarWidth(m.width)))
		}
		if st.State == domain.StateActive || st.State == domain.StateManual {
			fmt.Fprintf(&b, "  %s %s\n", formatter.Dim("Elapsed:"), formatter.StylePurple.Render(formatter.FormatElapsed(m.elapsedSecs)))
		}
	}
	if m.source != "" {
		fmt.Fprintf(&b, "\n%s\n", formatter.Dim("Feed: "+m.source))
	}
	fmt.Fprintf(&b, "%s\n", formatter.Dim(m.keys.Quit.Help().Key+" "+m.keys.Quit.Help().Desc))
	return b.String()
}

func countdownBarWidth(termWidth int) int {
	if termWidth <= 0 {
		return 20
	}
	return min(max(termWidth-16, 10), 40)
}
