package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
)

const countdownWidth = 20

// StatusView is everything the status box shows.
type StatusView struct {
	Status         domain.AutoTimerStatus
	Mode           domain.ModeSettings
	Session        *domain.ActiveSession
	SessionJob     string
	ElapsedSeconds int
}

// FormatStatus renders the AutoTimer state, any countdown and the running
// session.
func FormatStatus(v StatusView) string {
	var b strings.Builder
	st := v.Status

	fmt.Fprintf(&b, "%s  %s\n", StateIndicator(st.State), StyleFg.Render(domain.HumanMessage(st)))
	if st.JobName != "" {
		fmt.Fprintf(&b, "%s %s\n", Dim("Monitoring:"), Bold(st.JobName))
	}
	if st.State == domain.StateEntering || st.State == domain.StateLeaving {
		fmt.Fprintf(&b, "%s\n", RenderCountdown(st.RemainingSeconds, st.TotalDelaySeconds, countdownWidth))
	}

	b.WriteString("\n")
	if v.Session == nil {
		b.WriteString(Dim("No session running") + "\n")
	} else {
		state := StyleGreen.Render("running")
		if v.Session.IsPaused {
			state = StyleYellow.Render("paused")
		}
		source := "manual"
		if v.Session.IsAuto() {
			source = "auto"
		}
		fmt.Fprintf(&b, "%s %s  %s  %s %s\n",
			Dim("Session:"), Bold(v.SessionJob), state,
			StylePurple.Render(FormatElapsed(v.ElapsedSeconds)), Dim("("+source+")"))
	}

	fmt.Fprintf(&b, "%s %s\n", Dim("Mode:"), ModeLabel(v.Mode.Mode))
	return RenderBox("AutoTimer", b.String())
}

// ModeLabel renders a mode with its short title.
func ModeLabel(m domain.Mode) string {
	desc, ok := domain.ModeDescriptions[m]
	if !ok {
		return StyleDim.Render(string(m))
	}
	return StyleBlue.Render(string(m)) + Dim(" ("+desc.Title+")")
}
