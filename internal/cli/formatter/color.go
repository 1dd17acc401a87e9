package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StateColor returns the style used for an engine state.
func StateColor(s domain.TimerState) lipgloss.Style {
	switch s {
	case domain.StateActive:
		return StyleGreen
	case domain.StateEntering, domain.StateLeaving:
		return StyleYellow
	case domain.StateManual:
		return StyleBlue
	default:
		return StyleDim
	}
}

// StateIndicator renders a state as a coloured pill such as "● ACTIVE".
func StateIndicator(s domain.TimerState) string {
	glyph := "●"
	switch s {
	case domain.StateEntering:
		glyph = "▶"
	case domain.StateLeaving:
		glyph = "◀"
	case domain.StateManual:
		glyph = "✋"
	case domain.StateInactive, "":
		glyph = "○"
		s = domain.StateInactive
	}
	return StateColor(s).Render(glyph + " " + strings.ToUpper(string(s)))
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}

// OnOff renders a boolean setting.
func OnOff(on bool) string {
	if on {
		return StyleGreen.Render("on")
	}
	return StyleDim.Render("off")
}
