package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// HumanDate renders a YYYY-MM-DD work date relative to now.
func HumanDate(date string, now time.Time) string {
	d, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return date
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, now.Location())
	switch int(math.Round(today.Sub(d).Hours() / 24)) {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	}
	return d.Format("Mon Jan 2")
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatHours renders decimal hours as "4h 30m".
func FormatHours(h float64) string {
	total := int(math.Round(h * 60))
	if total <= 0 {
		return "0m"
	}
	hh, mm := total/60, total%60
	switch {
	case hh > 0 && mm > 0:
		return fmt.Sprintf("%dh %dm", hh, mm)
	case hh > 0:
		return fmt.Sprintf("%dh", hh)
	}
	return fmt.Sprintf("%dm", mm)
}

// FormatElapsed renders seconds as h:mm:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// Truncate shortens s to n visible runes with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}
