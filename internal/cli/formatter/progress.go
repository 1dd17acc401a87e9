package formatter

import (
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderCountdown renders how far a pending start or stop has progressed,
// e.g. [████░░░░] 1:35. The bar fills as the delay runs down.
func RenderCountdown(remaining, total, width int) string {
	if width < 2 {
		width = 2
	}
	pct := 1.0
	if total > 0 {
		pct = 1 - float64(remaining)/float64(total)
	}
	pct = min(max(pct, 0), 1)

	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)
	return "[" + StyleYellow.Render(bar) + "] " + domain.FormatCountdown(remaining)
}
