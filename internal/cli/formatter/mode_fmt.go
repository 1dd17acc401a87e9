package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/jobclock/internal/domain"
)

// FormatModeSettings lists every mode with the current one marked.
func FormatModeSettings(s domain.ModeSettings, perms domain.Permissions) string {
	var b strings.Builder
	for _, m := range domain.ValidModes {
		desc := domain.ModeDescriptions[m]
		marker := "  "
		title := StyleFg.Render(desc.Title)
		if m == s.Mode {
			marker = StyleGreen.Render("▸ ")
			title = Bold(desc.Title)
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, title, Dim("("+string(m)+")"))
		fmt.Fprintf(&b, "    %s\n", Dim(desc.Description))
		fmt.Fprintf(&b, "    %s %s   %s %s\n", Dim("Needs:"), desc.Permissions, Dim("Battery:"), desc.BatteryImpact)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %s\n", Dim("Location permission:"), permissionLabel(perms.Level))
	if s.UserChoice == domain.UserChoiceNotSelected {
		b.WriteString(StyleYellow.Render("No mode chosen yet, run `jobclock mode set`") + "\n")
	}
	return RenderBox("Location mode", b.String())
}

func permissionLabel(l domain.PermissionLevel) string {
	switch l {
	case domain.PermissionAlways:
		return StyleGreen.Render("always")
	case domain.PermissionForeground:
		return StyleBlue.Render("while in use")
	default:
		return StyleRed.Render("none")
	}
}
