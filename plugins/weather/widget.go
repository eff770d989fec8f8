package weather

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	omenStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("13"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type widget struct {
	plugin *Plugin
	fc     plugin.Context
}

var _ plugin.Commander = (*widget)(nil)

func (w *widget) Title() string { return "Weather" }

// RunCommand handles "date <YYYY-MM-DD>", moving the outlook anchor.
func (w *widget) RunCommand(input string) (string, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	if verb != "date" {
		return "", fmt.Errorf("unknown weather command %q (try: date <YYYY-MM-DD>)", verb)
	}

	if err := w.plugin.SetLastDate(strings.TrimSpace(rest)); err != nil {
		return "", err
	}
	return "Outlook anchored at " + w.plugin.st.LastDate, nil
}

func (w *widget) View(width int) string {
	reports, err := w.plugin.Outlook(w.fc, w.plugin.st.LastDate, outlookDays)
	if err != nil {
		return dimStyle.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Outlook from %s", w.plugin.st.LastDate)))
	b.WriteString("\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "%s  %-14s %3d°C  %2d km/h\n", r.Date, r.Condition, r.TempC, r.WindKmh)
		if r.Omen != "" {
			b.WriteString(omenStyle.Render("            omen: " + r.Omen))
			b.WriteString("\n")
		}
	}
	return b.String()
}
