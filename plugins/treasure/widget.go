package treasure

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

type widget struct {
	plugin *Plugin
	fc     plugin.Context
}

var _ plugin.Commander = (*widget)(nil)

func (w *widget) Title() string { return "Treasure Hoard" }

func (w *widget) View(width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Hoards rolled"))
	b.WriteString("\n")
	for _, tier := range Tiers {
		fmt.Fprintf(&b, "  %-10s %d\n", tier, w.plugin.st.Rolled[tier])
	}

	if w.plugin.last != nil {
		b.WriteString("\n")
		b.WriteString(wordwrap.String("Last: "+w.plugin.last.Summary(), max(20, width)))
		b.WriteString("\n")
	} else {
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("No hoards rolled this session."))
		b.WriteString("\n")
	}
	b.WriteString(faintStyle.Render(fmt.Sprintf("roll <%s>", strings.Join(Tiers, "|"))))
	b.WriteString("\n")
	return b.String()
}

// RunCommand handles "roll <tier>".
func (w *widget) RunCommand(input string) (string, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	if verb != "roll" {
		return "", fmt.Errorf("unknown treasure command %q (try: roll <%s>)", verb, strings.Join(Tiers, "|"))
	}

	h, err := w.plugin.RollNext(w.fc, strings.TrimSpace(rest))
	if err != nil {
		return "", err
	}
	return h.Summary(), nil
}
