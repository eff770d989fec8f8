package encounters

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

var (
	terrainStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type widget struct {
	plugin  *Plugin
	fc      plugin.Context
	terrain string
}

var _ plugin.ViewCycler = (*widget)(nil)

func (w *widget) Title() string { return "Encounters" }

func (w *widget) View(width int) string {
	table, err := w.plugin.Table(w.fc, w.terrain)
	if err != nil {
		return errStyle.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(terrainStyle.Render("Terrain: " + w.terrain))
	b.WriteString("\n")
	for _, e := range table {
		fmt.Fprintf(&b, "  %d  %-18s x%d  HP %-3d AC %d\n", e.Roll, e.Foe, e.Count, e.HP, e.AC)
	}
	return b.String()
}

// CycleView advances to the next terrain table.
func (w *widget) CycleView() {
	for i, t := range Terrains {
		if t == w.terrain {
			w.terrain = Terrains[(i+1)%len(Terrains)]
			return
		}
	}
	w.terrain = Terrains[0]
}
