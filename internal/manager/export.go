package manager

import (
	"context"

	"github.com/jwebster45206/campaign-forge/internal/exporter"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

// Contributors returns an export step for every active plugin that carries
// the export capability, each bound to that plugin's own Forge Context.
func (m *Manager) Contributors() []exporter.Contributor {
	var out []exporter.Contributor
	for _, st := range m.ListAvailable() {
		act, ok := m.active[st.Meta.ID]
		if !ok {
			continue
		}
		pe, ok := act.Plugin.(plugin.PackExporter)
		if !ok {
			continue
		}

		fc := act.Context
		out = append(out, exporter.Contributor{
			PluginID: st.Meta.ID,
			Export: func(ctx context.Context, dir string) error {
				return pe.ExportSessionPack(ctx, fc, dir)
			},
		})
	}
	return out
}
