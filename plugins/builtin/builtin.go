// Package builtin wires the in-repo generator plugins into the host's
// discovery contract. External shells add their own sources alongside.
package builtin

import (
	"github.com/jwebster45206/campaign-forge/internal/manager"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/plugins/encounters"
	"github.com/jwebster45206/campaign-forge/plugins/treasure"
	"github.com/jwebster45206/campaign-forge/plugins/weather"
)

// Sources returns a discovery candidate for every built-in plugin.
func Sources() []manager.Source {
	return []manager.Source{
		{Name: "builtin/weather", Factory: func() (plugin.Plugin, error) { return weather.New(), nil }},
		{Name: "builtin/treasure", Factory: func() (plugin.Plugin, error) { return treasure.New(), nil }},
		{Name: "builtin/encounters", Factory: func() (plugin.Plugin, error) { return encounters.New(), nil }},
	}
}
