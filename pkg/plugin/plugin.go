// Package plugin defines the contract between the Campaign Forge host and
// independently-authored content generators.
package plugin

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jwebster45206/campaign-forge/pkg/seed"
)

// Meta is the static descriptor for a plugin. Immutable after discovery.
type Meta struct {
	ID          string `json:"plugin_id"` // stable id, e.g. "weather"
	Name        string `json:"name"`      // display name, e.g. "Weather"
	Version     string `json:"version"`   // semantic version string
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"` // free-text grouping, e.g. "Maps"
}

// Capability names a host feature a plugin opts into by implementing the
// matching interface. Capabilities are fixed at registration time; the host
// never re-checks them at call sites.
type Capability string

const (
	CapWidget Capability = "create_widget"
	CapState  Capability = "serialize_state"
	CapExport Capability = "export_session_pack"
)

// Context is the capability bundle the host hands a plugin instance. All
// operations are scoped to the owning (project, plugin) pair; a plugin can
// never reach another plugin's state through it.
type Context interface {
	// DeriveRNG returns the deterministic stream for
	// [plugin_id, purpose, extra...] under the project's master seed.
	// Request sub-streams per logical unit (per day, per room) instead of
	// drawing many values from one stream.
	DeriveRNG(purpose string, extra ...string) *seed.Stream

	// Log writes to the host log, scoped with the plugin id.
	Log(level slog.Level, msg string, args ...any)

	// ScratchpadAdd appends a note to the project's shared scratchpad.
	ScratchpadAdd(text string, tags []string) error

	// LoadState returns this plugin's persisted state for the open project,
	// or store.ErrStateAbsent if it was never saved.
	LoadState() (json.RawMessage, error)

	// SaveState atomically replaces this plugin's persisted state.
	SaveState(raw json.RawMessage) error

	// Context carries the cooperative cancellation signal for long work.
	Context() context.Context
}

// Plugin is the minimal interface every generator implements.
type Plugin interface {
	Meta() Meta

	// CreateWidget builds the plugin's interactive surface. Called lazily,
	// on first activation for a project, never at discovery time.
	CreateWidget(ctx Context) (Widget, error)
}

// Widget is a renderer-agnostic handle to a plugin's surface. The console
// front-end renders View into a viewport; other shells may wrap it.
type Widget interface {
	Title() string
	View(width int) string
}

// ViewCycler is an optional Widget extension for widgets with more than one
// page of content. The console binds it to a key.
type ViewCycler interface {
	CycleView()
}

// Commander is an optional Widget extension for widgets that take text
// commands from the shell, the way a mutating generator exposes its
// operations (rolling a hoard, moving a date anchor). RunCommand returns a
// one-line result for the shell to display.
type Commander interface {
	RunCommand(input string) (string, error)
}

// StateSerializer is the optional persistence capability. Plugins without it
// simply lose their in-session data when deactivated, which the host reports
// as a capability gap rather than an error.
type StateSerializer interface {
	SerializeState() (json.RawMessage, error)
	LoadState(raw json.RawMessage) error
}

// PackExporter is the optional export capability. ExportSessionPack writes
// the plugin's artifact files beneath dir; the host guarantees dir exists
// and is unique to one export invocation.
type PackExporter interface {
	ExportSessionPack(ctx context.Context, fc Context, dir string) error
}

// CapabilitiesOf reports the capability set of p, derived from interface
// satisfaction.
func CapabilitiesOf(p Plugin) []Capability {
	caps := []Capability{CapWidget}
	if _, ok := p.(StateSerializer); ok {
		caps = append(caps, CapState)
	}
	if _, ok := p.(PackExporter); ok {
		caps = append(caps, CapExport)
	}
	return caps
}
