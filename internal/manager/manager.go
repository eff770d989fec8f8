// Package manager discovers, loads, and activates plugins. Every plugin
// boundary crossing runs guarded: a panic or error in one plugin is
// recorded as a diagnostic and never stops discovery, another plugin, or
// host startup.
package manager

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/campaign-forge/internal/forge"
	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
)

// State of one load attempt. Failed and Active are terminal until an
// explicit Reload.
type State string

const (
	StateDiscovered State = "discovered"
	StateLoading    State = "loading"
	StateActive     State = "active"
	StateFailed     State = "failed"
)

// Source is a candidate plugin origin: a named factory. Go hosts link
// plugins in-process, so discovery enumerates registered factories, the
// compiled analog of walking a plugin directory.
type Source struct {
	Name    string
	Factory func() (plugin.Plugin, error)
}

// Diagnostic records one plugin-origin failure. PluginID is empty when the
// failure happened before metadata could be read.
type Diagnostic struct {
	Source   string
	PluginID string
	Reason   string
}

// Status is one candidate's load outcome, surfaced to the UI so a failed
// plugin shows as unavailable with a reason instead of vanishing.
type Status struct {
	Source       string
	Meta         plugin.Meta
	State        State
	Reason       string
	Capabilities []plugin.Capability
	Gaps         []plugin.Capability // optional capabilities the plugin lacks
}

// Activation is a live plugin instance bound to a project.
type Activation struct {
	Plugin  plugin.Plugin
	Context *forge.Context
	Widget  plugin.Widget
}

// Manager owns the registry of successfully loaded plugins and the per
// candidate load state machine.
type Manager struct {
	sources     []Source
	statuses    map[string]*Status
	order       []string
	registry    *plugin.Registry
	active      map[string]*Activation
	diagnostics []Diagnostic
	logger      *slog.Logger
}

func New(logger *slog.Logger) *Manager {
	return &Manager{
		statuses: make(map[string]*Status),
		registry: plugin.NewRegistry(logger),
		active:   make(map[string]*Activation),
		logger:   logger,
	}
}

// AddSource registers a candidate for the next LoadAll.
func (m *Manager) AddSource(s Source) {
	m.sources = append(m.sources, s)
	m.statuses[s.Name] = &Status{Source: s.Name, State: StateDiscovered}
	m.order = append(m.order, s.Name)
}

// LoadAll runs the load state machine for every discovered source. It
// always returns; per-candidate failures end up in Diagnostics and in the
// candidate's Status.
func (m *Manager) LoadAll() {
	for _, s := range m.sources {
		m.loadOne(s)
	}
}

// Reload re-runs discovery for one source by name.
func (m *Manager) Reload(name string) error {
	for _, s := range m.sources {
		if s.Name == name {
			m.loadOne(s)
			return nil
		}
	}
	return fmt.Errorf("unknown plugin source %q", name)
}

func (m *Manager) loadOne(s Source) {
	status := m.statuses[s.Name]
	status.State = StateLoading
	status.Reason = ""

	p, err := guard(s.Name, func() (plugin.Plugin, error) {
		return s.Factory()
	})
	if err == nil && p == nil {
		err = fmt.Errorf("factory returned no plugin")
	}
	if err != nil {
		m.fail(status, "", err)
		return
	}

	meta, err := guard(s.Name, func() (plugin.Meta, error) {
		return p.Meta(), nil
	})
	if err != nil {
		m.fail(status, "", err)
		return
	}

	if err := m.registry.Register(p); err != nil {
		m.fail(status, meta.ID, err)
		return
	}

	// The registry keeps the last registration for a duplicate id; any
	// earlier source that held this id no longer backs a registry entry.
	for name, st := range m.statuses {
		if name == s.Name || st.State != StateActive || st.Meta.ID != meta.ID {
			continue
		}
		st.State = StateFailed
		st.Reason = fmt.Sprintf("superseded by %s (duplicate id %q)", s.Name, meta.ID)
	}

	status.Meta = meta
	status.State = StateActive
	status.Capabilities = plugin.CapabilitiesOf(p)
	status.Gaps = capabilityGaps(status.Capabilities)

	if len(status.Gaps) > 0 {
		m.logger.Info("Plugin loaded with capability gaps",
			"plugin_id", meta.ID, "gaps", status.Gaps)
	} else {
		m.logger.Info("Plugin loaded", "plugin_id", meta.ID, "version", meta.Version)
	}
}

func (m *Manager) fail(status *Status, pluginID string, err error) {
	status.State = StateFailed
	status.Reason = err.Error()
	m.diagnostics = append(m.diagnostics, Diagnostic{
		Source:   status.Source,
		PluginID: pluginID,
		Reason:   err.Error(),
	})
	m.logger.Warn("Plugin load failed",
		"source", status.Source, "plugin_id", pluginID, "error", err)
}

// ListAvailable returns every candidate's status in discovery order.
func (m *Manager) ListAvailable() []Status {
	out := make([]Status, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.statuses[name])
	}
	return out
}

// Registry exposes the live registry of loaded plugins.
func (m *Manager) Registry() *plugin.Registry {
	return m.registry
}

// Diagnostics returns all recorded load failures.
func (m *Manager) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), m.diagnostics...)
}

// Activate binds pluginID to proj: constructs a fresh Forge Context,
// restores persisted state when the plugin supports it, and creates the
// widget. Repeated activation returns the existing instance.
func (m *Manager) Activate(ctx context.Context, pluginID string, proj *project.Project) (*Activation, error) {
	if act, ok := m.active[pluginID]; ok {
		return act, nil
	}

	p := m.registry.Get(pluginID)
	if p == nil {
		return nil, fmt.Errorf("plugin %q is not loaded", pluginID)
	}

	fc := forge.NewContext(ctx, proj, pluginID, m.logger)

	if err := m.restoreState(p, fc); err != nil {
		// State problems degrade to a fresh start, they don't block
		// activation.
		m.logger.Warn("Plugin state restore failed, starting fresh",
			"plugin_id", pluginID, "error", err)
	}

	widget, err := guard(pluginID, func() (plugin.Widget, error) {
		return p.CreateWidget(fc)
	})
	if err != nil {
		m.fail(m.statusFor(pluginID), pluginID, fmt.Errorf("create widget: %w", err))
		return nil, fmt.Errorf("activate %s: %w", pluginID, err)
	}

	act := &Activation{Plugin: p, Context: fc, Widget: widget}
	m.active[pluginID] = act
	m.logger.Debug("Plugin activated", "plugin_id", pluginID)
	return act, nil
}

// Deactivate persists the plugin's state when supported and releases the
// instance.
func (m *Manager) Deactivate(pluginID string) error {
	act, ok := m.active[pluginID]
	if !ok {
		return nil
	}
	delete(m.active, pluginID)

	ser, ok := act.Plugin.(plugin.StateSerializer)
	if !ok {
		return nil
	}

	raw, err := guard(pluginID, ser.SerializeState)
	if err != nil {
		m.logger.Warn("Plugin state serialization failed, state not saved",
			"plugin_id", pluginID, "error", err)
		return nil
	}
	if raw == nil {
		return nil
	}
	return act.Context.SaveState(raw)
}

// DeactivateAll deactivates every live plugin, persisting state where
// supported. Called at shutdown; per-plugin save failures are logged and do
// not stop the sweep.
func (m *Manager) DeactivateAll() {
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	for _, id := range ids {
		if err := m.Deactivate(id); err != nil {
			m.logger.Warn("Plugin state save failed during shutdown",
				"plugin_id", id, "error", err)
		}
	}
}

// Active returns the live activation for pluginID, if any.
func (m *Manager) Active(pluginID string) (*Activation, bool) {
	act, ok := m.active[pluginID]
	return act, ok
}

func (m *Manager) restoreState(p plugin.Plugin, fc *forge.Context) error {
	ser, ok := p.(plugin.StateSerializer)
	if !ok {
		return nil
	}

	raw, err := fc.LoadState()
	if err != nil {
		// Covers both never-initialized and corrupt-surfaced-as-absent.
		return nil
	}

	_, err = guard(fc.PluginID(), func() (struct{}, error) {
		return struct{}{}, ser.LoadState(raw)
	})
	return err
}

func (m *Manager) statusFor(pluginID string) *Status {
	// Prefer the status backing the registry entry; a superseded duplicate
	// source carries the same id but is no longer active.
	var fallback *Status
	for _, st := range m.statuses {
		if st.Meta.ID != pluginID {
			continue
		}
		if st.State == StateActive {
			return st
		}
		if fallback == nil {
			fallback = st
		}
	}
	if fallback != nil {
		return fallback
	}
	// Activation of a plugin without a tracked source; synthesize one so
	// the diagnostic still lands somewhere visible.
	st := &Status{Source: pluginID, State: StateActive}
	m.statuses[pluginID] = st
	m.order = append(m.order, pluginID)
	return st
}

func capabilityGaps(have []plugin.Capability) []plugin.Capability {
	var gaps []plugin.Capability
	for _, c := range []plugin.Capability{plugin.CapState, plugin.CapExport} {
		found := false
		for _, h := range have {
			if h == c {
				found = true
				break
			}
		}
		if !found {
			gaps = append(gaps, c)
		}
	}
	return gaps
}

// guard runs fn with full failure capture: an error return or a panic both
// come back as a plain error, so untrusted plugin code can never unwind
// into host control flow.
func guard[T any](name string, fn func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("plugin %s panicked: %v", name, r)
		}
	}()
	return fn()
}
