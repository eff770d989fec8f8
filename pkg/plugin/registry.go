package plugin

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ReservedIDPrefix marks plugin ids the host keeps for itself. The
// scratchpad persists under one of these, so ordinary plugins cannot
// shadow it.
const ReservedIDPrefix = "_"

// Registry maps plugin ids to loaded plugins. It follows the host's
// single-threaded cooperative model and is not safe for concurrent use.
type Registry struct {
	plugins map[string]Plugin
	logger  *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  logger,
	}
}

// Register adds p under its meta id. Registering an id that is already
// present replaces the prior entry with a warning; discovery keeps moving
// either way. Reserved ids are rejected.
func (r *Registry) Register(p Plugin) error {
	meta := p.Meta()
	if meta.ID == "" {
		return fmt.Errorf("plugin has empty id (name %q)", meta.Name)
	}
	if strings.HasPrefix(meta.ID, ReservedIDPrefix) {
		return fmt.Errorf("plugin id %q uses reserved prefix %q", meta.ID, ReservedIDPrefix)
	}

	if prev, exists := r.plugins[meta.ID]; exists {
		r.logger.Warn("Duplicate plugin id, last registration wins",
			"plugin_id", meta.ID,
			"previous_version", prev.Meta().Version,
			"new_version", meta.Version)
	}

	r.plugins[meta.ID] = p
	return nil
}

// Get returns the plugin registered under id, or nil.
func (r *Registry) Get(id string) Plugin {
	return r.plugins[id]
}

// Remove drops the plugin registered under id, if any.
func (r *Registry) Remove(id string) {
	delete(r.plugins, id)
}

// List returns all registered plugins ordered by category then name.
func (r *Registry) List() []Plugin {
	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := out[i].Meta(), out[j].Meta()
		if mi.Category != mj.Category {
			return mi.Category < mj.Category
		}
		return mi.Name < mj.Name
	})
	return out
}
