// Package forge provides the capability bundle handed to each plugin
// instance. Every operation is bound to one (project, plugin) pair; the
// context is the only door a plugin has into shared services, so ownership
// stays explicit and cross-plugin access is impossible by construction.
package forge

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/pkg/scratchpad"
	"github.com/jwebster45206/campaign-forge/pkg/seed"
)

// Context implements plugin.Context for one plugin activation. Its lifetime
// equals the plugin instance's active lifetime in the running process; it is
// never persisted.
type Context struct {
	ctx      context.Context
	project  *project.Project
	pluginID string
	logger   *slog.Logger
}

var _ plugin.Context = (*Context)(nil)

// NewContext binds a fresh capability bundle for pluginID in proj. The
// supplied ctx carries the cooperative cancellation signal for long plugin
// work; the host never forcibly terminates plugin code.
func NewContext(ctx context.Context, proj *project.Project, pluginID string, logger *slog.Logger) *Context {
	return &Context{
		ctx:      ctx,
		project:  proj,
		pluginID: pluginID,
		logger:   logger.With("plugin", pluginID),
	}
}

// DeriveRNG returns the stream for [plugin_id, purpose, extra...] under the
// project's master seed. The plugin id prefix keeps two plugins asking for
// the same purpose on independent streams.
func (c *Context) DeriveRNG(purpose string, extra ...string) *seed.Stream {
	path := make([]string, 0, 2+len(extra))
	path = append(path, c.pluginID, purpose)
	path = append(path, extra...)
	return c.project.Derive(path...)
}

// Log writes to the host log, scoped with the plugin id.
func (c *Context) Log(level slog.Level, msg string, args ...any) {
	c.logger.Log(c.ctx, level, msg, args...)
}

// ScratchpadAdd appends a note to the shared scratchpad, stamped with this
// plugin's id, and persists the pad.
func (c *Context) ScratchpadAdd(text string, tags []string) error {
	c.project.Pad().Add(scratchpad.Entry{
		Text:           text,
		Tags:           tags,
		SourcePluginID: c.pluginID,
	})
	return c.project.SavePad()
}

// LoadState returns this plugin's persisted state, or store.ErrStateAbsent.
func (c *Context) LoadState() (json.RawMessage, error) {
	return c.project.Store().Load(c.pluginID)
}

// SaveState atomically replaces this plugin's persisted state.
func (c *Context) SaveState(raw json.RawMessage) error {
	return c.project.Store().Save(c.pluginID, raw)
}

// Context returns the cancellation signal for cooperative long-running work.
func (c *Context) Context() context.Context {
	return c.ctx
}

// PluginID returns the id this context is bound to.
func (c *Context) PluginID() string {
	return c.pluginID
}
