// Package store persists per-plugin module state as JSON files inside a
// project's modules/ directory.
package store

import (
	"encoding/json"
	"errors"
)

// ErrStateAbsent is returned by Load when a plugin has no persisted state.
// It is distinct from an empty JSON object, so plugins can tell "never
// initialized" from "initialized to empty". Corrupt state is also surfaced
// as absent, after a logged warning, so a bad file can never crash the host.
var ErrStateAbsent = errors.New("module state absent")

// Store is the module state persistence contract: one opaque JSON value per
// plugin id, atomically replaced on every save.
type Store interface {
	// Load returns the persisted state for pluginID, or ErrStateAbsent.
	Load(pluginID string) (json.RawMessage, error)

	// Save atomically replaces the persisted state for pluginID. On failure
	// the previous value is left intact.
	Save(pluginID string, raw json.RawMessage) error

	// Delete removes the persisted state for pluginID. Deleting absent
	// state is not an error.
	Delete(pluginID string) error

	// List returns the plugin ids that currently have persisted state.
	List() ([]string, error)
}
