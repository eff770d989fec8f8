package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore implements Store on a modules/ directory, one <plugin_id>.json
// per slot. Saves use write-to-temp-then-rename so a crash mid-write never
// leaves a half-written file visible under its final name.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the backing directory if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create module state dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (f *FileStore) Load(pluginID string) (json.RawMessage, error) {
	if err := validateID(pluginID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(pluginID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateAbsent
		}
		return nil, fmt.Errorf("read module state for %s: %w", pluginID, err)
	}

	if !json.Valid(data) {
		// The file stays in place for manual recovery; the plugin just
		// sees a fresh start.
		f.logger.Warn("Module state file is not valid JSON, treating as absent",
			"plugin_id", pluginID, "path", f.path(pluginID))
		return nil, ErrStateAbsent
	}

	return json.RawMessage(data), nil
}

func (f *FileStore) Save(pluginID string, raw json.RawMessage) error {
	if err := validateID(pluginID); err != nil {
		return err
	}
	if !json.Valid(raw) {
		return fmt.Errorf("module state for %s is not valid JSON", pluginID)
	}

	tmp, err := os.CreateTemp(f.dir, pluginID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file for %s: %w", pluginID, err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(raw)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write module state for %s: %w", pluginID, werr)
	}

	if err := os.Rename(tmpName, f.path(pluginID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace module state for %s: %w", pluginID, err)
	}
	return nil
}

func (f *FileStore) Delete(pluginID string) error {
	if err := validateID(pluginID); err != nil {
		return err
	}
	if err := os.Remove(f.path(pluginID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete module state for %s: %w", pluginID, err)
	}
	return nil
}

func (f *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read module state dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *FileStore) path(pluginID string) string {
	return filepath.Join(f.dir, pluginID+".json")
}

// validateID keeps state files inside the modules directory. Plugin ids are
// used as filenames, so anything path-like is refused outright.
func validateID(pluginID string) error {
	if pluginID == "" {
		return fmt.Errorf("empty plugin id")
	}
	if strings.ContainsAny(pluginID, `/\`) || strings.Contains(pluginID, "..") {
		return fmt.Errorf("plugin id %q is not a valid state key", pluginID)
	}
	return nil
}
