// Package project is the aggregate root for one campaign: master seed,
// settings, per-plugin module state, and the shared scratchpad, all rooted
// at one directory on disk.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/campaign-forge/internal/store"
	"github.com/jwebster45206/campaign-forge/pkg/scratchpad"
	"github.com/jwebster45206/campaign-forge/pkg/seed"
)

const (
	// MetadataFile sits at the project root and marks a directory as a
	// project.
	MetadataFile = "project.json"

	// SchemaVersion of the metadata file format.
	SchemaVersion = 1
)

var (
	ErrProjectExists   = errors.New("project already exists")
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectCorrupt  = errors.New("project metadata unparseable")
)

// Metadata is the persisted project file. It round-trips exactly through
// load/save; MasterSeed never changes after creation, since every derived
// stream hangs off it.
type Metadata struct {
	SchemaVersion int            `json:"schema_version"`
	MasterSeed    uint64         `json:"master_seed"`
	Settings      map[string]any `json:"settings"`
}

// Project is an open campaign directory.
type Project struct {
	root   string
	meta   Metadata
	store  store.Store
	pad    *scratchpad.Pad
	logger *slog.Logger
}

// Create initializes a new project at root. It fails with ErrProjectExists
// if root already holds project metadata, writing nothing in that case.
// A masterSeed of zero means "mint one from crypto/rand".
func Create(root string, masterSeed uint64, settings map[string]any, logger *slog.Logger) (*Project, error) {
	if _, err := os.Stat(filepath.Join(root, MetadataFile)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectExists, root)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat project metadata: %w", err)
	}

	if masterSeed == 0 {
		minted, err := seed.NewMasterSeed()
		if err != nil {
			return nil, err
		}
		masterSeed = minted
	}
	if settings == nil {
		settings = map[string]any{}
	}

	meta := Metadata{
		SchemaVersion: SchemaVersion,
		MasterSeed:    masterSeed,
		Settings:      settings,
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	if err := writeMetadata(root, meta); err != nil {
		return nil, err
	}

	logger.Info("Project created", "root", root, "master_seed", masterSeed)
	return open(root, meta, logger)
}

// Open loads an existing project. Missing metadata is ErrProjectNotFound;
// unparseable metadata is ErrProjectCorrupt.
func Open(root string, logger *slog.Logger) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(root, MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, root)
		}
		return nil, fmt.Errorf("read project metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProjectCorrupt, root, err)
	}
	if meta.Settings == nil {
		meta.Settings = map[string]any{}
	}

	return open(root, meta, logger)
}

func open(root string, meta Metadata, logger *slog.Logger) (*Project, error) {
	for _, sub := range []string{"modules", "exports", "logs"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create project subdir %s: %w", sub, err)
		}
	}

	st, err := store.NewFileStore(filepath.Join(root, "modules"), logger)
	if err != nil {
		return nil, err
	}

	pad, err := loadPad(st, logger)
	if err != nil {
		return nil, err
	}

	return &Project{
		root:   root,
		meta:   meta,
		store:  st,
		pad:    pad,
		logger: logger,
	}, nil
}

func loadPad(st store.Store, logger *slog.Logger) (*scratchpad.Pad, error) {
	raw, err := st.Load(scratchpad.ReservedStateID)
	if errors.Is(err, store.ErrStateAbsent) {
		return scratchpad.NewPad(), nil
	}
	if err != nil {
		return nil, err
	}

	pad, err := scratchpad.Load(raw)
	if err != nil {
		// Same policy as plugin state: a bad file means a fresh pad, not a
		// dead host. The file itself stays on disk until the next save.
		logger.Warn("Scratchpad state unparseable, starting empty", "error", err)
		return scratchpad.NewPad(), nil
	}
	return pad, nil
}

// Root returns the project's directory.
func (p *Project) Root() string { return p.root }

// MasterSeed returns the immutable master seed.
func (p *Project) MasterSeed() uint64 { return p.meta.MasterSeed }

// Settings returns the mutable settings map. Call Save to persist changes.
func (p *Project) Settings() map[string]any { return p.meta.Settings }

// Store returns the project's module state store.
func (p *Project) Store() store.Store { return p.store }

// Pad returns the project's scratchpad. Call SavePad to persist changes.
func (p *Project) Pad() *scratchpad.Pad { return p.pad }

// ExportRoot returns the directory session packs are allocated under.
func (p *Project) ExportRoot() string {
	return filepath.Join(p.root, "exports")
}

// Derive returns the deterministic stream for a label path under this
// project's master seed.
func (p *Project) Derive(path ...string) *seed.Stream {
	return seed.Derive(p.meta.MasterSeed, path...)
}

// Save persists project metadata (settings changes; the seed never moves).
func (p *Project) Save() error {
	return writeMetadata(p.root, p.meta)
}

// SavePad persists the scratchpad under its reserved module-state slot.
func (p *Project) SavePad() error {
	raw, err := p.pad.Serialize()
	if err != nil {
		return err
	}
	return p.store.Save(scratchpad.ReservedStateID, raw)
}

// writeMetadata uses the same temp-then-rename discipline as module state,
// so a crash never leaves a half-written project file.
func writeMetadata(root string, meta Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project metadata: %w", err)
	}

	tmp, err := os.CreateTemp(root, "project-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp metadata file: %w", err)
	}
	tmpName := tmp.Name()

	_, werr := tmp.Write(data)
	if werr == nil {
		werr = tmp.Sync()
	}
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write project metadata: %w", werr)
	}

	if err := os.Rename(tmpName, filepath.Join(root, MetadataFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace project metadata: %w", err)
	}
	return nil
}
