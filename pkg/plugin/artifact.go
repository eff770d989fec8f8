package plugin

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteArtifact writes one export artifact beneath dir, creating parent
// directories as needed. It uses write-to-temp-then-rename, so a crash
// mid-export never leaves a half-written file under its final name.
// Plugins should use this for every file they contribute to a session pack.
func WriteArtifact(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
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
		return fmt.Errorf("write artifact %s: %w", name, werr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("place artifact %s: %w", name, err)
	}
	return nil
}
