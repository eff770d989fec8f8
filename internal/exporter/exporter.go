// Package exporter allocates session pack directories and coordinates the
// plugins contributing artifact files to them. The exporter guarantees
// directory allocation, collision avoidance, and an honest account of which
// contributors succeeded; writing the files themselves is each plugin's job.
package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/campaign-forge/internal/project"
)

// Contributor is one plugin's export step, already bound to its own Forge
// Context.
type Contributor struct {
	PluginID string
	Export   func(ctx context.Context, dir string) error
}

// ContributorError records one failed export step.
type ContributorError struct {
	PluginID string
	Reason   string
}

// Result reports one export invocation. Artifacts from successful
// contributors are never rolled back when another contributor fails.
type Result struct {
	Dir       string
	Succeeded []string
	Failed    []ContributorError
}

// PartialFailure reports whether some but not all contributors failed,
// leaving a pack worth keeping.
func (r Result) PartialFailure() bool {
	return len(r.Failed) > 0 && len(r.Succeeded) > 0
}

// Exporter allocates packs under a project's exports/session_packs/.
type Exporter struct {
	project *project.Project
	logger  *slog.Logger
	now     func() time.Time // swapped in tests to force collisions
}

func New(proj *project.Project, logger *slog.Logger) *Exporter {
	return &Exporter{project: proj, logger: logger, now: time.Now}
}

// Allocate creates a fresh pack directory named from the timestamp, the
// slugged title, and the project seed. On collision a short random suffix
// keeps the pack unique rather than reusing a directory.
func (e *Exporter) Allocate(title string) (string, error) {
	base := fmt.Sprintf("%s_%s_seed%d",
		e.now().Format("20060102_150405"), slug(title), e.project.MasterSeed())

	root := filepath.Join(e.project.ExportRoot(), "session_packs")
	dir := filepath.Join(root, base)
	if _, err := os.Stat(dir); err == nil {
		dir = filepath.Join(root, base+"_"+uuid.NewString()[:8])
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("allocate session pack dir: %w", err)
	}
	return dir, nil
}

// Export allocates one pack and runs every contributor's export step
// against it, each guarded. A failing contributor is recorded and skipped;
// it never deletes what others already wrote. The returned error covers
// host-side allocation only.
func (e *Exporter) Export(ctx context.Context, title string, contributors []Contributor) (Result, error) {
	dir, err := e.Allocate(title)
	if err != nil {
		return Result{}, err
	}

	result := Result{Dir: dir}
	for _, c := range contributors {
		if err := runGuarded(ctx, c, dir); err != nil {
			result.Failed = append(result.Failed, ContributorError{
				PluginID: c.PluginID,
				Reason:   err.Error(),
			})
			e.logger.Warn("Export contributor failed",
				"plugin_id", c.PluginID, "pack", dir, "error", err)
			continue
		}
		result.Succeeded = append(result.Succeeded, c.PluginID)
	}

	e.logger.Info("Session pack exported",
		"pack", dir, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result, nil
}

func runGuarded(ctx context.Context, c Contributor, dir string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("export step panicked: %v", r)
		}
	}()
	return c.Export(ctx, dir)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\-_ ]+`)

// slug normalizes a pack title for use in a directory name.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "-")
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "session"
	}
	return s
}
