package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/campaign-forge/internal/config"
	"github.com/jwebster45206/campaign-forge/internal/logger"
	"github.com/jwebster45206/campaign-forge/internal/manager"
	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/plugins/builtin"
)

func main() {
	cfg := config.Load()

	// The TUI owns the terminal, so structured logs go to a file under the
	// project instead of stderr.
	logDir := filepath.Join(cfg.ProjectDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to prepare log directory: %v\n", err)
		os.Exit(1)
	}
	logFile, err := os.OpenFile(filepath.Join(logDir, "console.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logFile.Close() // Ignore error in defer
	}()
	log := logger.Setup(cfg, logFile)

	proj, err := project.Open(cfg.ProjectDir, log)
	if errors.Is(err, project.ErrProjectNotFound) {
		proj, err = project.Create(cfg.ProjectDir, 0, nil, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open project at %s: %v\n", cfg.ProjectDir, err)
		os.Exit(1)
	}

	mgr := manager.New(log)
	for _, src := range builtin.Sources() {
		mgr.AddSource(src)
	}
	// Load failures become diagnostics on the plugin list, never a dead host.
	mgr.LoadAll()

	p := tea.NewProgram(NewConsoleUI(proj, mgr, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
