package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jwebster45206/campaign-forge/internal/config"
	"github.com/jwebster45206/campaign-forge/internal/exporter"
	"github.com/jwebster45206/campaign-forge/internal/logger"
	"github.com/jwebster45206/campaign-forge/internal/manager"
	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/pkg/scratchpad"
	"github.com/jwebster45206/campaign-forge/plugins/builtin"
)

func main() {
	var (
		projectDir = flag.String("project", "", "project directory (overrides FORGE_PROJECT_DIR)")
		create     = flag.Bool("create", false, "create a new project at the project directory")
		seedFlag   = flag.Uint64("seed", 0, "master seed for -create (0 mints one)")
		name       = flag.String("name", "", "campaign name for -create")
		list       = flag.Bool("list", false, "list discovered plugins and their status")
		doExport   = flag.Bool("export", false, "export a session pack from all loaded plugins")
		title      = flag.String("title", "session", "session pack title for -export")
		note       = flag.String("note", "", "append a note to the project scratchpad")
		tags       = flag.String("tags", "", "comma-separated tags for -note or -search")
		search     = flag.String("search", "", "search the scratchpad (use with -tags to filter)")
		use        = flag.String("use", "", "plugin id for -do")
		do         = flag.String("do", "", "send a command to a plugin, e.g. -use treasure -do \"roll minor\"")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg, os.Stderr)

	root := cfg.ProjectDir
	if *projectDir != "" {
		root = *projectDir
	}

	var proj *project.Project
	var err error
	if *create {
		settings := map[string]any{}
		if *name != "" {
			settings["name"] = *name
		}
		proj, err = project.Create(root, *seedFlag, settings, log)
		if err != nil {
			log.Error("Failed to create project", "root", root, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Created project at %s (master seed %d)\n", root, proj.MasterSeed())
	} else {
		proj, err = project.Open(root, log)
		if err != nil {
			log.Error("Failed to open project", "root", root, "error", err)
			os.Exit(1)
		}
	}

	mgr := manager.New(log)
	for _, src := range builtin.Sources() {
		mgr.AddSource(src)
	}
	// Startup always completes: plugin failures are diagnostics, not fatals.
	mgr.LoadAll()

	switch {
	case *list:
		listPlugins(mgr)
	case *note != "":
		addNote(proj, *note, splitTags(*tags), log)
	case *search != "" || *tags != "":
		searchNotes(proj, *search, splitTags(*tags))
	case *do != "":
		runPluginCommand(proj, mgr, *use, *do, log)
	case *doExport:
		exportPack(proj, mgr, *title, log)
	case *create:
		// Creation output already printed.
	default:
		flag.Usage()
	}

	// Persist whatever state the activated plugins touched.
	mgr.DeactivateAll()
}

func listPlugins(mgr *manager.Manager) {
	for _, st := range mgr.ListAvailable() {
		if st.State == manager.StateActive {
			caps := make([]string, 0, len(st.Capabilities))
			for _, c := range st.Capabilities {
				caps = append(caps, string(c))
			}
			fmt.Printf("%-12s %-8s v%-8s [%s]\n", st.Meta.ID, st.State, st.Meta.Version, strings.Join(caps, ", "))
			continue
		}
		fmt.Printf("%-12s %-8s %s\n", st.Source, st.State, st.Reason)
	}
}

func addNote(proj *project.Project, text string, tags []string, log *slog.Logger) {
	proj.Pad().Add(scratchpad.Entry{Text: text, Tags: tags})
	if err := proj.SavePad(); err != nil {
		log.Error("Failed to save scratchpad", "error", err)
		os.Exit(1)
	}
	fmt.Println("Noted.")
}

func searchNotes(proj *project.Project, query string, tags []string) {
	for _, e := range proj.Pad().Search(query, tags) {
		src := e.SourcePluginID
		if src == "" {
			src = "user"
		}
		fmt.Printf("[%s] (%s) %s\n", e.CreatedAt.Format("2006-01-02 15:04"), src, e.Text)
	}
}

func runPluginCommand(proj *project.Project, mgr *manager.Manager, pluginID, input string, log *slog.Logger) {
	if pluginID == "" {
		log.Error("-do requires -use <plugin_id>")
		os.Exit(1)
	}

	act, err := mgr.Activate(context.Background(), pluginID, proj)
	if err != nil {
		log.Error("Failed to activate plugin", "plugin_id", pluginID, "error", err)
		os.Exit(1)
	}

	cr, ok := act.Widget.(plugin.Commander)
	if !ok {
		log.Error("Plugin takes no commands", "plugin_id", pluginID)
		os.Exit(1)
	}

	out, err := cr.RunCommand(input)
	if err != nil {
		log.Error("Plugin command failed", "plugin_id", pluginID, "error", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func exportPack(proj *project.Project, mgr *manager.Manager, title string, log *slog.Logger) {
	ctx := context.Background()

	// Activate everything that loaded. Activation failures are already
	// recorded as diagnostics; the remaining plugins still export.
	for _, st := range mgr.ListAvailable() {
		if st.State != manager.StateActive {
			continue
		}
		_, _ = mgr.Activate(ctx, st.Meta.ID, proj)
	}

	result, err := exporter.New(proj, log).Export(ctx, title, mgr.Contributors())
	if err != nil {
		log.Error("Export failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Session pack: %s\n", result.Dir)
	for _, id := range result.Succeeded {
		fmt.Printf("  ok      %s\n", id)
	}
	for _, f := range result.Failed {
		fmt.Printf("  failed  %s: %s\n", f.PluginID, f.Reason)
	}
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
