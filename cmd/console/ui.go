package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/campaign-forge/internal/exporter"
	"github.com/jwebster45206/campaign-forge/internal/manager"
	"github.com/jwebster45206/campaign-forge/internal/project"
	"github.com/jwebster45206/campaign-forge/pkg/plugin"
	"github.com/jwebster45206/campaign-forge/pkg/scratchpad"
)

const PlaceHolderText = "Type a note, or /help for commands..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	proj   *project.Project
	mgr    *manager.Manager
	logger *slog.Logger

	widgetViewport viewport.Model
	padViewport    viewport.Model
	textarea       textarea.Model
	ready          bool
	width          int
	height         int

	// Active plugin shown in the widget pane.
	activeID string

	// Scratchpad filter state
	query string
	tags  []string

	// One-line feedback under the input
	status    string
	exporting bool

	// Quit confirmation state
	showQuitModal bool
}

type exportDoneMsg struct {
	result exporter.Result
	err    error
}

var (
	widgetPanelStyle = lipgloss.NewStyle().
				PaddingTop(2).
				PaddingBottom(1).
				PaddingLeft(3).
				PaddingRight(0)

	padPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(proj *project.Project, mgr *manager.Manager, logger *slog.Logger) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	widgetVp := viewport.New(50, 20)
	widgetVp.MouseWheelEnabled = true

	padVp := viewport.New(20, 20)

	m := ConsoleUI{
		proj:           proj,
		mgr:            mgr,
		logger:         logger,
		textarea:       ta,
		widgetViewport: widgetVp,
		padViewport:    padVp,
	}

	// Bring up the first loadable plugin so the widget pane isn't empty.
	for _, st := range mgr.ListAvailable() {
		if st.State == manager.StateActive {
			m.activeID = st.Meta.ID
			if _, err := mgr.Activate(context.Background(), st.Meta.ID, proj); err != nil {
				m.status = err.Error()
			}
			break
		}
	}

	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		wvCmd tea.Cmd
		pvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.widgetViewport, wvCmd = m.widgetViewport.Update(msg)
		m.padViewport, pvCmd = m.padViewport.Update(msg)
		return m, tea.Batch(wvCmd, pvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		widgetWidth := int(float64(m.width)*0.6) - 4
		padWidth := m.width - widgetWidth - 6

		m.widgetViewport.Width = widgetWidth - 2
		m.widgetViewport.Height = m.height - 8
		m.padViewport.Width = padWidth - 2
		m.padViewport.Height = m.height - 4
		m.textarea.SetWidth(widgetWidth - 4)

		m.ready = true
		m.writeWidgetContent()
		m.writePadContent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil

		case tea.KeyTab:
			m.cycleActive()
			m.writeWidgetContent()
			m.writePadContent()
			return m, nil

		case tea.KeyCtrlT:
			if act, ok := m.mgr.Active(m.activeID); ok {
				if vc, ok := act.Widget.(plugin.ViewCycler); ok {
					vc.CycleView()
					m.writeWidgetContent()
				}
			}
			return m, nil

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}
			if cmd, ok := strings.CutPrefix(input, "!"); ok {
				m.runWidgetCommand(cmd)
				return m, nil
			}

			// Plain input is a note. Words starting with # become tags.
			text, tags := splitNote(input)
			m.proj.Pad().Add(scratchpad.Entry{Text: text, Tags: tags})
			if err := m.proj.SavePad(); err != nil {
				m.status = errorStyle.Render("Save failed: " + err.Error())
			} else {
				m.status = "Noted."
			}
			m.writePadContent()
			return m, nil
		}

	case exportDoneMsg:
		m.exporting = false
		if msg.err != nil {
			m.status = errorStyle.Render("Export failed: " + msg.err.Error())
		} else if msg.result.PartialFailure() {
			m.status = statusStyle.Render(fmt.Sprintf("Exported %s (%d failed)", msg.result.Dir, len(msg.result.Failed)))
		} else {
			m.status = fmt.Sprintf("Exported %s", msg.result.Dir)
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.widgetViewport, wvCmd = m.widgetViewport.Update(msg)
	m.padViewport, pvCmd = m.padViewport.Update(msg)

	return m, tea.Batch(tiCmd, wvCmd, pvCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "/help":
		m.widgetViewport.SetContent(helpText())
		m.status = ""

	case "/search":
		m.query = rest
		m.writePadContent()

	case "/tag":
		m.tags = splitTags(rest)
		m.writePadContent()

	case "/copy":
		entries := m.proj.Pad().Search(m.query, m.tags)
		if len(entries) == 0 {
			m.status = "Nothing to copy."
			break
		}
		if err := clipboard.WriteAll(entries[0].Text); err != nil {
			m.status = errorStyle.Render("Copy failed: " + err.Error())
		} else {
			m.status = "Copied newest matching note."
		}

	case "/export":
		if m.exporting {
			return m, nil
		}
		title := rest
		if title == "" {
			title = "session"
		}
		m.exporting = true
		m.status = statusStyle.Render("Exporting...")
		return m, m.runExport(title)

	case "/reload":
		if err := m.mgr.Reload(rest); err != nil {
			m.status = errorStyle.Render(err.Error())
		} else {
			m.status = "Reloaded " + rest
		}
		m.writeWidgetContent()
		m.writePadContent()

	case "/quit":
		m.showQuitModal = true

	default:
		m.status = errorStyle.Render("Unknown command " + cmd + " (try /help)")
	}

	return m, nil
}

// runWidgetCommand hands input to the active plugin's widget, the path for
// mutating operations like rolling a hoard.
func (m *ConsoleUI) runWidgetCommand(input string) {
	act, ok := m.mgr.Active(m.activeID)
	if !ok {
		m.status = "No active plugin. Press Tab to select one."
		return
	}
	cr, ok := act.Widget.(plugin.Commander)
	if !ok {
		m.status = fmt.Sprintf("%s takes no commands.", m.activeID)
		return
	}

	out, err := cr.RunCommand(strings.TrimSpace(input))
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	m.status = out
	m.writeWidgetContent()
	m.writePadContent()
}

// cycleActive moves the widget pane to the next loaded plugin, activating
// it on first visit.
func (m *ConsoleUI) cycleActive() {
	var ids []string
	for _, st := range m.mgr.ListAvailable() {
		if st.State == manager.StateActive {
			ids = append(ids, st.Meta.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	next := ids[0]
	for i, id := range ids {
		if id == m.activeID {
			next = ids[(i+1)%len(ids)]
			break
		}
	}

	m.activeID = next
	if _, err := m.mgr.Activate(context.Background(), next, m.proj); err != nil {
		m.status = errorStyle.Render(err.Error())
	}
}

func (m *ConsoleUI) writeWidgetContent() {
	act, ok := m.mgr.Active(m.activeID)
	if !ok || act.Widget == nil {
		m.widgetViewport.SetContent(promptStyle.Render("No active plugin. Press Tab to select one."))
		return
	}

	width := m.widgetViewport.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(act.Widget.Title()))
	b.WriteString("\n\n")
	b.WriteString(act.Widget.View(width))
	m.widgetViewport.SetContent(b.String())
}

func (m *ConsoleUI) writePadContent() {
	width := m.padViewport.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Plugins") + "\n")
	for _, st := range m.mgr.ListAvailable() {
		switch st.State {
		case manager.StateActive:
			marker := "  "
			if st.Meta.ID == m.activeID {
				marker = activeStyle.Render("▶ ")
			}
			b.WriteString(fmt.Sprintf("%s%s v%s\n", marker, st.Meta.ID, st.Meta.Version))
			for _, gap := range st.Gaps {
				b.WriteString(promptStyle.Render(fmt.Sprintf("    no %s support", gap)) + "\n")
			}
		case manager.StateFailed:
			b.WriteString("  " + errorStyle.Render(st.Source+" failed") + "\n")
			b.WriteString(promptStyle.Render(wordwrap.String("    "+st.Reason, width)) + "\n")
		default:
			b.WriteString(fmt.Sprintf("  %s %s\n", st.Source, st.State))
		}
	}

	b.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", width)) + "\n")

	header := "Scratchpad"
	if m.query != "" || len(m.tags) > 0 {
		header = fmt.Sprintf("Scratchpad (%q, tags %s)", m.query, strings.Join(m.tags, ","))
	}
	b.WriteString(titleStyle.Render(header) + "\n")

	entries := m.proj.Pad().Search(m.query, m.tags)
	if len(entries) == 0 {
		b.WriteString(promptStyle.Render("No notes yet.") + "\n")
	}
	for _, e := range entries {
		src := e.SourcePluginID
		if src == "" {
			src = "user"
		}
		meta := fmt.Sprintf("%s · %s", e.CreatedAt.Format("Jan 02 15:04"), src)
		if len(e.Tags) > 0 {
			meta += " · " + tagStyle.Render(strings.Join(e.Tags, ","))
		}
		b.WriteString(promptStyle.Render(meta) + "\n")
		b.WriteString(wordwrap.String(e.Text, width) + "\n\n")
	}

	m.padViewport.SetContent(b.String())
}

func (m ConsoleUI) runExport(title string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		// Bring every loaded plugin live so each exporter contributes.
		// Activation failures are diagnostics; the rest still export.
		for _, st := range m.mgr.ListAvailable() {
			if st.State != manager.StateActive {
				continue
			}
			_, _ = m.mgr.Activate(ctx, st.Meta.ID, m.proj)
		}

		result, err := exporter.New(m.proj, m.logger).Export(ctx, title, m.mgr.Contributors())
		return exportDoneMsg{result, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N", "esc":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

// quit deactivates every live plugin so state serializers run before the
// process exits.
func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	m.mgr.DeactivateAll()
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Plugin state is saved on the way out.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit or N to keep working"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	widgetWidth := int(float64(m.width)*0.6) - 4
	padWidth := m.width - widgetWidth - 6

	statusLine := m.status
	if statusLine == "" {
		statusLine = promptStyle.Render("Tab: next plugin · Enter: add note · /help")
	}

	widgetPanel := widgetPanelStyle.Width(widgetWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.widgetViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", widgetWidth-4)),
			m.textarea.View(),
			statusLine,
		),
	)

	padPanel := padPanelStyle.Width(padWidth).Height(m.height - 2).Render(
		m.padViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, widgetPanel, padPanel)
}

func helpText() string {
	return titleStyle.Render("Commands") + `

/search <text>   filter notes by text
/tag <t1,t2>     filter notes by tags (bare /tag clears)
/copy            copy the newest matching note
/export [title]  write a session pack under exports/
/reload <source> retry a failed plugin source
/quit            leave the console

!<command> goes to the active plugin, e.g.
  !roll minor        (treasure)
  !date 2024-06-15   (weather)

Anything else you type becomes a scratchpad note.
Words starting with # are stored as tags.
Tab cycles the widget pane through loaded plugins.
Ctrl+T flips widgets that have more than one page.
`
}

// splitNote separates #tag words from the note text.
func splitNote(input string) (string, []string) {
	var words, tags []string
	for _, w := range strings.Fields(input) {
		if strings.HasPrefix(w, "#") && len(w) > 1 {
			tags = append(tags, strings.TrimPrefix(w, "#"))
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " "), tags
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
