// Package tui is the migration screen shown on start when the device still
// holds data from before the account existed.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/liftlog/internal/export"
	"github.com/sadopc/liftlog/internal/migration"
)

const (
	choiceMigrate = "migrate"
	choiceSkip    = "skip"
	choiceExport  = "export"
)

// App is the root Bubble Tea model.
type App struct {
	svc          *migration.Service
	ctx          context.Context
	errorPreview int
	exportDir    string

	width  int
	height int

	state   screenState
	snap    *migration.Snapshot
	result  *migration.Result
	choice  *string
	form    *huh.Form
	spinner spinner.Model

	exportPicking bool
	exportCursor  int

	showHelp bool
	help     help.Model
	status   string
	isError  bool
}

func NewApp(ctx context.Context, svc *migration.Service, errorPreview int) App {
	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = highlightStyle

	home, _ := os.UserHomeDir()
	choice := choiceMigrate

	return App{
		svc:          svc,
		ctx:          ctx,
		errorPreview: errorPreview,
		exportDir:    home,
		state:        screenChecking,
		choice:       &choice,
		spinner:      sp,
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return a.check()
}

func (a App) check() tea.Cmd {
	return func() tea.Msg {
		needed, err := a.svc.IsMigrationNeeded(a.ctx)
		if err != nil || !needed {
			return checkedMsg{needed: false, err: err}
		}
		snap, _ := a.svc.PreviewLocalData(a.ctx)
		return checkedMsg{needed: true, snap: snap}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case checkedMsg:
		if msg.err != nil {
			a.state = screenNothing
			a.status = fmt.Sprintf("Could not read local data: %v", msg.err)
			a.isError = true
			return a, nil
		}
		if !msg.needed {
			a.state = screenNothing
			return a, tea.Quit
		}
		a.snap = msg.snap
		return a.showPreview()

	case migratedMsg:
		res := msg.result
		a.result = &res
		a.state = screenResult
		if res.Clean() {
			a.svc.ClearSnapshotAfterSuccess(a.ctx)
			a.status = "Local data cleared"
		}
		return a, nil

	case skippedMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Skip failed: %v", msg.err)
			a.isError = true
			return a.showPreview()
		}
		a.state = screenSkipped
		return a, tea.Quit

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isError = false
		return a, nil

	case spinner.TickMsg:
		if a.state != screenMigrating {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}
		if a.state == screenPreview && a.form != nil {
			return a.updateForm(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		}

		if a.state == screenResult && !a.result.Clean() {
			switch {
			case key.Matches(msg, keys.Retry):
				return a.startMigration()
			case key.Matches(msg, keys.Skip):
				return a, a.skip()
			case key.Matches(msg, keys.Export):
				a.exportPicking = true
				a.exportCursor = 0
				return a, nil
			}
		}
		if a.state == screenResult && a.result.Clean() && key.Matches(msg, keys.Enter) {
			return a, tea.Quit
		}
	}

	if a.state == screenPreview && a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) showPreview() (tea.Model, tea.Cmd) {
	a.state = screenPreview
	*a.choice = choiceMigrate
	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Move this data to your account?").
				Options(
					huh.NewOption("Migrate to my account", choiceMigrate),
					huh.NewOption("Export a backup first", choiceExport),
					huh.NewOption("Skip, keep it on this device only", choiceSkip),
				).
				Value(a.choice),
		),
	).WithShowHelp(true)
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		a.form = nil
		return a.choose(*a.choice)
	case huh.StateAborted:
		a.form = nil
		return a, tea.Quit
	}
	return a, cmd
}

// choose acts on the preview decision.
func (a App) choose(choice string) (tea.Model, tea.Cmd) {
	switch choice {
	case choiceSkip:
		return a, a.skip()
	case choiceExport:
		a.exportPicking = true
		a.exportCursor = 0
		return a, nil
	default:
		return a.startMigration()
	}
}

// startMigration moves to the migrating state. The key handlers ignore
// input in that state, so a second run cannot start while one is in flight.
func (a App) startMigration() (tea.Model, tea.Cmd) {
	if a.state == screenMigrating {
		return a, nil
	}
	a.state = screenMigrating
	a.form = nil
	a.status = ""
	return a, tea.Batch(a.spinner.Tick, a.runMigration())
}

func (a App) runMigration() tea.Cmd {
	return func() tea.Msg {
		return migratedMsg{result: a.svc.RunMigration(a.ctx)}
	}
}

func (a App) skip() tea.Cmd {
	return func() tea.Msg {
		return skippedMsg{err: a.svc.MarkSkipped(a.ctx)}
	}
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.state {
	case screenChecking:
		content = mutedStyle.Render("Checking for data migration...")
	case screenPreview:
		content = a.renderPreview()
	case screenMigrating:
		content = panelStyle.Render(a.spinner.View() + " Migrating your data, this can take a while...")
	case screenResult:
		content = a.renderResult()
	case screenSkipped:
		content = mutedStyle.Render("Migration skipped. Your local data stays on this device.")
	case screenNothing:
		content = mutedStyle.Render("Nothing to migrate.")
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("liftlog")
	sub := subtitleStyle.Render("  data migration")
	return headerStyle.Render(lipgloss.JoinHorizontal(lipgloss.Bottom, title, sub))
}

func (a App) renderFooter() string {
	left := ""
	if a.state == screenResult && !a.result.Clean() {
		left = footerStyle.Render(a.help.View(keys))
	}

	right := ""
	if a.status != "" {
		if a.isError {
			right = errorStyle.Render(" " + a.status)
		} else {
			right = mutedStyle.Render(" " + a.status)
		}
	}

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderPreview() string {
	var rows []string
	rows = append(rows, titleStyle.Render("We found existing workout data on this device"))
	rows = append(rows, "")
	rows = append(rows, a.renderCounts()...)
	rows = append(rows, "")
	if a.form != nil {
		rows = append(rows, a.form.View())
	}
	return activePanelStyle.Width(a.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) renderCounts() []string {
	var workouts, bodyWeights, exercises int
	if a.snap != nil {
		workouts = len(a.snap.Workouts)
		bodyWeights = len(a.snap.BodyWeights)
		exercises = len(a.snap.ExerciseLibrary)
	}
	line := func(label string, n int) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(22).Render(label), highlightStyle.Render(fmt.Sprint(n)))
	}
	rows := []string{
		line("Workouts:", workouts),
		line("Body weight entries:", bodyWeights),
		line("Exercises:", exercises),
	}
	if a.snap == nil || a.snap.Empty() {
		rows = append(rows, "", warningStyle.Render("  The stored data holds no records."))
	} else if n := len(a.snap.Malformed); n > 0 {
		rows = append(rows, "", warningStyle.Render(fmt.Sprintf("  %d unreadable %s will be reported as errors.", n, plural(n, "entry", "entries"))))
	}
	return rows
}

func (a App) renderResult() string {
	res := a.result
	var rows []string

	switch {
	case res.Clean():
		rows = append(rows, successStyle.Render("Migration complete"))
	case res.Success:
		rows = append(rows, warningStyle.Render("Migration finished with errors"))
	default:
		rows = append(rows, errorStyle.Render("Migration failed"))
	}
	rows = append(rows, "")

	if res.Success {
		rows = append(rows,
			fmt.Sprintf("  %d %s migrated", res.WorkoutsMigrated, plural(res.WorkoutsMigrated, "workout", "workouts")),
			fmt.Sprintf("  %d body weight %s migrated", res.BodyWeightsMigrated, plural(res.BodyWeightsMigrated, "entry", "entries")),
			fmt.Sprintf("  %d %s migrated", res.ExercisesMigrated, plural(res.ExercisesMigrated, "exercise", "exercises")),
			mutedStyle.Render(fmt.Sprintf("  %d %s in total", res.Total(), plural(res.Total(), "record", "records"))),
		)
	}

	if len(res.Errors) > 0 {
		rows = append(rows, "")
		shown, more := res.ErrorPreview(a.errorPreview)
		for _, e := range shown {
			rows = append(rows, errorStyle.Render("  • "+e))
		}
		if more > 0 {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  • ...and %d more", more)))
		}
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  r: retry  s: skip  e: export backup  q: quit"))
	} else {
		rows = append(rows, "")
		rows = append(rows, mutedStyle.Render("  enter: continue"))
	}

	return panelStyle.Width(a.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) panelWidth() int {
	return max(a.width-4, 20)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.panelWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a.afterExportPicker(a.doExport(a.exportCursor))
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
		return a.afterExportPicker(nil)
	}
	return a, nil
}

// afterExportPicker returns to the decision form when the picker was opened
// from the preview.
func (a App) afterExportPicker(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if a.state != screenPreview {
		return a, cmd
	}
	m, formCmd := a.showPreview()
	return m, tea.Batch(cmd, formCmd)
}

func (a App) doExport(format int) tea.Cmd {
	snap := a.snap
	dir := a.exportDir
	return func() tea.Msg {
		if snap == nil {
			return statusMsg{text: "Nothing to export", isError: true}
		}

		dateStr := time.Now().Format("2006-01-02")
		if format == 0 {
			path := filepath.Join(dir, fmt.Sprintf("liftlog-backup-%s.csv", dateStr))
			if err := export.ToCSV(snap, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
			return exportDoneMsg{path: path}
		}

		path := filepath.Join(dir, fmt.Sprintf("liftlog-backup-%s.json", dateStr))
		if err := export.ToJSON(snap, path); err != nil {
			return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path}
	}
}

// Summary renders a final plain-text line for the terminal after the
// program exits.
func (a App) Summary() string {
	switch a.state {
	case screenSkipped:
		return "Migration skipped."
	case screenResult:
		res := a.result
		if !res.Success {
			return "Migration failed: " + strings.Join(res.Errors, "; ")
		}
		s := fmt.Sprintf("Migrated %d %s (%d workouts, %d body weights, %d exercises).",
			res.Total(), plural(res.Total(), "record", "records"),
			res.WorkoutsMigrated, res.BodyWeightsMigrated, res.ExercisesMigrated)
		if len(res.Errors) > 0 {
			s += fmt.Sprintf(" %d %s failed.", len(res.Errors), plural(len(res.Errors), "record", "records"))
		}
		return s
	case screenNothing:
		if a.isError {
			return a.status
		}
		return "Nothing to migrate."
	}
	return ""
}
