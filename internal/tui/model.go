// Package tui is the keyboard dashboard for alloc-admin. It drives the same
// Engine as the CLI and the desktop window and re-renders from store
// snapshots.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pminternship/alloc-admin/internal/core"
	"github.com/pminternship/alloc-admin/internal/events"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/pathutil"
	"github.com/pminternship/alloc-admin/internal/state"
)

// Options carries the upload defaults the dashboard starts with.
type Options struct {
	AutoAllocate bool
	UploadMode   models.UploadMode
	Logger       *logging.Logger
}

type pane int

const (
	paneResults pane = iota
	paneInternships
)

type promptKind int

const (
	promptNone promptKind = iota
	promptRosterPath
	promptRunID
)

// engineEventMsg carries one event from the engine's bus.
type engineEventMsg struct {
	event events.Event
}

// workflowDoneMsg is returned when a workflow started from a key settles.
type workflowDoneMsg struct {
	status models.WorkflowStatus
	err    error
}

// Model is the bubbletea model of the dashboard.
type Model struct {
	ctx    context.Context
	engine *core.Engine
	events <-chan events.Event
	logger *logging.Logger

	snap   state.Snapshot
	notice string

	mode         models.UploadMode
	autoAllocate bool

	pane        pane
	results     table.Model
	internships table.Model
	spinner     spinner.Model

	prompt promptKind
	input  textinput.Model
	form   *internshipForm

	width  int
	height int
}

// New builds the model and subscribes it to the engine's events.
func New(ctx context.Context, engine *core.Engine, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	mode := opts.UploadMode
	if mode == "" {
		mode = models.UploadModeUpsert
	}

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = statusStyle

	input := textinput.New()
	input.CharLimit = 512
	input.Width = 60

	m := Model{
		ctx:          ctx,
		engine:       engine,
		events:       engine.Events().SubscribeAll(),
		logger:       logger.Named("tui"),
		mode:         mode,
		autoAllocate: opts.AutoAllocate,
		results:      newTable(models.ResultColumns, []int{18, 24, 20, 18, 14, 8, 11}),
		internships:  newTable(models.InternshipColumns, []int{5, 18, 22, 16, 8, 8, 8, 6}),
		spinner:      spin,
		input:        input,
	}
	m.results.Focus()
	m.apply(engine.Store().Snapshot())
	return m
}

func newTable(columns []string, widths []int) table.Model {
	cols := make([]table.Column, len(columns))
	for i, title := range columns {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(10))

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(panelBorder).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#05090C")).
		Background(accentPrimary)
	t.SetStyles(styles)
	return t
}

// Init probes the service and loads the internship list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForEvent(),
		m.run(m.engine.CheckHealth),
		m.run(m.engine.RefreshInternships),
	)
}

// waitForEvent blocks for the next engine event. The bus never closes
// subscriber channels, so ctx releases the goroutine on exit.
func (m Model) waitForEvent() tea.Cmd {
	ch, ctx := m.events, m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ch:
			return engineEventMsg{event: ev}
		}
	}
}

func (m Model) run(fn func(ctx context.Context) (models.WorkflowStatus, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		status, err := fn(ctx)
		return workflowDoneMsg{status: status, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case engineEventMsg:
		if msg.event != nil && msg.event.Type() == events.EventStatus {
			m.notice = ""
		}
		m.apply(m.engine.Store().Snapshot())
		return m, m.waitForEvent()

	case workflowDoneMsg:
		if errors.Is(msg.err, core.ErrBusy) {
			m.notice = msg.status.Message
		} else if msg.err != nil {
			m.logger.Debug().Err(msg.err).Msg("Workflow settled with error")
		}
		m.apply(m.engine.Store().Snapshot())
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.prompt != promptNone {
			return m.updatePrompt(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		m.switchPane()
		return m, nil
	case "u":
		return m.openPrompt(promptRosterPath, "roster.csv"), textinput.Blink
	case "f":
		return m.openPrompt(promptRunID, "run_id"), textinput.Blink
	case "m":
		m.mode = nextMode(m.mode)
		return m, nil
	case "a":
		m.autoAllocate = !m.autoAllocate
		return m, nil
	case "r":
		return m, m.run(m.engine.ManualRun)
	case "l":
		return m, m.run(m.engine.LoadLatest)
	case "i":
		return m, m.run(m.engine.RefreshInternships)
	case "h":
		return m, m.run(m.engine.CheckHealth)
	case "n":
		m.form = newInternshipForm()
		return m, textinput.Blink
	case "d":
		url, err := m.engine.DownloadURL()
		if err != nil {
			m.notice = core.Message(err)
		} else {
			m.notice = "CSV: " + url
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.pane == paneResults {
		m.results, cmd = m.results.Update(msg)
	} else {
		m.internships, cmd = m.internships.Update(msg)
	}
	return m, cmd
}

func (m Model) openPrompt(kind promptKind, placeholder string) Model {
	m.prompt = kind
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.prompt = promptNone
		m.input.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		kind := m.prompt
		m.prompt = promptNone
		m.input.Blur()

		switch kind {
		case promptRosterPath:
			if expanded, err := pathutil.ExpandHome(value); err == nil {
				value = expanded
			}
			req := core.UploadRequest{Path: value, AutoAllocate: m.autoAllocate, Mode: m.mode}
			return m, m.run(func(ctx context.Context) (models.WorkflowStatus, error) {
				return m.engine.UploadAndMaybeAllocate(ctx, req)
			})
		case promptRunID:
			runID := models.RunID(value)
			return m, m.run(func(ctx context.Context) (models.WorkflowStatus, error) {
				return m.engine.FetchByID(ctx, runID)
			})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "shift+tab", "up":
		m.form.move(-1)
		return m, nil
	case "tab", "down":
		m.form.move(1)
		return m, nil
	case "enter":
		if !m.form.last() {
			m.form.move(1)
			return m, nil
		}
		req, err := m.form.request()
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		m.form = nil
		return m, m.run(func(ctx context.Context) (models.WorkflowStatus, error) {
			return m.engine.CreateInternship(ctx, req)
		})
	}

	var cmd tea.Cmd
	*m.form.current(), cmd = m.form.current().Update(msg)
	return m, cmd
}

func (m *Model) switchPane() {
	if m.pane == paneResults {
		m.pane = paneInternships
		m.results.Blur()
		m.internships.Focus()
	} else {
		m.pane = paneResults
		m.internships.Blur()
		m.results.Focus()
	}
}

// apply stores a snapshot and refreshes both tables from it.
func (m *Model) apply(snap state.Snapshot) {
	m.snap = snap

	rows := make([]table.Row, 0, len(snap.Results))
	for _, r := range snap.Results {
		rows = append(rows, r.Cells())
	}
	m.results.SetRows(rows)

	items := make([]table.Row, 0, len(snap.Internships))
	for _, it := range snap.Internships {
		items = append(items, it.Cells())
	}
	m.internships.SetRows(items)
}

func (m *Model) resize() {
	// header, settings, summary, panel title and border, prompt, status, help
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	m.results.SetHeight(h)
	m.internships.SetHeight(h)
}

func nextMode(current models.UploadMode) models.UploadMode {
	for i, mode := range models.UploadModes {
		if mode == current {
			return models.UploadModes[(i+1)%len(models.UploadModes)]
		}
	}
	return models.UploadModes[0]
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	health := healthStyle(m.snap.Health).Render("API: " + m.snap.Health.String())
	b.WriteString(titleStyle.Render("Internship Allocation Admin") + "  " + health + "\n")

	auto := "off"
	if m.autoAllocate {
		auto = "on"
	}
	b.WriteString(subtleStyle.Render(fmt.Sprintf("Mode: %s  •  Auto-allocate: %s", m.mode.Label(), auto)) + "\n")
	if m.snap.Upload != nil {
		b.WriteString(subtleStyle.Render(m.snap.Upload.Summary()) + "\n")
	}

	b.WriteString(m.renderPane() + "\n")

	if m.form != nil {
		b.WriteString(panelStyle.Render(m.form.View()) + "\n")
	} else if m.prompt != promptNone {
		label := "Roster CSV"
		if m.prompt == promptRunID {
			label = "Run id"
		}
		b.WriteString(statusStyle.Render(label+": ") + m.input.View() + "\n")
	}

	b.WriteString(m.renderStatus() + "\n")
	b.WriteString(helpStyle.Render("u upload • m mode • a auto • r run • l latest • f fetch • d csv • n new internship • i reload • h health • tab switch • q quit"))
	return b.String()
}

func (m Model) renderPane() string {
	var title, body string
	if m.pane == paneResults {
		title = fmt.Sprintf("Results (Run: %s, %d rows)", m.snap.ActiveRunID, len(m.snap.Results))
		body = m.results.View()
		if len(m.snap.Results) == 0 {
			body = subtleStyle.Render("No results loaded.")
		}
	} else {
		title = fmt.Sprintf("Internships (%d)", len(m.snap.Internships))
		body = m.internships.View()
		if len(m.snap.Internships) == 0 {
			body = subtleStyle.Render("No internships yet.")
		}
	}
	return panelStyle.Render(panelTitleStyle.Render(title) + "\n" + body)
}

func (m Model) renderStatus() string {
	if m.notice != "" {
		return statusStyle.Render(m.notice)
	}
	msg := m.snap.Status.Message
	if m.snap.Busy {
		return m.spinner.View() + " " + statusStyle.Render(msg)
	}
	switch m.snap.Status.Level {
	case events.LevelError:
		return errorStyle.Render(msg)
	case events.LevelSuccess:
		return successStyle.Render(msg)
	}
	if msg == "" {
		msg = "Ready"
	}
	return subtleStyle.Render(msg)
}

func healthStyle(h models.HealthState) lipgloss.Style {
	switch h {
	case models.HealthUp:
		return healthUpStyle
	case models.HealthDown:
		return healthDownStyle
	default:
		return subtleStyle
	}
}

// Close detaches the model from the engine.
func (m Model) Close() {
	m.engine.Events().UnsubscribeAll(m.events)
}
