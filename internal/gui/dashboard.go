package gui

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pminternship/alloc-admin/internal/core"
	"github.com/pminternship/alloc-admin/internal/events"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/state"
)

// Dashboard is the single-window admin view. Widgets are only touched on
// the fyne main goroutine; workflows run on their own goroutines and reach
// the widgets through store events.
type Dashboard struct {
	engine  *core.Engine
	window  fyne.Window
	logger  *logging.Logger
	openURL func(*url.URL) error

	ctx    context.Context
	cancel context.CancelFunc
	events <-chan events.Event
	wg     sync.WaitGroup

	// Upload form
	rosterPath   string
	mode         models.UploadMode
	autoAllocate bool

	healthLabel   *widget.Label
	fileLabel     *widget.Label
	chooseButton  *widget.Button
	modeSelect    *widget.Select
	autoCheck     *widget.Check
	uploadButton  *widget.Button
	uploadSummary *widget.Label

	runButton      *widget.Button
	latestButton   *widget.Button
	runIDEntry     *widget.Entry
	fetchButton    *widget.Button
	downloadButton *widget.Button

	resultsHeader *widget.Label
	resultsEmpty  *widget.Label
	resultsTable  *widget.Table
	results       []models.ResultRow

	addButton        *widget.Button
	refreshButton    *widget.Button
	internshipsEmpty *widget.Label
	internshipsTable *widget.Table
	internships      []models.InternshipListing

	statusBar *StatusBar
}

// NewDashboard creates the dashboard widgets. Call Build for the content and
// Start to begin following the engine.
func NewDashboard(engine *core.Engine, window fyne.Window, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	mode := opts.UploadMode
	if mode == "" {
		mode = models.UploadModeUpsert
	}

	d := &Dashboard{
		engine:       engine,
		window:       window,
		logger:       logger.Named("dashboard"),
		mode:         mode,
		autoAllocate: opts.AutoAllocate,
		ctx:          context.Background(),
	}
	d.createWidgets()
	return d
}

// SetURLOpener replaces the function used to open the CSV export in a browser.
func (d *Dashboard) SetURLOpener(open func(*url.URL) error) {
	d.openURL = open
}

func (d *Dashboard) createWidgets() {
	d.healthLabel = widget.NewLabel("API: " + models.HealthUnknown.String())
	d.healthLabel.TextStyle = fyne.TextStyle{Bold: true}

	d.fileLabel = widget.NewLabel("No file chosen")
	d.fileLabel.Truncation = fyne.TextTruncateEllipsis
	d.chooseButton = widget.NewButtonWithIcon("Choose CSV...", theme.FolderOpenIcon(), d.chooseRoster)

	labels := make([]string, 0, len(models.UploadModes))
	for _, m := range models.UploadModes {
		labels = append(labels, m.Label())
	}
	d.modeSelect = widget.NewSelect(labels, func(label string) {
		d.mode = models.ParseUploadModeLabel(label)
	})
	d.modeSelect.SetSelected(d.mode.Label())

	d.autoCheck = widget.NewCheck("Allocate after upload", func(on bool) {
		d.autoAllocate = on
	})
	d.autoCheck.SetChecked(d.autoAllocate)

	d.uploadButton = NewPrimaryButtonWithIcon("Upload", theme.UploadIcon(), d.upload)
	d.uploadSummary = widget.NewLabel("")
	d.uploadSummary.Wrapping = fyne.TextWrapWord

	d.runButton = NewPrimaryButtonWithIcon("Run Allocation", theme.MediaPlayIcon(), func() {
		d.launch(d.engine.ManualRun)
	})
	d.latestButton = widget.NewButtonWithIcon("Load Latest", theme.HistoryIcon(), func() {
		d.launch(d.engine.LoadLatest)
	})
	d.runIDEntry = widget.NewEntry()
	d.runIDEntry.SetPlaceHolder("run_id")
	d.runIDEntry.OnSubmitted = func(string) { d.fetchByID() }
	d.fetchButton = widget.NewButtonWithIcon("Fetch", theme.SearchIcon(), d.fetchByID)
	d.downloadButton = widget.NewButtonWithIcon("Download CSV", theme.DownloadIcon(), d.download)

	d.resultsHeader = widget.NewLabel(resultsHeading(""))
	d.resultsHeader.TextStyle = fyne.TextStyle{Bold: true}
	d.resultsEmpty = widget.NewLabel("No results loaded.")
	d.resultsTable = newTable(models.ResultColumns,
		func() int { return len(d.results) },
		func(row int) []string { return d.results[row].Cells() },
		[]float32{160, 200, 180, 160, 120, 90, 100})

	d.addButton = NewPrimaryButtonWithIcon("Add Internship", theme.ContentAddIcon(), d.showInternshipDialog)
	d.refreshButton = widget.NewButtonWithIcon("Refresh", theme.ViewRefreshIcon(), func() {
		d.launch(d.engine.RefreshInternships)
	})
	d.internshipsEmpty = widget.NewLabel("No internships yet.")
	d.internshipsTable = newTable(models.InternshipColumns,
		func() int { return len(d.internships) },
		func(row int) []string { return d.internships[row].Cells() },
		[]float32{50, 160, 180, 140, 90, 80, 80, 60})

	d.statusBar = NewStatusBar()
}

// Build lays out the dashboard.
func (d *Dashboard) Build() fyne.CanvasObject {
	header := container.NewBorder(nil, nil,
		widget.NewLabelWithStyle("Internship Allocation Admin", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		d.healthLabel,
	)

	uploadCard := widget.NewCard("Upload Students", "",
		container.NewVBox(
			container.NewBorder(nil, nil, d.chooseButton, nil, d.fileLabel),
			container.NewHBox(widget.NewLabel("Mode:"), d.modeSelect, HorizontalSpacer(16), d.autoCheck),
			container.NewHBox(d.uploadButton),
			d.uploadSummary,
		))

	manualCard := widget.NewCard("Allocation", "",
		container.NewVBox(
			container.NewHBox(d.runButton, d.latestButton),
			container.NewBorder(nil, nil, widget.NewLabel("Run:"), d.fetchButton, d.runIDEntry),
			container.NewHBox(d.downloadButton),
		))

	controls := container.NewGridWithColumns(2, uploadCard, manualCard)

	resultsPane := container.NewBorder(d.resultsHeader, nil, nil, nil,
		container.NewStack(d.resultsTable, container.NewCenter(d.resultsEmpty)))

	internshipsPane := container.NewBorder(
		container.NewHBox(d.addButton, d.refreshButton), nil, nil, nil,
		container.NewStack(d.internshipsTable, container.NewCenter(d.internshipsEmpty)))

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Results", theme.ListIcon(), resultsPane),
		container.NewTabItemWithIcon("Internships", theme.DocumentIcon(), internshipsPane),
	)

	top := container.NewVBox(header, widget.NewSeparator(), controls, VerticalSpacer(8))
	bottom := container.NewVBox(widget.NewSeparator(), d.statusBar)
	return container.NewBorder(top, bottom, nil, nil, tabs)
}

// Start follows the engine's events and kicks off the initial health probe
// and internship load.
func (d *Dashboard) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.events = d.engine.Events().SubscribeAll()
	d.Render(d.engine.Store().Snapshot())

	d.wg.Add(1)
	go d.follow()

	go func() {
		d.engine.CheckHealth(d.ctx)
		d.engine.RefreshInternships(d.ctx)
	}()
}

// Stop detaches from the engine.
func (d *Dashboard) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	d.engine.Events().UnsubscribeAll(d.events)
	d.wg.Wait()
}

// follow re-renders from a fresh snapshot whenever the store reports a change.
// The bus never closes subscriber channels, so ctx ends the loop.
func (d *Dashboard) follow() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case ev := <-d.events:
			if ev.Type() != events.EventStateChanged {
				continue
			}
			snap := d.engine.Store().Snapshot()
			fyne.Do(func() { d.Render(snap) })
		}
	}
}

// Render applies a snapshot to the widgets. Must run on the main goroutine.
func (d *Dashboard) Render(snap state.Snapshot) {
	health := "API: " + snap.Health.String()
	if snap.Health == models.HealthDown && snap.HealthDetail != "" {
		health += " (" + snap.HealthDetail + ")"
	}
	d.healthLabel.SetText(health)

	if snap.Upload != nil {
		d.uploadSummary.SetText(snap.Upload.Summary())
	} else {
		d.uploadSummary.SetText("")
	}

	d.results = snap.Results
	d.resultsHeader.SetText(resultsHeading(snap.ActiveRunID))
	showIf(d.resultsEmpty, len(d.results) == 0)
	d.resultsTable.Refresh()

	d.internships = snap.Internships
	showIf(d.internshipsEmpty, len(d.internships) == 0)
	d.internshipsTable.Refresh()

	if snap.Status.Message != "" || snap.Busy {
		d.statusBar.SetStatus(snap.Status.Message, StatusLevelFor(snap.Status.Level, snap.Busy))
	}

	d.setBusy(snap.Busy)
	if !snap.HasRun() {
		d.downloadButton.Disable()
	}
}

func (d *Dashboard) setBusy(busy bool) {
	for _, w := range []fyne.Disableable{
		d.chooseButton, d.modeSelect, d.autoCheck, d.uploadButton,
		d.runButton, d.latestButton, d.runIDEntry, d.fetchButton, d.downloadButton,
		d.addButton, d.refreshButton,
	} {
		if busy {
			w.Disable()
		} else {
			w.Enable()
		}
	}
}

// launch runs a workflow off the main goroutine. Outcomes arrive as events.
func (d *Dashboard) launch(fn func(ctx context.Context) (models.WorkflowStatus, error)) {
	if d.engine.IsBusy() {
		d.statusBar.SetWarning(core.Message(core.ErrBusy))
		return
	}
	go func() {
		if _, err := fn(d.ctx); err != nil {
			d.logger.Debug().Err(err).Msg("Workflow settled with error")
		}
	}()
}

func (d *Dashboard) chooseRoster() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, d.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()
		d.setRoster(reader.URI().Path())
	}, d.window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".CSV"}))
	fd.Show()
}

func (d *Dashboard) setRoster(path string) {
	d.rosterPath = path
	if path == "" {
		d.fileLabel.SetText("No file chosen")
		return
	}
	d.fileLabel.SetText(path)
}

func (d *Dashboard) upload() {
	req := core.UploadRequest{Path: d.rosterPath, AutoAllocate: d.autoAllocate, Mode: d.mode}
	d.launch(func(ctx context.Context) (models.WorkflowStatus, error) {
		return d.engine.UploadAndMaybeAllocate(ctx, req)
	})
}

func (d *Dashboard) fetchByID() {
	runID := models.RunID(d.runIDEntry.Text)
	d.launch(func(ctx context.Context) (models.WorkflowStatus, error) {
		return d.engine.FetchByID(ctx, runID)
	})
}

func (d *Dashboard) download() {
	raw, err := d.engine.DownloadURL()
	if err != nil {
		d.statusBar.SetError(core.Message(err))
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		d.statusBar.SetError(fmt.Sprintf("Invalid download address: %v", err))
		return
	}
	if d.openURL == nil {
		d.statusBar.SetInfo(raw)
		return
	}
	if err := d.openURL(u); err != nil {
		d.statusBar.SetError(fmt.Sprintf("Cannot open browser: %v", err))
		return
	}
	d.statusBar.SetInfo("Opened " + raw)
}

func resultsHeading(runID models.RunID) string {
	return fmt.Sprintf("Results (Run: %s)", runID)
}

func showIf(o fyne.CanvasObject, visible bool) {
	if visible {
		o.Show()
	} else {
		o.Hide()
	}
}

// newTable builds a read-only table with a header row.
func newTable(columns []string, rows func() int, cells func(row int) []string, widths []float32) *widget.Table {
	t := widget.NewTable(
		func() (int, int) { return rows(), len(columns) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.Truncation = fyne.TextTruncateEllipsis
			return l
		},
		func(id widget.TableCellID, o fyne.CanvasObject) {
			label := o.(*widget.Label)
			if id.Row < 0 || id.Row >= rows() {
				label.SetText("")
				return
			}
			row := cells(id.Row)
			if id.Col < len(row) {
				label.SetText(row[id.Col])
			}
		},
	)
	t.ShowHeaderRow = true
	t.CreateHeader = func() fyne.CanvasObject {
		return widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}
	t.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		if id.Col >= 0 && id.Col < len(columns) {
			o.(*widget.Label).SetText(columns[id.Col])
		}
	}
	for i, w := range widths {
		t.SetColumnWidth(i, w)
	}
	return t
}
