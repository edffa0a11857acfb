// Package core orchestrates the allocation workflows: upload, trigger, fetch
// and internship management. Every front end drives the same Engine.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pminternship/alloc-admin/internal/api"
	"github.com/pminternship/alloc-admin/internal/events"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/state"
	"github.com/pminternship/alloc-admin/internal/validation"
)

// Workflow names used in logs, events and metrics.
const (
	WorkflowUpload             = "upload"
	WorkflowManualRun          = "manual_run"
	WorkflowLoadLatest         = "load_latest"
	WorkflowFetchByID          = "fetch_by_id"
	WorkflowRefreshInternships = "refresh_internships"
	WorkflowCreateInternship   = "create_internship"
	WorkflowHealth             = "health"
)

// Transport is the remote surface the Engine depends on. *api.Client implements it.
type Transport interface {
	CheckHealth(ctx context.Context) error
	UploadStudents(ctx context.Context, file models.UploadFile, opts models.UploadOptions) (*models.UploadOutcome, error)
	TriggerRun(ctx context.Context) (models.RunID, error)
	FetchLatestRun(ctx context.Context) (models.RunID, error)
	FetchRunResults(ctx context.Context, runID models.RunID) (*models.RunResults, error)
	ListInternships(ctx context.Context) ([]models.InternshipListing, error)
	CreateInternship(ctx context.Context, req models.InternshipRequest) (*models.CreatedInternship, error)
	DownloadURL(runID models.RunID) string
}

// Recorder receives workflow lifecycle samples. *metrics.Metrics implements it.
type Recorder interface {
	WorkflowStarted(workflow string)
	WorkflowSettled(workflow, outcome string)
	BusyRejected(workflow string)
}

// Notifier surfaces settled workflows outside the window. *notify.Notifier implements it.
type Notifier interface {
	Notify(title, message string, isError bool)
}

// UploadRequest carries the upload form state into UploadAndMaybeAllocate.
type UploadRequest struct {
	Path         string
	AutoAllocate bool
	Mode         models.UploadMode
}

// Engine runs workflows against a Transport and commits results to a Store.
type Engine struct {
	transport Transport
	store     *state.Store
	eventBus  *events.EventBus
	logger    *logging.Logger
	recorder  Recorder
	notifier  Notifier

	busy atomic.Bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithNotifier attaches a desktop notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine with its own store on eventBus.
func NewEngine(transport Transport, eventBus *events.EventBus, opts ...Option) *Engine {
	e := &Engine{
		transport: transport,
		store:     state.NewStore(eventBus),
		eventBus:  eventBus,
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("engine")
	return e
}

// Store returns the state store. Front ends only read from it.
func (e *Engine) Store() *state.Store {
	return e.store
}

// Events returns the event bus.
func (e *Engine) Events() *events.EventBus {
	return e.eventBus
}

// IsBusy reports whether a guarded workflow is running.
func (e *Engine) IsBusy() bool {
	return e.busy.Load()
}

// begin takes the single-flight guard.
func (e *Engine) begin(workflow string) bool {
	if !e.busy.CompareAndSwap(false, true) {
		if e.recorder != nil {
			e.recorder.BusyRejected(workflow)
		}
		e.logger.Debug().Str("workflow", workflow).Msg("Rejected: another operation is in progress")
		return false
	}
	e.store.SetBusy(true, workflow)
	if e.recorder != nil {
		e.recorder.WorkflowStarted(workflow)
	}
	return true
}

// end releases the guard. Always deferred right after a successful begin.
func (e *Engine) end(workflow string) {
	e.busy.Store(false)
	e.store.SetBusy(false, workflow)
}

// guarded runs fn under the single-flight guard with a fresh request id.
func (e *Engine) guarded(ctx context.Context, workflow string, fn func(ctx context.Context) (models.WorkflowStatus, error)) (status models.WorkflowStatus, err error) {
	if !e.begin(workflow) {
		return models.SettledErr(Message(ErrBusy), ErrBusy), ErrBusy
	}
	defer e.end(workflow)

	requestID := api.NewRequestID()
	ctx = api.WithRequestID(ctx, requestID)
	start := time.Now()

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		if e.recorder != nil {
			e.recorder.WorkflowSettled(workflow, outcome)
		}
		ev := e.logger.Info()
		if err != nil {
			ev = e.logger.Warn().Err(err)
		}
		ev.Str("workflow", workflow).Str("request_id", requestID).Dur("elapsed", time.Since(start)).
			Msg(status.Message)
		if e.notifier != nil {
			e.notifier.Notify(notifyTitle(workflow), status.Message, err != nil)
		}
	}()

	return fn(ctx)
}

func notifyTitle(workflow string) string {
	switch workflow {
	case WorkflowUpload:
		return "Upload finished"
	case WorkflowManualRun:
		return "Allocation finished"
	case WorkflowCreateInternship:
		return "Internship saved"
	default:
		return "Allocation admin"
	}
}

func (e *Engine) progress(workflow, message string) {
	e.store.SetStatus(state.Status{Workflow: workflow, Message: message, Level: events.LevelInfo})
}

func (e *Engine) succeed(workflow, message string) models.WorkflowStatus {
	e.store.SetStatus(state.Status{Workflow: workflow, Message: message, Level: events.LevelSuccess})
	return models.Settled(message)
}

func (e *Engine) fail(workflow string, err error) (models.WorkflowStatus, error) {
	return e.failWith(workflow, "Error: "+Message(err), err)
}

func (e *Engine) failWith(workflow, message string, err error) (models.WorkflowStatus, error) {
	e.store.SetStatus(state.Status{Workflow: workflow, Message: message, Level: events.LevelError})
	return models.SettledErr(message, err), err
}

// rejectInvalid reports a validation failure without touching the busy flag.
func (e *Engine) rejectInvalid(workflow string, err *ValidationError) (models.WorkflowStatus, error) {
	if e.recorder != nil {
		e.recorder.WorkflowSettled(workflow, "invalid")
	}
	return e.failWith(workflow, err.Message, err)
}

// UploadAndMaybeAllocate uploads a roster and, when the service allocated as
// part of the upload, loads that run's results.
func (e *Engine) UploadAndMaybeAllocate(ctx context.Context, req UploadRequest) (models.WorkflowStatus, error) {
	if err := validation.ValidateRosterPath(req.Path); err != nil {
		msg := "Please choose a CSV first."
		if !errors.Is(err, validation.ErrNoRoster) {
			msg = err.Error()
		}
		return e.rejectInvalid(WorkflowUpload, invalid("file", msg, err))
	}
	mode := req.Mode
	if mode == "" {
		mode = models.UploadModeUpsert
	}

	return e.guarded(ctx, WorkflowUpload, func(ctx context.Context) (models.WorkflowStatus, error) {
		if req.AutoAllocate {
			e.progress(WorkflowUpload, "Uploading CSV & allocating...")
		} else {
			e.progress(WorkflowUpload, "Uploading CSV...")
		}

		f, err := os.Open(req.Path)
		if err != nil {
			return e.fail(WorkflowUpload, fmt.Errorf("cannot read roster file: %w", err))
		}
		defer f.Close()

		var size int64
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}

		outcome, err := e.transport.UploadStudents(ctx,
			models.UploadFile{Name: filepath.Base(req.Path), Reader: f, Size: size},
			models.UploadOptions{AutoAllocate: req.AutoAllocate, Mode: mode})
		if err != nil {
			return e.fail(WorkflowUpload, err)
		}
		e.store.SetUploadOutcome(*outcome)

		uploaded := fmt.Sprintf("Uploaded %d students.", outcome.Uploaded)
		if outcome.RunID.IsZero() {
			return e.succeed(WorkflowUpload, uploaded), nil
		}

		results, err := e.transport.FetchRunResults(ctx, outcome.RunID)
		if err != nil {
			return e.failWith(WorkflowUpload,
				fmt.Sprintf("%s run_id=%s | Error loading results: %s", uploaded, outcome.RunID, Message(err)), err)
		}
		e.store.SetRunAndResults(outcome.RunID, results.Rows())

		return e.succeed(WorkflowUpload,
			fmt.Sprintf("%s run_id=%s | Allocation complete", uploaded, outcome.RunID)), nil
	})
}

// ManualRun triggers an allocation over the current roster and loads its results.
// If the results cannot be loaded the previous run stays selected.
func (e *Engine) ManualRun(ctx context.Context) (models.WorkflowStatus, error) {
	return e.guarded(ctx, WorkflowManualRun, func(ctx context.Context) (models.WorkflowStatus, error) {
		e.progress(WorkflowManualRun, "Running allocation...")

		runID, err := e.transport.TriggerRun(ctx)
		if err != nil {
			return e.fail(WorkflowManualRun, err)
		}

		results, err := e.transport.FetchRunResults(ctx, runID)
		if err != nil {
			return e.fail(WorkflowManualRun, err)
		}
		e.store.SetRunAndResults(runID, results.Rows())

		return e.succeed(WorkflowManualRun, fmt.Sprintf("Allocation complete. run_id=%s", runID)), nil
	})
}

// LoadLatest selects the most recent run. With no runs yet nothing changes.
func (e *Engine) LoadLatest(ctx context.Context) (models.WorkflowStatus, error) {
	return e.guarded(ctx, WorkflowLoadLatest, func(ctx context.Context) (models.WorkflowStatus, error) {
		e.progress(WorkflowLoadLatest, "Fetching latest run...")

		runID, err := e.transport.FetchLatestRun(ctx)
		if err != nil {
			return e.fail(WorkflowLoadLatest, err)
		}
		if runID.IsZero() {
			return e.succeed(WorkflowLoadLatest, "No runs yet"), nil
		}

		results, err := e.transport.FetchRunResults(ctx, runID)
		if err != nil {
			return e.fail(WorkflowLoadLatest, err)
		}
		e.store.SetRunAndResults(runID, results.Rows())

		return e.succeed(WorkflowLoadLatest, fmt.Sprintf("Loaded latest run: %s", runID)), nil
	})
}

// FetchByID selects a run by its identifier.
func (e *Engine) FetchByID(ctx context.Context, runID models.RunID) (models.WorkflowStatus, error) {
	runID = models.RunID(strings.TrimSpace(string(runID)))
	if runID.IsZero() {
		return e.rejectInvalid(WorkflowFetchByID, invalid("run_id", "Enter a run_id first.", nil))
	}

	return e.guarded(ctx, WorkflowFetchByID, func(ctx context.Context) (models.WorkflowStatus, error) {
		e.progress(WorkflowFetchByID, fmt.Sprintf("Loading results for run %s...", runID))

		results, err := e.transport.FetchRunResults(ctx, runID)
		if err != nil {
			return e.fail(WorkflowFetchByID, err)
		}
		rows := results.Rows()
		e.store.SetRunAndResults(runID, rows)

		return e.succeed(WorkflowFetchByID, fmt.Sprintf("Loaded %d results for run %s", len(rows), runID)), nil
	})
}

// RefreshInternships reloads the internship list.
func (e *Engine) RefreshInternships(ctx context.Context) (models.WorkflowStatus, error) {
	return e.guarded(ctx, WorkflowRefreshInternships, func(ctx context.Context) (models.WorkflowStatus, error) {
		e.progress(WorkflowRefreshInternships, "Loading internships...")
		return e.refreshInternships(ctx, WorkflowRefreshInternships, "")
	})
}

func (e *Engine) refreshInternships(ctx context.Context, workflow, prefix string) (models.WorkflowStatus, error) {
	items, err := e.transport.ListInternships(ctx)
	if err != nil {
		if prefix != "" {
			return e.failWith(workflow, prefix+" | Error refreshing list: "+Message(err), err)
		}
		return e.fail(workflow, err)
	}
	e.store.SetInternships(items)

	msg := fmt.Sprintf("Loaded %d internships", len(items))
	if prefix != "" {
		msg = prefix
	}
	return e.succeed(workflow, msg), nil
}

// CreateInternship validates and creates an internship, then reloads the list.
func (e *Engine) CreateInternship(ctx context.Context, req models.InternshipRequest) (models.WorkflowStatus, error) {
	req = req.Normalized()
	if req.OrgName == "" || req.Title == "" {
		return e.rejectInvalid(WorkflowCreateInternship, invalid("org_name", "Org and Title required", nil))
	}
	if err := validation.ValidateInternship(req); err != nil {
		return e.rejectInvalid(WorkflowCreateInternship, invalid("internship", err.Error(), err))
	}

	return e.guarded(ctx, WorkflowCreateInternship, func(ctx context.Context) (models.WorkflowStatus, error) {
		e.progress(WorkflowCreateInternship, "Creating internship...")

		created, err := e.transport.CreateInternship(ctx, req)
		if err != nil {
			return e.fail(WorkflowCreateInternship, err)
		}

		msg := "Internship created"
		if created != nil && created.ID != 0 {
			msg = fmt.Sprintf("Internship created (id=%d)", created.ID)
		}
		return e.refreshInternships(ctx, WorkflowCreateInternship, msg)
	})
}

// CheckHealth probes the service and updates the header indicator.
// It is read-only and does not take the busy guard.
func (e *Engine) CheckHealth(ctx context.Context) (models.WorkflowStatus, error) {
	ctx = api.WithRequestID(ctx, api.NewRequestID())
	e.store.SetHealth(models.HealthUnknown, "")

	if err := e.transport.CheckHealth(ctx); err != nil {
		msg := Message(err)
		e.store.SetHealth(models.HealthDown, msg)
		e.logger.Warn().Err(err).Str("workflow", WorkflowHealth).Msg("Allocation service unreachable")
		return models.SettledErr("API: "+models.HealthDown.String(), err), err
	}

	e.store.SetHealth(models.HealthUp, "")
	return models.Settled("API: " + models.HealthUp.String()), nil
}

// DownloadURL returns the CSV export address of the active run.
func (e *Engine) DownloadURL() (string, error) {
	runID := e.store.Snapshot().ActiveRunID
	if runID.IsZero() {
		return "", invalid("run_id", "Load a run first.", nil)
	}
	return e.transport.DownloadURL(runID), nil
}
