package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"

	"github.com/pminternship/alloc-admin/internal/api"
	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/constants"
	"github.com/pminternship/alloc-admin/internal/core"
	"github.com/pminternship/alloc-admin/internal/events"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/metrics"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/notify"
	"github.com/pminternship/alloc-admin/internal/progress"
)

// Session bundles everything a front end needs to drive the allocation
// service: one config, one API client, one engine.
type Session struct {
	Config  *config.Config
	Client  *api.Client
	Engine  *core.Engine
	Events  *events.EventBus
	Metrics *metrics.Metrics
	Logger  *logging.Logger
}

// SessionOptions adjusts NewSession for the front end in use.
type SessionOptions struct {
	// Notify enables desktop notifications when cfg.Notifications is also set.
	Notify bool
	// HTTPClient replaces the configured transport (tests).
	HTTPClient *nethttp.Client
}

// NewSession wires an Engine to the allocation service described by cfg.
func NewSession(cfg *config.Config, logger *logging.Logger, opts SessionOptions) (*Session, error) {
	m := metrics.New()
	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	m.WatchDroppedEvents(bus.Dropped)

	clientOpts := []api.Option{
		api.WithObserver(m),
		api.WithLogger(logger.Named("api").Zerolog()),
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	client, err := api.NewClient(cfg, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	engineOpts := []core.Option{
		core.WithRecorder(m),
		core.WithLogger(logger),
	}
	if opts.Notify && cfg.Notifications {
		engineOpts = append(engineOpts, core.WithNotifier(notify.NewNotifier(true, logger)))
	}

	return &Session{
		Config:  cfg,
		Client:  client,
		Engine:  core.NewEngine(client, bus, engineOpts...),
		Events:  bus,
		Metrics: m,
		Logger:  logger,
	}, nil
}

// ServeMetrics exposes the session registry when a metrics address is configured.
func (s *Session) ServeMetrics(ctx context.Context) {
	if s.Config.MetricsAddr == "" {
		return
	}
	go func() {
		s.Logger.Info().Str("addr", s.Config.MetricsAddr).Msg("Serving metrics")
		if err := s.Metrics.Serve(ctx, s.Config.MetricsAddr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			s.Logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

// Close releases the event bus.
func (s *Session) Close() {
	s.Events.Close()
}

// newCLISession loads config and builds a session for a one-shot command.
func newCLISession() (*Session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return NewSession(cfg, GetLogger(), SessionOptions{})
}

// runWorkflow runs fn with a spinner on stderr that follows the engine's
// status messages.
func runWorkflow(s *Session, description string, fn func(ctx context.Context) (models.WorkflowStatus, error)) (models.WorkflowStatus, error) {
	statusCh := s.Events.Subscribe(events.EventStatus)
	defer s.Events.Unsubscribe(events.EventStatus, statusCh)

	spinner := progress.StartSpinner(progress.NewReporter(os.Stderr), description)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-statusCh:
				if !ok {
					return
				}
				if se, ok := ev.(*events.StatusEvent); ok {
					spinner.Describe(se.Message)
				}
			}
		}
	}()

	status, err := fn(GetContext())
	close(stop)
	<-done
	spinner.Stop()
	return status, err
}

// settle prints a workflow's final status line and converts it to the
// command's error.
func settle(out io.Writer, status models.WorkflowStatus, err error) error {
	if status.Message != "" {
		fmt.Fprintln(out, status.Message)
	}
	if err != nil {
		return &exitError{msg: core.Message(err), err: err}
	}
	return nil
}

// exitError carries a message that has already been printed.
type exitError struct {
	msg string
	err error
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) Unwrap() error { return e.err }

// IsReported reports whether err's message was already printed by the command.
func IsReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee)
}
