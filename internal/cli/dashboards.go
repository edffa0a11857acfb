package cli

import (
	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/gui"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/tui"
)

// newGUICmd creates the 'gui' command.
func newGUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gui",
		Short: "Open the desktop dashboard",
		Long: `Open the desktop dashboard: upload rosters, run allocations, browse
results and manage internships in one window.

Settled workflows raise a desktop notification unless notifications are
disabled in the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(logging.ModeGUI, true, func(s *Session, mode models.UploadMode) error {
				return gui.Run(GetContext(), s.Engine, gui.Options{
					AutoAllocate: s.Config.AutoAllocate,
					UploadMode:   mode,
					Logger:       s.Logger,
				})
			})
		},
	}
}

// newTUICmd creates the 'tui' command.
func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal dashboard",
		Long: `Open the keyboard-driven terminal dashboard.

Logs go to the configured log file only (--log-file or log_file), since
the terminal belongs to the dashboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(logging.ModeTUI, false, func(s *Session, mode models.UploadMode) error {
				return tui.Run(GetContext(), s.Engine, tui.Options{
					AutoAllocate: s.Config.AutoAllocate,
					UploadMode:   mode,
					Logger:       s.Logger,
				})
			})
		},
	}
}

// runDashboard switches the logger to the dashboard's mode, builds a
// long-lived session and hands it to run.
func runDashboard(mode logging.Mode, notify bool, run func(s *Session, mode models.UploadMode) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	uploadMode, err := models.ParseUploadMode(cfg.UploadMode)
	if err != nil {
		return err
	}

	l, err := dashboardLogger(cfg, mode)
	if err != nil {
		return err
	}
	if logger != nil {
		_ = logger.Close()
	}
	logger = l

	s, err := NewSession(cfg, l, SessionOptions{Notify: notify})
	if err != nil {
		return err
	}
	defer s.Close()

	s.ServeMetrics(GetContext())
	return run(s, uploadMode)
}

func dashboardLogger(cfg *config.Config, mode logging.Mode) (*logging.Logger, error) {
	level, file := cfg.LogLevel, logFile
	if file == "" {
		file = cfg.LogFile
	}
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Mode: mode, Level: level, LogFile: file})
}
