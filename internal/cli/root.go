// Package cli provides the command-line interface for alloc-admin.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/logging"
	"github.com/pminternship/alloc-admin/internal/version"
)

var (
	cfgFile        string
	apiBaseURL     string
	apiVersion     string
	requestTimeout time.Duration
	metricsAddr    string
	logFile        string
	verbose        bool

	logger *logging.Logger

	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "alloc-admin",
		Short: "Operator client for the internship allocation service",
		Long: `alloc-admin ` + version.Version + ` - Built: ` + version.BuildTime + `
Upload student rosters, trigger allocation runs, browse and export results,
and manage internships on the allocation service.

CLI Mode (default):
  One command per workflow: upload, run, latest, results, internships.

Dashboards:
  alloc-admin gui   desktop window
  alloc-admin tui   terminal dashboard`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, file := "", logFile
			// best effort: a broken config surfaces later from loadConfig
			if cfg, err := config.Load(cfgFile); err == nil {
				level = cfg.LogLevel
				if file == "" {
					file = cfg.LogFile
				}
			}
			if verbose {
				level = "debug"
			}
			l, err := logging.New(logging.Options{Mode: logging.ModeCLI, Level: level, LogFile: file})
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-base", "", "Allocation service base URL (overrides config and "+config.EnvAPIBase+")")
	rootCmd.PersistentFlags().StringVar(&apiVersion, "api-version", "", "Route convention: v1 (/run/...) or v2 (/runs/...)")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 0, "Per-request timeout (0 = use config)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address (gui/tui only)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this rotated file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// completionGenerators maps each supported shell to its cobra generator.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletion(w) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletion(w) },
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	shells := make([]string, 0, len(completionGenerators))
	for shell := range completionGenerators {
		shells = append(shells, shell)
	}
	sort.Strings(shells)

	return &cobra.Command{
		Use:   "completion [" + strings.Join(shells, "|") + "]",
		Short: "Generate shell completion scripts",
		Long: `Print a completion script for your shell, for example:

  alloc-admin completion zsh > "${fpath[1]}/_alloc-admin"
  alloc-admin completion bash | sudo tee /etc/bash_completion.d/alloc-admin
  alloc-admin completion fish > ~/.config/fish/completions/alloc-admin.fish`,
		ValidArgs: shells,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](rootCmd.Root(), cmd.OutOrStdout())
		},
	}
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the context returned by
// GetContext; in-flight requests observe it and return.
func Execute() error {
	rootContext, cancelFunc = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelFunc()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)

	if rootContext.Err() != nil {
		fmt.Fprintln(os.Stderr, "Interrupted, cancelled in-flight requests.")
	}
	if err != nil && !IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if logger != nil {
		_ = logger.Close()
	}
	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newLatestCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newInternshipsCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newGUICmd())
	rootCmd.AddCommand(newTUICmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the signal-aware context set up by Execute.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig loads the config file and applies flags on top.
// Priority: flags > environment > config file > defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if apiBaseURL != "" {
		cfg.APIBaseURL = apiBaseURL
	}
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	if requestTimeout > 0 {
		cfg.RequestTimeout = requestTimeout
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alloc-admin %s (built %s)\n", version.Version, version.BuildTime)
		},
	}
}
