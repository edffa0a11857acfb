// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/http"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage alloc-admin configuration",
		Long: `Configuration management commands for alloc-admin.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test the connection to the allocation service
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// prompter reads answers for 'config init'.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p *prompter) ask(question, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", question, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", question)
	}
	input, _ := p.reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return def
	}
	return input
}

func (p *prompter) askInt(question string, def int) int {
	if v, err := strconv.Atoi(p.ask(question, strconv.Itoa(def))); err == nil && v >= 0 {
		return v
	}
	return def
}

func (p *prompter) askBool(question string, def bool) bool {
	d := "y/N"
	if def {
		d = "Y/n"
	}
	switch strings.ToLower(p.ask(question+" ("+d+")", "")) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for alloc-admin.

The configuration is saved to ` + config.DefaultConfigPath() + `
(or the --config path). Proxy passwords are never written to the file;
set ` + config.EnvProxyPassword + ` instead.

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "alloc-admin Configuration Setup")
			fmt.Fprintln(out, "===============================")
			fmt.Fprintln(out)

			p := &prompter{reader: bufio.NewReader(cmd.InOrStdin()), out: out}
			cfg := config.Default()

			cfg.APIBaseURL = p.ask("Allocation service URL", cfg.APIBaseURL)
			cfg.APIVersion = p.ask("Route convention (v1 or v2)", cfg.APIVersion)
			if d, err := time.ParseDuration(p.ask("Request timeout", cfg.RequestTimeout.String())); err == nil {
				cfg.RequestTimeout = d
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Upload Defaults")
			fmt.Fprintln(out, "---------------")
			cfg.AutoAllocate = p.askBool("Allocate on upload", cfg.AutoAllocate)
			cfg.UploadMode = p.ask("Upload mode (upsert, skip, replace_all)", cfg.UploadMode)

			fmt.Fprintln(out)
			if p.askBool("Configure proxy?", false) {
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				cfg.ProxyMode = p.ask("Proxy mode", "system")
				if cfg.ProxyMode != "no-proxy" && cfg.ProxyMode != "system" {
					cfg.ProxyHost = p.ask("Proxy host", "")
					cfg.ProxyPort = p.askInt("Proxy port", cfg.ProxyPort)
					cfg.ProxyUser = p.ask("Proxy user", "")
				}
				cfg.NoProxy = p.ask("Hosts that bypass the proxy (comma-separated)", "")
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			logger.Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			if http.NeedsProxyPassword(cfg) {
				fmt.Fprintf(out, "  Set %s before running commands through the proxy.\n", config.EnvProxyPassword)
			}
			fmt.Fprintln(out, "Test your configuration with: alloc-admin config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")
	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration.

Priority: flags > environment (` + config.EnvAPIBase + `, ` + config.EnvAPIVersion + `, ...; .env honored) > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "API Settings:")
			fmt.Fprintf(out, "  Base URL:        %s\n", cfg.APIBaseURL)
			fmt.Fprintf(out, "  Route version:   %s\n", cfg.APIVersion)
			fmt.Fprintf(out, "  Request timeout: %s\n", cfg.RequestTimeout)
			fmt.Fprintf(out, "  Max retries:     %d\n", cfg.MaxRetries)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Upload Defaults:")
			fmt.Fprintf(out, "  Auto allocate: %t\n", cfg.AutoAllocate)
			fmt.Fprintf(out, "  Mode:          %s\n", cfg.UploadMode)
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Proxy Settings:")
			fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
				fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
			}
			if cfg.ProxyPassword != "" {
				// never display any portion of the password
				fmt.Fprintln(out, "  Password:   <set>")
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Export Targets:")
			fmt.Fprintf(out, "  S3 region:     %s\n", orNotSet(cfg.S3Region))
			fmt.Fprintf(out, "  S3 keys:       %s\n", setOrNot(cfg.S3AccessKey != ""))
			fmt.Fprintf(out, "  Azure SAS URL: %s\n", setOrNot(cfg.AzureSASURL != ""))
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Log level: %s\n", cfg.LogLevel)
			if cfg.LogFile != "" {
				fmt.Fprintf(out, "Log file:  %s\n", cfg.LogFile)
			}
			fmt.Fprintln(out)

			path := configPath()
			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

func orNotSet(s string) string {
	if s == "" {
		return "<not set>"
	}
	return s
}

func setOrNot(set bool) string {
	if set {
		return "<set>"
	}
	return "<not set>"
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test the connection to the allocation service",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			fmt.Fprintf(out, "Service URL: %s\n", s.Client.BaseURL())
			fmt.Fprintln(out, "Testing connection...")

			if _, err := s.Engine.CheckHealth(GetContext()); err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return &exitError{msg: "connection test failed", err: err}
			}

			logger.Info().Msg("Connection test successful")
			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(cmd.ErrOrStderr(), "(file does not exist - run 'alloc-admin config init')")
			}
			return nil
		},
	}
}
