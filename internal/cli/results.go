package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/export"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/pathutil"
	"github.com/pminternship/alloc-admin/internal/progress"
)

// newResultsCmd creates the 'results' command group.
func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse and export allocation results",
		Long: `Result commands for allocation runs.

Commands:
  fetch     - Show the results of a run (latest when no run id is given)
  url       - Print the CSV export address of a run
  download  - Save the CSV export of a run, optionally archiving a copy`,
	}

	cmd.AddCommand(newResultsFetchCmd())
	cmd.AddCommand(newResultsURLCmd())
	cmd.AddCommand(newResultsDownloadCmd())
	return cmd
}

// selectRun loads runID, or the latest run when runID is empty, into the store.
func selectRun(cmd *cobra.Command, s *Session, runID string) error {
	var (
		status models.WorkflowStatus
		err    error
	)
	if strings.TrimSpace(runID) == "" {
		status, err = runWorkflow(s, "Fetching latest run...", s.Engine.LoadLatest)
	} else {
		status, err = runWorkflow(s, "Fetching results...", func(ctx context.Context) (models.WorkflowStatus, error) {
			return s.Engine.FetchByID(ctx, models.RunID(runID))
		})
	}
	return settle(cmd.ErrOrStderr(), status, err)
}

func runArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newResultsFetchCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "fetch [run-id]",
		Short: "Show the results of a run",
		Long: `Show the results of a run. Without a run id the latest run is shown.

Examples:
  alloc-admin results fetch
  alloc-admin results fetch 42 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := selectRun(cmd, s, runArg(args)); err != nil {
				return err
			}
			if !s.Engine.Store().Snapshot().HasRun() {
				return nil
			}
			return showActiveRun(cmd, s, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")
	return cmd
}

func newResultsURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url [run-id]",
		Short: "Print the CSV export address of a run",
		Long: `Print the CSV export address of a run. Without a run id the latest run is used.
No request is made when a run id is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			if id := strings.TrimSpace(runArg(args)); id != "" {
				fmt.Fprintln(cmd.OutOrStdout(), s.Client.DownloadURL(models.RunID(id)))
				return nil
			}

			if err := selectRun(cmd, s, ""); err != nil {
				return err
			}
			url, err := s.Engine.DownloadURL()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newResultsDownloadCmd() *cobra.Command {
	var (
		outputDir string
		archive   []string
	)

	cmd := &cobra.Command{
		Use:   "download [run-id]",
		Short: "Save the CSV export of a run",
		Long: `Download the CSV export of a run into a local directory. Without a run id
the latest run is used.

--archive copies the saved file to one or more destinations:
  file:///srv/exports/        local directory (or a bare path)
  s3://bucket/prefix/         S3 bucket (export.s3_* settings or the AWS default chain)
  azblob://container/prefix/  Azure blob container (export.azure_sas_url)

Examples:
  alloc-admin results download 42 -o exports/
  alloc-admin results download --archive s3://alloc-archive/runs/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := GetContext()
			logger := GetLogger()

			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			dir, err := pathutil.ResolveAbsolutePath(outputDir)
			if err != nil {
				return fmt.Errorf("invalid output directory: %w", err)
			}

			// parse targets before any transfer so a typo fails fast
			targets := make([]export.Target, 0, len(archive))
			for _, raw := range archive {
				t, err := export.ParseTarget(raw)
				if err != nil {
					return err
				}
				targets = append(targets, t)
			}

			runID := models.RunID(strings.TrimSpace(runArg(args)))
			if runID.IsZero() {
				if err := selectRun(cmd, s, ""); err != nil {
					return err
				}
				runID = s.Engine.Store().Snapshot().ActiveRunID
				if runID.IsZero() {
					return fmt.Errorf("no runs yet")
				}
			}

			ui := progress.NewTransferUI(os.Stderr)
			path, n, err := export.SaveRunCSV(ctx, s.Client, runID, dir, ui)
			ui.Wait()
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			logger.Info().Str("run_id", string(runID)).Str("path", path).Int64("bytes", n).Msg("Export saved")
			fmt.Fprintln(cmd.OutOrStdout(), path)

			for _, t := range targets {
				sink, err := export.NewSink(ctx, t, s.Config, export.WithLogger(logger.Named("export").Zerolog()))
				if err != nil {
					return err
				}

				spinner := progress.StartSpinner(progress.NewReporter(os.Stderr), "Archiving to "+t.String())
				dest, err := sink.Put(ctx, path)
				spinner.Stop()
				if err != nil {
					return err
				}
				logger.Info().Str("target", dest).Msg("Export archived")
				fmt.Fprintln(cmd.OutOrStdout(), dest)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory to save the CSV into")
	cmd.Flags().StringArrayVar(&archive, "archive", nil, "Also copy the CSV to this target (repeatable)")
	return cmd
}
