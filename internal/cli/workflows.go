package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/core"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/pathutil"
)

// newHealthCmd creates the 'health' command.
func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the allocation service is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := s.Engine.CheckHealth(GetContext())
			status.Message = fmt.Sprintf("%s (%s)", status.Message, s.Client.BaseURL())
			return settle(cmd.OutOrStdout(), status, err)
		},
	}
}

// newUploadCmd creates the 'upload' command.
func newUploadCmd() *cobra.Command {
	var (
		modeFlag     string
		autoAllocate bool
		noAllocate   bool
		outputJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "upload <roster.csv>",
		Short: "Upload a student roster and optionally allocate",
		Long: `Upload a student roster CSV to the allocation service.

With auto-allocation (the default from config) the service runs an
allocation as part of the upload and the results of that run are shown.

Modes:
  upsert       update existing students, insert new ones (default)
  skip         keep existing students untouched
  replace_all  drop the current roster first

Examples:
  alloc-admin upload students.csv
  alloc-admin upload students.csv --mode replace_all
  alloc-admin upload students.csv --no-allocate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			if modeFlag == "" {
				modeFlag = s.Config.UploadMode
			}
			mode, err := models.ParseUploadMode(modeFlag)
			if err != nil {
				return err
			}

			auto := s.Config.AutoAllocate
			if cmd.Flags().Changed("auto-allocate") {
				auto = autoAllocate
			}
			if noAllocate {
				auto = false
			}

			path, err := pathutil.ResolveAbsolutePath(args[0])
			if err != nil {
				return fmt.Errorf("invalid roster path: %w", err)
			}

			req := core.UploadRequest{Path: path, AutoAllocate: auto, Mode: mode}
			status, err := runWorkflow(s, "Uploading CSV...", func(ctx context.Context) (models.WorkflowStatus, error) {
				return s.Engine.UploadAndMaybeAllocate(ctx, req)
			})
			if err := settle(cmd.ErrOrStderr(), status, err); err != nil {
				return err
			}

			snap := s.Engine.Store().Snapshot()
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"upload":  snap.Upload,
					"run_id":  snap.ActiveRunID,
					"results": snap.Results,
				})
			}
			if snap.Upload != nil {
				fmt.Fprintln(cmd.OutOrStdout(), snap.Upload.Summary())
			}
			if snap.HasRun() {
				printResults(cmd.OutOrStdout(), snap.ActiveRunID, snap.Results)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&modeFlag, "mode", "m", "", "Duplicate handling: upsert, skip or replace_all (default from config)")
	cmd.Flags().BoolVarP(&autoAllocate, "auto-allocate", "a", true, "Allocate as part of the upload (default from config)")
	cmd.Flags().BoolVar(&noAllocate, "no-allocate", false, "Upload only; do not allocate")
	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")

	return cmd
}

// newRunCmd creates the 'run' command.
func newRunCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger an allocation over the current roster",
		Long: `Trigger an allocation run on the service and show its results.

Examples:
  alloc-admin run
  alloc-admin run --json > run.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := runWorkflow(s, "Running allocation...", s.Engine.ManualRun)
			if err := settle(cmd.ErrOrStderr(), status, err); err != nil {
				return err
			}
			return showActiveRun(cmd, s, outputJSON)
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")
	return cmd
}

// newLatestCmd creates the 'latest' command.
func newLatestCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent allocation run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := runWorkflow(s, "Fetching latest run...", s.Engine.LoadLatest)
			if err := settle(cmd.ErrOrStderr(), status, err); err != nil {
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

// showActiveRun prints the store's active run.
func showActiveRun(cmd *cobra.Command, s *Session, outputJSON bool) error {
	snap := s.Engine.Store().Snapshot()
	if outputJSON {
		return printJSON(cmd.OutOrStdout(), models.RunResults{Count: len(snap.Results), Results: snap.Results})
	}
	printResults(cmd.OutOrStdout(), snap.ActiveRunID, snap.Results)
	return nil
}
