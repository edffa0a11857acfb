package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/validation"
)

// newInternshipsCmd creates the 'internships' command group.
func newInternshipsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "internships",
		Aliases: []string{"internship"},
		Short:   "List and create internships",
	}

	cmd.AddCommand(newInternshipsListCmd())
	cmd.AddCommand(newInternshipsCreateCmd())
	return cmd
}

func newInternshipsListCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List internships",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := runWorkflow(s, "Loading internships...", s.Engine.RefreshInternships)
			if err != nil {
				return settle(cmd.ErrOrStderr(), status, err)
			}

			items := s.Engine.Store().Snapshot().Internships
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printInternships(cmd.OutOrStdout(), items)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&outputJSON, "json", "J", false, "Output as JSON")
	return cmd
}

func newInternshipsCreateCmd() *cobra.Command {
	var (
		fromFile string
		req      = models.NewInternshipRequest()
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an internship",
		Long: `Create one internship from flags, or several from a JSON file.

The JSON file holds one object or a list of objects with the fields
org_name, title, location, pincode, capacity, min_cgpa, req_skills_text.

Examples:
  alloc-admin internships create --org Acme --title "Data Intern" --capacity 3
  alloc-admin internships create --from-file internships.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reqs []models.InternshipRequest
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", fromFile, err)
				}
				reqs, err = validation.ParseInternships(data)
				if err != nil {
					return err
				}
			} else {
				reqs = []models.InternshipRequest{req}
			}

			s, err := newCLISession()
			if err != nil {
				return err
			}
			defer s.Close()

			for _, r := range reqs {
				status, err := runWorkflow(s, "Creating internship...", func(ctx context.Context) (models.WorkflowStatus, error) {
					return s.Engine.CreateInternship(ctx, r)
				})
				if err := settle(cmd.OutOrStdout(), status, err); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromFile, "from-file", "f", "", "JSON file with one internship or a list")
	cmd.Flags().StringVar(&req.OrgName, "org", "", "Organization name (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Internship title (required)")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().StringVar(&req.Pincode, "pincode", "", "Pincode")
	cmd.Flags().IntVar(&req.Capacity, "capacity", req.Capacity, "Number of seats")
	cmd.Flags().Float64Var(&req.MinCGPA, "min-cgpa", req.MinCGPA, "Minimum CGPA (0-10)")
	cmd.Flags().StringVar(&req.ReqSkillsText, "skills", "", "Required skills, free text")
	cmd.MarkFlagsMutuallyExclusive("from-file", "org")
	cmd.MarkFlagsMutuallyExclusive("from-file", "title")

	return cmd
}
