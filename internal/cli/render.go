package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pminternship/alloc-admin/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(out io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())
}

func printResults(out io.Writer, runID models.RunID, rows []models.ResultRow) {
	fmt.Fprintf(out, "Results (Run: %s, %d rows)\n", runID, len(rows))
	if len(rows) == 0 {
		fmt.Fprintln(out, "No results loaded.")
		return
	}
	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.Cells())
	}
	renderTable(out, models.ResultColumns, cells)
}

func printInternships(out io.Writer, items []models.InternshipListing) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No internships yet.")
		return
	}
	fmt.Fprintf(out, "Found %d internship(s):\n", len(items))
	cells := make([][]string, 0, len(items))
	for _, it := range items {
		cells = append(cells, it.Cells())
	}
	renderTable(out, models.InternshipColumns, cells)
}

func printJSON(out io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
