package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pminternship/alloc-admin/internal/models"
)

// Routes is the path table for one API generation.
type Routes struct {
	Version     string
	Health      string
	Upload      string
	TriggerRun  string
	LatestRun   string
	resultsFmt  string
	downloadFmt string
	Internships string
}

var (
	// RoutesV2 is the current layout (/runs/...).
	RoutesV2 = Routes{
		Version:     "v2",
		Health:      "/health",
		Upload:      "/upload/students",
		TriggerRun:  "/run",
		LatestRun:   "/runs/latest",
		resultsFmt:  "/runs/%s/results",
		downloadFmt: "/download/%s.csv",
		Internships: "/internships",
	}

	// RoutesV1 is the legacy backend layout (/run/...).
	RoutesV1 = Routes{
		Version:     "v1",
		Health:      "/health",
		Upload:      "/upload/students",
		TriggerRun:  "/run/",
		LatestRun:   "/run/latest",
		resultsFmt:  "/run/%s/results",
		downloadFmt: "/download/%s.csv",
		Internships: "/internships",
	}
)

// RoutesFor returns the table for a version name. Empty means v2.
func RoutesFor(version string) (Routes, error) {
	switch strings.ToLower(strings.TrimSpace(version)) {
	case "", "v2":
		return RoutesV2, nil
	case "v1":
		return RoutesV1, nil
	default:
		return Routes{}, fmt.Errorf("unknown API version %q", version)
	}
}

// Results returns the results path for a run.
func (r Routes) Results(runID models.RunID) string {
	return fmt.Sprintf(r.resultsFmt, url.PathEscape(string(runID)))
}

// Download returns the CSV download path for a run.
func (r Routes) Download(runID models.RunID) string {
	return fmt.Sprintf(r.downloadFmt, url.PathEscape(string(runID)))
}
