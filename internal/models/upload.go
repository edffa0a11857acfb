package models

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// UploadMode selects how the service resolves students that already exist.
// The client forwards the value; it never interprets it.
type UploadMode string

const (
	UploadModeUpsert     UploadMode = "upsert"
	UploadModeSkip       UploadMode = "skip"
	UploadModeReplaceAll UploadMode = "replace_all"
)

// UploadModes lists the modes in the order front ends offer them.
var UploadModes = []UploadMode{UploadModeUpsert, UploadModeSkip, UploadModeReplaceAll}

// Label is the human-readable name of the mode.
func (m UploadMode) Label() string {
	switch m {
	case UploadModeUpsert:
		return "Upsert"
	case UploadModeSkip:
		return "Skip Duplicates"
	case UploadModeReplaceAll:
		return "Replace All"
	default:
		return string(m)
	}
}

// ParseUploadMode accepts the wire values plus the dashed aliases.
func ParseUploadMode(s string) (UploadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "upsert":
		return UploadModeUpsert, nil
	case "skip", "skip-duplicates", "skip_duplicates":
		return UploadModeSkip, nil
	case "replace_all", "replace-all", "replaceall":
		return UploadModeReplaceAll, nil
	default:
		return "", fmt.Errorf("unknown upload mode %q (want upsert, skip or replace_all)", s)
	}
}

// ParseUploadModeLabel maps a Label back to its mode.
func ParseUploadModeLabel(label string) UploadMode {
	for _, m := range UploadModes {
		if m.Label() == label {
			return m
		}
	}
	return UploadModeUpsert
}

// UploadOptions are the query parameters of POST /upload/students.
type UploadOptions struct {
	AutoAllocate bool
	Mode         UploadMode
}

// UploadFile is a roster ready to be sent as the multipart "file" field.
type UploadFile struct {
	Name   string
	Reader io.Reader
	Size   int64
}

// UploadOutcome is the ingestion summary returned by the service.
type UploadOutcome struct {
	Uploaded int   `json:"uploaded_rows"`
	Inserted int   `json:"inserted"`
	Updated  int   `json:"updated"`
	Skipped  int   `json:"skipped"`
	RunID    RunID `json:"run_id,omitempty"`
}

// UnmarshalJSON reads "uploaded_rows", falling back to the older "uploaded".
func (u *UploadOutcome) UnmarshalJSON(data []byte) error {
	var wire struct {
		Uploaded     *int  `json:"uploaded"`
		UploadedRows *int  `json:"uploaded_rows"`
		Inserted     int   `json:"inserted"`
		Updated      int   `json:"updated"`
		Skipped      int   `json:"skipped"`
		RunID        RunID `json:"run_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*u = UploadOutcome{
		Inserted: wire.Inserted,
		Updated:  wire.Updated,
		Skipped:  wire.Skipped,
		RunID:    wire.RunID,
	}
	switch {
	case wire.UploadedRows != nil:
		u.Uploaded = *wire.UploadedRows
	case wire.Uploaded != nil:
		u.Uploaded = *wire.Uploaded
	}
	return nil
}

// Summary is the one-line form shown under the upload controls.
func (u UploadOutcome) Summary() string {
	return fmt.Sprintf("Uploaded: %d • Inserted: %d • Updated: %d • Skipped: %d • Run: %s",
		u.Uploaded, u.Inserted, u.Updated, u.Skipped, u.RunID)
}
