// Package validation checks operator input before anything is sent to the
// allocation service.
package validation

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoRoster is returned when no roster file was chosen.
var ErrNoRoster = errors.New("no roster file chosen")

// ValidateFilename validates a bare filename (not a path) before it is joined
// onto a directory. Used for export names built from a run id.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is ".."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}
	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}
	// "data..v2.csv" is fine; only the bare parent reference is rejected
	if filename == ".." || filename == "." {
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// ValidateRosterPath checks that path names a readable regular file.
// The file's contents are not inspected; CSV parsing belongs to the service.
func ValidateRosterPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrNoRoster
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("roster file not found: %s", path)
		}
		return fmt.Errorf("cannot access roster file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("roster path is a directory: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read roster file: %w", err)
	}
	return f.Close()
}
