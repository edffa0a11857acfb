// Package diskspace checks free space before exports are written.
package diskspace

import (
	"errors"
	"fmt"
)

// DefaultSafetyMargin leaves 10% headroom over the expected size.
const DefaultSafetyMargin = 1.1

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space in %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// Check reports an InsufficientSpaceError when the filesystem holding dir
// has less than requiredBytes*margin free. Unknown sizes (<= 0) and
// filesystems that cannot be queried pass.
func Check(dir string, requiredBytes int64, margin float64) error {
	if requiredBytes <= 0 {
		return nil
	}
	available, ok := Available(dir)
	if !ok {
		return nil
	}
	if margin < 1 {
		margin = 1
	}

	required := int64(float64(requiredBytes) * margin)
	if available < required {
		return &InsufficientSpaceError{Path: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// Available returns the bytes available to the current user on the
// filesystem holding dir. ok is false when it cannot be determined.
func Available(dir string) (int64, bool) {
	n, err := available(dir)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsInsufficientSpace reports whether err is or wraps an InsufficientSpaceError.
func IsInsufficientSpace(err error) bool {
	var ise *InsufficientSpaceError
	return errors.As(err, &ise)
}
