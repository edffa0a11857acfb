package diskspace

import (
	"fmt"
	"testing"
)

func TestCheck(t *testing.T) {
	dir := t.TempDir()

	t.Run("SmallFile", func(t *testing.T) {
		if err := Check(dir, 1024, DefaultSafetyMargin); err != nil {
			t.Errorf("Expected no error for small file, got: %v", err)
		}
	})

	t.Run("UnknownSize", func(t *testing.T) {
		if err := Check(dir, -1, DefaultSafetyMargin); err != nil {
			t.Errorf("Unknown size should pass, got: %v", err)
		}
	})

	t.Run("MoreThanAvailable", func(t *testing.T) {
		available, ok := Available(dir)
		if !ok {
			t.Skip("Could not determine available space")
		}
		err := Check(dir, available+1, 1)
		if !IsInsufficientSpace(err) {
			t.Fatalf("Expected InsufficientSpaceError, got: %v", err)
		}
		ise := err.(*InsufficientSpaceError)
		if ise.RequiredBytes != available+1 {
			t.Errorf("RequiredBytes = %d, want %d", ise.RequiredBytes, available+1)
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		if err := Check(dir+"/does/not/exist", 1<<40, DefaultSafetyMargin); err != nil {
			t.Errorf("Unqueryable path should pass, got: %v", err)
		}
	})
}

func TestInsufficientSpaceErrorMessage(t *testing.T) {
	err := &InsufficientSpaceError{Path: "/exports", RequiredBytes: 2 * 1024 * 1024, AvailableBytes: 1024 * 1024}
	want := "insufficient disk space in /exports: need 2.00 MB, have 1.00 MB available"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsInsufficientSpace(fmt.Errorf("download: %w", err)) {
		t.Error("IsInsufficientSpace should see through wrapping")
	}
}
