package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pminternship/alloc-admin/internal/diskspace"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/progress"
	"github.com/pminternship/alloc-admin/internal/validation"
)

// Opener streams a run's CSV export. *api.Client implements it.
type Opener interface {
	OpenDownload(ctx context.Context, runID models.RunID) (io.ReadCloser, int64, error)
}

// FileName returns the local file name used for a run's export.
func FileName(runID models.RunID) (string, error) {
	name := "allocation_run_" + string(runID) + ".csv"
	if err := validation.ValidateFilename(name); err != nil {
		return "", fmt.Errorf("run id %q cannot be used as a file name: %w", runID, err)
	}
	return name, nil
}

// SaveRunCSV downloads the CSV export of runID into dir and returns the file
// path and byte count. The file only appears once the download completes.
// ui may be nil.
func SaveRunCSV(ctx context.Context, src Opener, runID models.RunID, dir string, ui *progress.TransferUI) (string, int64, error) {
	if runID.IsZero() {
		return "", 0, fmt.Errorf("no run selected")
	}
	name, err := FileName(runID)
	if err != nil {
		return "", 0, err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	dst := filepath.Join(dir, name)

	body, size, err := src.OpenDownload(ctx, runID)
	if err != nil {
		return "", 0, err
	}
	defer body.Close()

	if err := diskspace.Check(dir, size, diskspace.DefaultSafetyMargin); err != nil {
		return "", 0, err
	}

	var reader io.Reader = body
	var bar *progress.TransferBar
	if ui != nil {
		bar = ui.AddBar(dst, size)
		reader = bar.ProxyReader(body)
	}

	n, err := writeAtomic(dst, reader)
	if bar != nil {
		bar.Complete(err)
	}
	if err != nil {
		return "", n, err
	}
	return dst, n, nil
}

func writeAtomic(dst string, r io.Reader) (int64, error) {
	tmp := dst + ".part"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	n, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(tmp)
		return n, fmt.Errorf("download interrupted after %d bytes: %w", n, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return n, fmt.Errorf("failed to move download into place: %w", err)
	}
	return n, nil
}
