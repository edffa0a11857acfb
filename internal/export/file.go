package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pminternship/alloc-admin/internal/diskspace"
)

// FileSink copies exports into a local directory or onto a fixed path.
type FileSink struct {
	dest string
}

// NewFileSink creates a sink writing to dest. An existing directory or a
// dest ending in a separator receives the file under its own name.
func NewFileSink(dest string) *FileSink {
	return &FileSink{dest: dest}
}

// Put copies localPath to the sink's destination.
func (s *FileSink) Put(ctx context.Context, localPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := s.dest
	if strings.HasSuffix(dst, "/") || strings.HasSuffix(dst, string(filepath.Separator)) {
		dst = filepath.Join(dst, filepath.Base(localPath))
	} else if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(localPath))
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open export: %w", err)
	}
	defer src.Close()

	if info, err := src.Stat(); err == nil {
		if err := diskspace.Check(filepath.Dir(dst), info.Size(), diskspace.DefaultSafetyMargin); err != nil {
			return "", err
		}
	}

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to copy export: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return dst, nil
}
