package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/pminternship/alloc-admin/internal/constants"
)

// TransferUI shows byte progress for export downloads and archive uploads.
// On a non-terminal output the bars are suppressed and a one-line summary is
// printed per transfer instead.
type TransferUI struct {
	progress   *mpb.Progress
	out        io.Writer
	isTerminal bool
	completed  int32
}

// TransferBar is a single transfer's progress bar.
type TransferBar struct {
	bar       *mpb.Bar
	ui        *TransferUI
	label     string
	size      int64
	written   int64
	startTime time.Time
}

// NewTransferUI creates a transfer UI writing to out.
func NewTransferUI(out *os.File) *TransferUI {
	isTerminal := IsTerminal(out)

	var p *mpb.Progress
	if isTerminal {
		enableANSI(out)
		p = mpb.New(
			mpb.WithOutput(out),
			mpb.WithRefreshRate(constants.ProgressRefreshRate),
			mpb.WithWidth(80),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	var w io.Writer = out
	if out == nil {
		w = io.Discard
	}
	return &TransferUI{
		progress:   p,
		out:        w,
		isTerminal: isTerminal,
	}
}

// AddBar adds a bar for a transfer of size bytes. A size <= 0 means the
// length is unknown and a spinner is drawn instead.
func (u *TransferUI) AddBar(label string, size int64) *TransferBar {
	tb := &TransferBar{
		ui:        u,
		label:     label,
		size:      size,
		startTime: time.Now(),
	}

	if !u.isTerminal {
		return tb
	}

	name := decor.Name(shortPath(label), decor.WCSyncSpaceR)
	if size > 0 {
		tb.bar = u.progress.New(size,
			mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
			mpb.PrependDecorators(name),
			mpb.AppendDecorators(
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncSpace),
				decor.Name("  "),
				decor.EwmaSpeed(decor.SizeB1024(0), "% .1f", 60, decor.WCSyncSpace),
				decor.Name("  "),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.BarRemoveOnComplete(),
		)
	} else {
		tb.bar = u.progress.New(0,
			mpb.SpinnerStyle(),
			mpb.PrependDecorators(name),
			mpb.AppendDecorators(decor.CurrentKibiByte("% .1f")),
			mpb.BarRemoveOnComplete(),
		)
	}
	return tb
}

// ProxyReader returns r wrapped so that reads advance the bar.
func (b *TransferBar) ProxyReader(r io.Reader) io.Reader {
	return &countingReader{reader: r, bar: b}
}

type countingReader struct {
	reader io.Reader
	bar    *TransferBar
}

func (c *countingReader) Read(p []byte) (int, error) {
	start := time.Now()
	n, err := c.reader.Read(p)
	if n > 0 {
		atomic.AddInt64(&c.bar.written, int64(n))
		if c.bar.bar != nil {
			c.bar.bar.EwmaIncrBy(n, time.Since(start))
		}
	}
	return n, err
}

// Written returns the bytes transferred so far.
func (b *TransferBar) Written() int64 {
	return atomic.LoadInt64(&b.written)
}

// Complete marks the transfer as finished and prints a summary line.
func (b *TransferBar) Complete(err error) {
	written := b.Written()
	elapsed := time.Since(b.startTime)

	var msg string
	if err == nil {
		if b.bar != nil {
			if b.size > 0 {
				b.bar.SetCurrent(b.size)
			}
			// -1 pins the total to the bytes actually seen
			b.bar.SetTotal(-1, true)
		}
		msg = fmt.Sprintf("✓ %s (%.1f KiB, %s)\n", shortPath(b.label), float64(written)/1024, elapsed.Round(time.Millisecond))
	} else {
		if b.bar != nil {
			b.bar.Abort(false)
		}
		msg = fmt.Sprintf("✗ %s: %v\n", shortPath(b.label), err)
	}

	_, _ = b.ui.Writer().Write([]byte(msg))
	atomic.AddInt32(&b.ui.completed, 1)
}

// Wait blocks until all bars complete.
func (u *TransferUI) Wait() {
	if u.progress != nil {
		u.progress.Wait()
	}
}

// Writer returns a writer that prints above the bars in terminal mode.
func (u *TransferUI) Writer() io.Writer {
	if u.isTerminal && u.progress != nil {
		return u.progress
	}
	return u.out
}

// Completed returns the number of finished transfers.
func (u *TransferUI) Completed() int {
	return int(atomic.LoadInt32(&u.completed))
}

// IsTerminal returns whether output is to a terminal.
func (u *TransferUI) IsTerminal() bool {
	return u.isTerminal
}

// shortPath keeps the last two path components of p.
func shortPath(p string) string {
	dir, file := filepath.Split(filepath.Clean(p))
	parent := filepath.Base(dir)
	if dir == "" || parent == "." || parent == string(filepath.Separator) {
		return file
	}
	return filepath.Join(parent, file)
}
