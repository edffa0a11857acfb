// Package progress renders terminal feedback for the CLI: a spinner while an
// allocation workflow is busy and byte progress for CSV export transfers.
// Both switch themselves off when the output is not a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Reporter is the interface for reporting progress of a single operation.
type Reporter interface {
	Start(total int64, description string)
	Update(current int64)
	Finish()
	Error(err error)
	SetDescription(desc string)
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// NewReporter returns a CLIProgress writing to f when f is a terminal and a
// NoOpProgress otherwise.
func NewReporter(f *os.File) Reporter {
	if !IsTerminal(f) {
		return NewNoOpProgress()
	}
	enableANSI(f)
	return NewCLIProgress(f)
}

// CLIProgress implements progress reporting using progressbar.
// A negative total renders a spinner instead of a bar.
type CLIProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewCLIProgress creates a new CLI progress reporter writing to out.
func NewCLIProgress(out io.Writer) *CLIProgress {
	if out == nil {
		out = os.Stderr
	}
	return &CLIProgress{out: out}
}

// Start initializes the progress bar with total size and description.
func (p *CLIProgress) Start(total int64, description string) {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(p.out, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
	}
	if total >= 0 {
		opts = append(opts, progressbar.OptionShowBytes(true))
	} else {
		opts = append(opts, progressbar.OptionClearOnFinish())
	}
	p.bar = progressbar.NewOptions64(total, opts...)
}

// Update updates the progress bar to the current position.
func (p *CLIProgress) Update(current int64) {
	if p.bar != nil {
		_ = p.bar.Set64(current)
	}
}

// Finish completes the progress bar.
func (p *CLIProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

// Error displays an error message.
func (p *CLIProgress) Error(err error) {
	if err != nil {
		fmt.Fprintf(p.out, "\nError: %v\n", err)
	}
}

// SetDescription updates the progress bar description.
func (p *CLIProgress) SetDescription(desc string) {
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// NoOpProgress is a progress reporter that does nothing (pipes, tests).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(total int64, description string) {}
func (p *NoOpProgress) Update(current int64)                  {}
func (p *NoOpProgress) Finish()                               {}
func (p *NoOpProgress) Error(err error)                       {}
func (p *NoOpProgress) SetDescription(desc string)            {}

// Spinner animates a Reporter with an indeterminate total while a workflow
// runs. Describe may be called from any goroutine.
type Spinner struct {
	reporter Reporter
	mu       sync.Mutex
	ticks    int64
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// StartSpinner starts a spinner on reporter with the given description.
func StartSpinner(reporter Reporter, description string) *Spinner {
	s := &Spinner{
		reporter: reporter,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	reporter.Start(-1, description)
	go s.run()
	return s
}

func (s *Spinner) run() {
	defer close(s.done)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.ticks++
			s.reporter.Update(s.ticks)
			s.mu.Unlock()
		}
	}
}

// Describe replaces the spinner text.
func (s *Spinner) Describe(desc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reporter.SetDescription(desc)
}

// Stop halts the animation and clears the line. Safe to call twice.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		s.mu.Lock()
		s.reporter.Finish()
		s.mu.Unlock()
	})
}

// ProgressReader wraps an io.Reader to report progress.
type ProgressReader struct {
	reader   io.Reader
	reporter Reporter
	total    int64
	current  int64
}

// NewProgressReader creates a new progress-reporting reader.
func NewProgressReader(reader io.Reader, total int64, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   reader,
		reporter: reporter,
		total:    total,
	}
}

// Read implements io.Reader with progress reporting.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	pr.reporter.Update(pr.current)
	return n, err
}

// Current returns the number of bytes read so far.
func (pr *ProgressReader) Current() int64 {
	return pr.current
}
