package progress

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type recordingReporter struct {
	mu       sync.Mutex
	started  bool
	total    int64
	updates  []int64
	descs    []string
	finished bool
}

func (r *recordingReporter) Start(total int64, description string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	r.total = total
	r.descs = append(r.descs, description)
}

func (r *recordingReporter) Update(current int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, current)
}

func (r *recordingReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}

func (r *recordingReporter) Error(err error) {}

func (r *recordingReporter) SetDescription(desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descs = append(r.descs, desc)
}

func TestProgressReader(t *testing.T) {
	rep := &recordingReporter{}
	src := strings.NewReader("student_name,email\nA,a@example.org\n")
	pr := NewProgressReader(src, int64(src.Len()), rep)

	data, err := io.ReadAll(pr)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if pr.Current() != int64(len(data)) {
		t.Errorf("Current() = %d, want %d", pr.Current(), len(data))
	}
	if len(rep.updates) == 0 || rep.updates[len(rep.updates)-1] != int64(len(data)) {
		t.Errorf("last update = %v, want %d", rep.updates, len(data))
	}
}

func TestNewReporterNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, ok := NewReporter(f).(*NoOpProgress); !ok {
		t.Error("expected NoOpProgress for a regular file")
	}
	if IsTerminal(nil) {
		t.Error("IsTerminal(nil) = true")
	}
}

func TestSpinner(t *testing.T) {
	rep := &recordingReporter{}
	s := StartSpinner(rep, "Uploading CSV...")
	s.Describe("Allocation complete")
	s.Stop()
	s.Stop()

	rep.mu.Lock()
	defer rep.mu.Unlock()
	if !rep.started || rep.total != -1 {
		t.Errorf("spinner should start with an indeterminate total, got started=%v total=%d", rep.started, rep.total)
	}
	if !rep.finished {
		t.Error("Stop() should finish the reporter")
	}
	if rep.descs[len(rep.descs)-1] != "Allocation complete" {
		t.Errorf("descs = %v", rep.descs)
	}
}

func TestCLIProgressWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	p := NewCLIProgress(&buf)
	p.Start(10, "export")
	p.Update(5)
	p.Finish()
	p.Error(errors.New("disk full"))

	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("output %q missing error", buf.String())
	}
}

func TestTransferUINonTerminal(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "log.txt"))
	if err != nil {
		t.Fatal(err)
	}

	ui := NewTransferUI(f)
	if ui.IsTerminal() {
		t.Fatal("regular file reported as terminal")
	}

	bar := ui.AddBar(filepath.Join(dir, "exports", "run_42.csv"), 12)
	n, err := io.Copy(io.Discard, bar.ProxyReader(strings.NewReader("a,b,c\n1,2,3\n")))
	if err != nil {
		t.Fatal(err)
	}
	if bar.Written() != n {
		t.Errorf("Written() = %d, want %d", bar.Written(), n)
	}
	bar.Complete(nil)

	failed := ui.AddBar("s3://bucket/run_42.csv", 0)
	failed.Complete(errors.New("access denied"))
	ui.Wait()
	f.Close()

	if ui.Completed() != 2 {
		t.Errorf("Completed() = %d, want 2", ui.Completed())
	}
	out, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	got := string(out)
	if !strings.Contains(got, "✓ exports/run_42.csv") {
		t.Errorf("summary missing success line: %q", got)
	}
	if !strings.Contains(got, "access denied") {
		t.Errorf("summary missing failure line: %q", got)
	}
}

func TestShortPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"run_42.csv", "run_42.csv"},
		{filepath.Join("a", "b", "run_42.csv"), filepath.Join("b", "run_42.csv")},
	}
	for _, tt := range tests {
		if got := shortPath(tt.in); got != tt.want {
			t.Errorf("shortPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
