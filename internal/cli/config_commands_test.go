package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pminternship/alloc-admin/internal/config"
)

// executeCommand runs the full command tree with captured output.
func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvAPIBase, "")
	t.Setenv(config.EnvAPIVersion, "")

	root := NewRootCmd()
	AddCommands(root)

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), errOut.String(), err
}

// TestConfigCommands checks the config command group
func TestConfigCommands(t *testing.T) {
	cmd := newConfigCmd()
	if cmd.Use != "config" {
		t.Errorf("Expected Use='config', got '%s'", cmd.Use)
	}

	want := map[string]bool{"init": false, "show": false, "test": false, "path": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
		if sub.Short == "" {
			t.Errorf("%s: Short description is empty", sub.Name())
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("config %s not registered", name)
		}
	}

	initCmd := newConfigInitCmd()
	if initCmd.Flags().Lookup("force") == nil {
		t.Error("config init should have --force")
	}
}

// TestConfigInitWritesFile answers every prompt and reads the file back
func TestConfigInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	answers := strings.Join([]string{
		"http://alloc.test:9000", // base URL
		"v1",                     // route version
		"30s",                    // timeout
		"n",                      // allocate on upload
		"skip",                   // upload mode
		"n",                      // proxy
	}, "\n") + "\n"

	out, _, err := executeCommand(t, answers, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Configuration saved to: "+path) {
		t.Errorf("unexpected output:\n%s", out)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://alloc.test:9000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIVersion != "v1" {
		t.Errorf("APIVersion = %q", cfg.APIVersion)
	}
	if cfg.RequestTimeout.String() != "30s" {
		t.Errorf("RequestTimeout = %s", cfg.RequestTimeout)
	}
	if cfg.AutoAllocate {
		t.Error("AutoAllocate should be false")
	}
	if cfg.UploadMode != "skip" {
		t.Errorf("UploadMode = %q", cfg.UploadMode)
	}
}

// TestConfigInitKeepsExisting refuses to overwrite without --force
func TestConfigInitKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = http://keep.test\n"), 0600); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "", "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "Configuration already exists") {
		t.Errorf("unexpected output:\n%s", out)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "keep.test") {
		t.Error("existing config was overwritten")
	}
}

// TestConfigShowMasksSecrets never prints stored credentials
func TestConfigShowMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	cfg := config.Default()
	cfg.S3Region = "ap-south-1"
	cfg.S3AccessKey = "AKIAEXAMPLE"
	cfg.S3SecretKey = "very-secret-value"
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "", "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if strings.Contains(out, "very-secret-value") || strings.Contains(out, "AKIAEXAMPLE") {
		t.Errorf("secret leaked:\n%s", out)
	}
	if !strings.Contains(out, "S3 keys:       <set>") {
		t.Errorf("expected keys marked as set:\n%s", out)
	}
	if !strings.Contains(out, "ap-south-1") {
		t.Errorf("expected region in output:\n%s", out)
	}
}

// TestConfigPath prints the --config path
func TestConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.ini")

	out, errOut, err := executeCommand(t, "", "config", "path", "--config", path)
	if err != nil {
		t.Fatalf("config path failed: %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("path = %q, want %q", strings.TrimSpace(out), path)
	}
	if !strings.Contains(errOut, "does not exist") {
		t.Errorf("expected missing-file hint, got %q", errOut)
	}
}

// TestInvalidConfigRejected surfaces validation before any request
func TestInvalidConfigRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.ini")
	_, _, err := executeCommand(t, "", "health", "--config", path, "--api-version", "v9")
	if err == nil {
		t.Fatal("expected an error for an unknown API version")
	}
	if !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("completion bash failed: %v", err)
	}
	if !strings.Contains(out, "alloc-admin") {
		t.Error("bash completion should mention the binary name")
	}

	if _, _, err := executeCommand(t, "", "completion", "tcsh"); err == nil {
		t.Error("expected an error for an unsupported shell")
	}
}
