package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.APIBaseURL != "http://127.0.0.1:8000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIVersion != "v2" {
		t.Errorf("APIVersion = %q, want v2", cfg.APIVersion)
	}
	if cfg.RequestTimeout != 120*time.Second {
		t.Errorf("RequestTimeout = %v, want 2m", cfg.RequestTimeout)
	}
	if !cfg.AutoAllocate || cfg.UploadMode != "upsert" {
		t.Errorf("upload defaults = %v/%q, want true/upsert", cfg.AutoAllocate, cfg.UploadMode)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != Default().APIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
}

func TestLoadINI(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.ini")
	content := `[api]
base_url = https://alloc.example.org
version = v1
request_timeout = 45s
max_retries = 2

[upload]
auto_allocate = false
mode = replace_all

[ui]
notifications = false
metrics_addr = :9102

[log]
level = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "https://alloc.example.org" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.APIVersion != "v1" {
		t.Errorf("APIVersion = %q", cfg.APIVersion)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d", cfg.MaxRetries)
	}
	if cfg.AutoAllocate {
		t.Error("AutoAllocate should be false")
	}
	if cfg.UploadMode != "replace_all" {
		t.Errorf("UploadMode = %q", cfg.UploadMode)
	}
	if cfg.Notifications {
		t.Error("Notifications should be false")
	}
	if cfg.MetricsAddr != ":9102" {
		t.Errorf("MetricsAddr = %q", cfg.MetricsAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	// Unset sections keep defaults
	if cfg.ProxyMode != "no-proxy" {
		t.Errorf("ProxyMode = %q", cfg.ProxyMode)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.ini")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = http://file:8000\n"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvAPIBase, "http://env:9000")
	t.Setenv(EnvRequestTimeout, "30")
	t.Setenv(EnvAPIVersion, "v1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://env:9000" {
		t.Errorf("APIBaseURL = %q, want env value", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want 30s", cfg.RequestTimeout)
	}
	if cfg.APIVersion != "v1" {
		t.Errorf("APIVersion = %q", cfg.APIVersion)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(c *Config) {}, nil},
		{"empty base", func(c *Config) { c.APIBaseURL = "  " }, ErrMissingBaseURL},
		{"relative base", func(c *Config) { c.APIBaseURL = "localhost:8000" }, ErrInvalidBaseURL},
		{"ftp base", func(c *Config) { c.APIBaseURL = "ftp://host" }, ErrInvalidBaseURL},
		{"bad version", func(c *Config) { c.APIVersion = "v3" }, ErrInvalidVersion},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, ErrInvalidTimeout},
		{"zero timeout ok", func(c *Config) { c.RequestTimeout = 0 }, nil},
		{"too many retries", func(c *Config) { c.MaxRetries = 11 }, ErrInvalidRetries},
		{"bad proxy", func(c *Config) { c.ProxyMode = "socks" }, ErrInvalidProxyMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.ini")

	cfg := Default()
	cfg.APIBaseURL = "https://alloc.example.org"
	cfg.RequestTimeout = 90 * time.Second
	cfg.UploadMode = "skip"
	cfg.ProxyPassword = "secret"
	cfg.S3Region = "ap-south-1"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("permissions = %o, want 600", perm)
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL = %q", loaded.APIBaseURL)
	}
	if loaded.RequestTimeout != cfg.RequestTimeout {
		t.Errorf("RequestTimeout = %v", loaded.RequestTimeout)
	}
	if loaded.UploadMode != "skip" {
		t.Errorf("UploadMode = %q", loaded.UploadMode)
	}
	if loaded.S3Region != "ap-south-1" {
		t.Errorf("S3Region = %q", loaded.S3Region)
	}
	if loaded.ProxyPassword != "" {
		t.Error("proxy password must not be persisted")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	p := DefaultConfigPath()
	if filepath.Base(p) != "config.ini" {
		t.Errorf("DefaultConfigPath() = %q", p)
	}
	if filepath.Base(filepath.Dir(p)) != "alloc-admin" {
		t.Errorf("DefaultConfigPath() dir = %q", filepath.Dir(p))
	}
}

// clearEnv unsets ALLOC_* variables for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIBase, EnvAPIVersion, EnvRequestTimeout, EnvLogLevel, EnvProxyPassword} {
		t.Setenv(key, "")
	}
}
