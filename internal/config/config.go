package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"

	"github.com/pminternship/alloc-admin/internal/constants"
)

// Config is the complete client configuration.
//
// INI format:
//
//	[api]
//	base_url        = http://127.0.0.1:8000
//	version         = v2
//	request_timeout = 120s
//	max_retries     = 0
//
//	[proxy]
//	mode     = no-proxy
//	host     =
//	port     = 8080
//	user     =
//	password =
//	no_proxy =
//
//	[upload]
//	auto_allocate = true
//	mode          = upsert
//
//	[export]
//	s3_region     =
//	s3_access_key =
//	s3_secret_key =
//	azure_sas_url =
//
//	[ui]
//	notifications = true
//	metrics_addr  =
//
//	[log]
//	level = info
//	file  =
type Config struct {
	// API settings
	APIBaseURL     string
	APIVersion     string // "v1" (/run/...) or "v2" (/runs/...)
	RequestTimeout time.Duration
	MaxRetries     int

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// Upload form defaults
	AutoAllocate bool
	UploadMode   string

	// Export archive targets
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	AzureSASURL string

	// Front ends
	Notifications bool
	MetricsAddr   string

	// Logging
	LogLevel string
	LogFile  string
}

// Environment overrides. A .env file in the working directory is honored.
const (
	EnvAPIBase        = "ALLOC_API_BASE"
	EnvAPIVersion     = "ALLOC_API_VERSION"
	EnvRequestTimeout = "ALLOC_REQUEST_TIMEOUT"
	EnvLogLevel       = "ALLOC_LOG_LEVEL"
	EnvProxyPassword  = "ALLOC_PROXY_PASSWORD"
)

// Validation errors
var (
	ErrMissingBaseURL   = errors.New("api.base_url is required")
	ErrInvalidBaseURL   = errors.New("api.base_url must be an absolute http(s) URL")
	ErrInvalidVersion   = errors.New("api.version must be v1 or v2")
	ErrInvalidTimeout   = errors.New("api.request_timeout must not be negative")
	ErrInvalidRetries   = errors.New("api.max_retries must be between 0 and 10")
	ErrInvalidProxyMode = errors.New("proxy.mode must be no-proxy, system, basic or ntlm")
)

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		APIBaseURL:     constants.DefaultAPIBaseURL,
		APIVersion:     constants.DefaultAPIVersion,
		RequestTimeout: constants.DefaultRequestTimeout,
		ProxyMode:      "no-proxy",
		ProxyPort:      8080,
		AutoAllocate:   true,
		UploadMode:     "upsert",
		Notifications:  true,
		LogLevel:       "info",
	}
}

// Load reads configuration from an INI file and applies environment overrides.
// If path is empty the default location is used. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		iniFile, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
		cfg.readINI(iniFile)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	// godotenv never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.ApplyEnv()

	return cfg, nil
}

func (cfg *Config) readINI(f *ini.File) {
	api := f.Section("api")
	cfg.APIBaseURL = api.Key("base_url").MustString(cfg.APIBaseURL)
	cfg.APIVersion = api.Key("version").MustString(cfg.APIVersion)
	cfg.RequestTimeout = api.Key("request_timeout").MustDuration(cfg.RequestTimeout)
	cfg.MaxRetries = api.Key("max_retries").MustInt(cfg.MaxRetries)

	proxy := f.Section("proxy")
	cfg.ProxyMode = proxy.Key("mode").MustString(cfg.ProxyMode)
	cfg.ProxyHost = proxy.Key("host").String()
	cfg.ProxyPort = proxy.Key("port").MustInt(cfg.ProxyPort)
	cfg.ProxyUser = proxy.Key("user").String()
	cfg.ProxyPassword = proxy.Key("password").String()
	cfg.NoProxy = proxy.Key("no_proxy").String()
	cfg.ProxyWarmup = proxy.Key("warmup").MustBool(false)

	upload := f.Section("upload")
	cfg.AutoAllocate = upload.Key("auto_allocate").MustBool(cfg.AutoAllocate)
	cfg.UploadMode = upload.Key("mode").MustString(cfg.UploadMode)

	export := f.Section("export")
	cfg.S3Region = export.Key("s3_region").String()
	cfg.S3AccessKey = export.Key("s3_access_key").String()
	cfg.S3SecretKey = export.Key("s3_secret_key").String()
	cfg.AzureSASURL = export.Key("azure_sas_url").String()

	ui := f.Section("ui")
	cfg.Notifications = ui.Key("notifications").MustBool(cfg.Notifications)
	cfg.MetricsAddr = ui.Key("metrics_addr").String()

	logSection := f.Section("log")
	cfg.LogLevel = logSection.Key("level").MustString(cfg.LogLevel)
	cfg.LogFile = logSection.Key("file").String()
}

// ApplyEnv overlays ALLOC_* environment variables.
func (cfg *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBase)); v != "" {
		cfg.APIBaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPIVersion)); v != "" {
		cfg.APIVersion = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRequestTimeout)); v != "" {
		if d, err := parseTimeout(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvProxyPassword); v != "" {
		cfg.ProxyPassword = v
	}
}

// parseTimeout accepts a Go duration or a bare number of seconds.
func parseTimeout(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Validate checks the settings needed to talk to the service.
func (cfg *Config) Validate() error {
	base := strings.TrimSpace(cfg.APIBaseURL)
	if base == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	switch strings.ToLower(cfg.APIVersion) {
	case "v1", "v2":
	default:
		return ErrInvalidVersion
	}

	if cfg.RequestTimeout < 0 {
		return ErrInvalidTimeout
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		return ErrInvalidRetries
	}

	switch strings.ToLower(cfg.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return ErrInvalidProxyMode
	}

	return nil
}

// Save writes the configuration to an INI file.
// The proxy password is never written; supply it via ALLOC_PROXY_PASSWORD.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f := ini.Empty()
	sections := []struct {
		name string
		keys [][2]string
	}{
		{"api", [][2]string{
			{"base_url", cfg.APIBaseURL},
			{"version", cfg.APIVersion},
			{"request_timeout", cfg.RequestTimeout.String()},
			{"max_retries", strconv.Itoa(cfg.MaxRetries)},
		}},
		{"proxy", [][2]string{
			{"mode", cfg.ProxyMode},
			{"host", cfg.ProxyHost},
			{"port", strconv.Itoa(cfg.ProxyPort)},
			{"user", cfg.ProxyUser},
			{"no_proxy", cfg.NoProxy},
			{"warmup", strconv.FormatBool(cfg.ProxyWarmup)},
		}},
		{"upload", [][2]string{
			{"auto_allocate", strconv.FormatBool(cfg.AutoAllocate)},
			{"mode", cfg.UploadMode},
		}},
		{"export", [][2]string{
			{"s3_region", cfg.S3Region},
			{"s3_access_key", cfg.S3AccessKey},
			{"s3_secret_key", cfg.S3SecretKey},
			{"azure_sas_url", cfg.AzureSASURL},
		}},
		{"ui", [][2]string{
			{"notifications", strconv.FormatBool(cfg.Notifications)},
			{"metrics_addr", cfg.MetricsAddr},
		}},
		{"log", [][2]string{
			{"level", cfg.LogLevel},
			{"file", cfg.LogFile},
		}},
	}

	for _, s := range sections {
		sec, err := f.NewSection(s.name)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", s.name, err)
		}
		for _, kv := range s.keys {
			sec.Key(kv[0]).SetValue(kv[1])
		}
	}

	// Temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := f.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Export keys are sensitive
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set config permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
