package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/constants"
)

// NewAPIClient returns the client used for calls to the allocation service.
// With max_retries = 0 (the default) every request is attempted exactly once.
// When retries are enabled only GET/HEAD are replayed.
func NewAPIClient(cfg *config.Config, logger zerolog.Logger) (*nethttp.Client, error) {
	base, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.CheckRetry = IdempotentRetryPolicy
	// Surface the server's response to the caller instead of a generic "giving up" error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = &retryLogger{log: logger}

	return retryClient.StandardClient(), nil
}

// retryLogger implements the retryablehttp.LeveledLogger interface
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

// NewTransferClient returns a client for export archive transfers (S3, Azure, CSV download).
// It shares the proxy configuration of the API client but enables HTTP/2 and skips
// compression. HTTP/2 is disabled behind a proxy or when DISABLE_HTTP2=true.
func NewTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM wraps the transport in a Negotiator; keep it as is
		return client, nil
	}

	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" || proxyActive(cfg) {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	client.Transport = tr
	return client, nil
}

func proxyActive(cfg *config.Config) bool {
	switch cfg.ProxyMode {
	case "no-proxy", "":
		return false
	case "system":
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
