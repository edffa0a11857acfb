package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http/httpproxy"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/constants"
)

const defaultProxyPort = 8080

// ConfigureHTTPClient builds the client used for the allocation service
// and archive uploads according to the [proxy] section. Requests are bounded
// by their context, so the client itself has no timeout.
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := newTransport()
	var rt nethttp.RoundTripper = transport

	mode := strings.ToLower(cfg.ProxyMode)
	switch mode {
	case "", "no-proxy":
		transport.Proxy = nil
	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment
	case "basic", "ntlm":
		if cfg.ProxyHost == "" {
			// a half-saved config should not lock the user out of the service
			log.Warn().Str("mode", mode).Msg("Proxy host is missing, connecting directly")
			return &nethttp.Client{Transport: transport}, nil
		}
		transport.Proxy = proxyFuncWithBypass(buildProxyURL(cfg), cfg.NoProxy)
		if mode == "ntlm" {
			rt = ntlmssp.Negotiator{RoundTripper: transport}
		} else if NeedsProxyPassword(cfg) {
			log.Warn().Msg("Proxy user set without a password, proxy auth disabled")
		}
	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.ProxyMode)
	}

	client := &nethttp.Client{Transport: rt}
	if shouldWarmup(cfg, mode) {
		if err := warmupProxy(client, cfg.APIBaseURL); err != nil {
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}
	return client, nil
}

// shouldWarmup limits warmup to modes where a tunnel is actually negotiated.
func shouldWarmup(cfg *config.Config, mode string) bool {
	if !cfg.ProxyWarmup {
		return false
	}
	switch mode {
	case "system":
		return true
	case "basic", "ntlm":
		return cfg.ProxyUser != "" && cfg.ProxyPassword != ""
	}
	return false
}

func newTransport() *nethttp.Transport {
	dialer := &net.Dialer{Timeout: constants.HTTPDialTimeout, KeepAlive: constants.HTTPDialKeepAlive}
	return &nethttp.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

// buildProxyURL leaves credentials out unless both parts are set; an empty
// password in the URL confuses some proxies.
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.ProxyPort
	if port == 0 {
		port = defaultProxyPort
	}
	u := &url.URL{Scheme: "http", Host: net.JoinHostPort(cfg.ProxyHost, strconv.Itoa(port))}
	if cfg.ProxyUser != "" && cfg.ProxyPassword != "" {
		u.User = url.UserPassword(cfg.ProxyUser, cfg.ProxyPassword)
	}
	return u
}

// warmupProxy sends one GET /health through the proxy so the first real
// request does not pay for the handshake.
func warmupProxy(client *nethttp.Client, baseURL string) error {
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		base = constants.DefaultAPIBaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ProxyWarmupTimeout)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, base+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("warmup request failed: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= nethttp.StatusInternalServerError {
		return fmt.Errorf("warmup request returned server error: %d", resp.StatusCode)
	}
	return nil
}

// proxyFuncWithBypass routes every request through proxyURL except hosts
// matched by noProxy (domains, wildcards and CIDR ranges, comma separated).
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	resolve := (&httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *nethttp.Request) (*url.URL, error) {
		via, err := resolve(req.URL)
		ev := log.Debug().Str("host", req.URL.Host)
		if via == nil {
			ev.Msg("Proxy bypass")
		} else {
			ev.Str("proxy", via.Host).Msg("Proxied")
		}
		return via, err
	}
}

// NeedsProxyPassword reports an authenticated proxy mode with a user but no
// password, which the CLI prompts for.
func NeedsProxyPassword(cfg *config.Config) bool {
	switch strings.ToLower(cfg.ProxyMode) {
	case "basic", "ntlm":
		return cfg.ProxyUser != "" && cfg.ProxyPassword == ""
	}
	return false
}
