package http

import (
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pminternship/alloc-admin/internal/config"
)

func TestNewAPIClient_NoRetriesByDefault(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(nethttp.StatusServiceUnavailable)
		io.WriteString(w, `{"detail":"busy"}`)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.APIBaseURL = srv.URL
	client, err := NewAPIClient(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	resp, err := client.Get(srv.URL + "/runs/latest")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != nethttp.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
	if string(body) != `{"detail":"busy"}` {
		t.Errorf("body = %q, want server body passed through", body)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestNewAPIClient_PostNeverReplayed(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(nethttp.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.MaxRetries = 2
	client, err := NewAPIClient(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAPIClient: %v", err)
	}

	resp, err := client.Post(srv.URL+"/run", "application/json", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	resp.Body.Close()

	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("POST hit %d times, want 1", n)
	}
}

func TestNewTransferClient(t *testing.T) {
	cfg := config.Default()
	client, err := NewTransferClient(cfg)
	if err != nil {
		t.Fatalf("NewTransferClient: %v", err)
	}
	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatalf("transport = %T", client.Transport)
	}
	if !tr.DisableCompression {
		t.Error("compression should be disabled for transfers")
	}

	cfg.ProxyMode = "basic"
	cfg.ProxyHost = "proxy.corp"
	client, err = NewTransferClient(cfg)
	if err != nil {
		t.Fatalf("NewTransferClient(proxy): %v", err)
	}
	if tr := client.Transport.(*nethttp.Transport); tr.ForceAttemptHTTP2 {
		t.Error("HTTP/2 should be off behind a proxy")
	}
}
