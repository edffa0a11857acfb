package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/constants"
	"github.com/pminternship/alloc-admin/internal/http"
	"github.com/pminternship/alloc-admin/internal/models"
	"github.com/pminternship/alloc-admin/internal/version"
)

// Operation names used in errors, logs and metrics labels.
const (
	OpHealth           = "health"
	OpUpload           = "upload"
	OpTriggerRun       = "trigger_run"
	OpLatestRun        = "latest_run"
	OpRunResults       = "run_results"
	OpListInternships  = "list_internships"
	OpCreateInternship = "create_internship"
	OpDownload         = "download"
)

// Observer receives one sample per remote call. StatusCode is 0 for network failures.
type Observer interface {
	ObserveRequest(op string, statusCode int, elapsed time.Duration)
}

// Client talks to the allocation service.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	routes     Routes
	timeout    time.Duration
	observer   Observer
	logger     zerolog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the configured HTTP client (tests, export downloads).
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithObserver registers a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a new API client
func NewClient(cfg *config.Config, opts ...Option) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.APIBaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("API base URL is empty: %w", config.ErrMissingBaseURL)
	}

	routes, err := RoutesFor(cfg.APIVersion)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: base,
		routes:  routes,
		timeout: cfg.RequestTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := http.NewAPIClient(cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
		}
		c.httpClient = hc
	}

	return c, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Routes returns the active path table.
func (c *Client) Routes() Routes {
	return c.routes
}

// doRequest performs one call and returns the response body of a 2xx answer.
// Everything else becomes a *RemoteError.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	return c.doRequestTimeout(ctx, c.timeout, op, method, path, body, contentType)
}

func (c *Client) doRequestTimeout(ctx context.Context, timeout time.Duration, op, method, path string, body io.Reader, contentType string) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, &RemoteError{Op: op, Detail: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := RequestIDFromContext(ctx)
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(op, 0, elapsed)
		c.logger.Warn().Err(err).Str("op", op).Str("method", method).Str("path", path).
			Str("request_id", requestID).Dur("elapsed", elapsed).Msg("Remote call failed")
		return nil, networkError(op, timeout, err)
	}
	defer resp.Body.Close()

	c.observe(op, resp.StatusCode, elapsed)
	c.logger.Debug().Str("op", op).Str("method", method).Str("path", path).
		Int("status", resp.StatusCode).Str("request_id", requestID).Dur("elapsed", elapsed).Msg("Remote call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
		return nil, &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     ExtractDetail(resp.StatusCode, data),
			Body:       string(data),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}
	return data, nil
}

func (c *Client) observe(op string, code int, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(op, code, elapsed)
	}
}

func networkError(op string, timeout time.Duration, err error) *RemoteError {
	detail := fmt.Sprintf("cannot reach allocation service: %v", unwrapURLError(err))
	switch {
	case errors.Is(err, context.DeadlineExceeded) && timeout > 0:
		detail = fmt.Sprintf("request timed out after %s", timeout)
	case errors.Is(err, context.Canceled):
		detail = "request cancelled"
	}
	return &RemoteError{Op: op, Detail: detail, Err: err}
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func decodeJSON(op string, data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &RemoteError{
			Op:         op,
			StatusCode: nethttp.StatusOK,
			Detail:     fmt.Sprintf("unexpected response from service: %v", err),
			Body:       string(data),
			Err:        err,
		}
	}
	return nil
}

// CheckHealth probes GET /health.
func (c *Client) CheckHealth(ctx context.Context) error {
	timeout := c.timeout
	if timeout == 0 || timeout > constants.HealthCheckTimeout {
		timeout = constants.HealthCheckTimeout
	}
	_, err := c.doRequestTimeout(ctx, timeout, OpHealth, nethttp.MethodGet, c.routes.Health, nil, "")
	return err
}

// UploadStudents sends a roster CSV as multipart field "file".
// auto_allocate and mode travel as query parameters.
func (c *Client) UploadStudents(ctx context.Context, file models.UploadFile, opts models.UploadOptions) (*models.UploadOutcome, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	name := filepath.Base(file.Name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "students.csv"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	header.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, &RemoteError{Op: OpUpload, Detail: fmt.Sprintf("failed to build upload: %v", err), Err: err}
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, &RemoteError{Op: OpUpload, Detail: fmt.Sprintf("failed to read %s: %v", name, err), Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &RemoteError{Op: OpUpload, Detail: fmt.Sprintf("failed to build upload: %v", err), Err: err}
	}

	query := url.Values{}
	query.Set("auto_allocate", strconv.FormatBool(opts.AutoAllocate))
	if opts.Mode != "" {
		query.Set("mode", string(opts.Mode))
	}

	data, err := c.doRequest(ctx, OpUpload, nethttp.MethodPost, c.routes.Upload+"?"+query.Encode(), &buf, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var outcome models.UploadOutcome
	if err := decodeJSON(OpUpload, data, &outcome); err != nil {
		return nil, err
	}
	return &outcome, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// TriggerRun starts an allocation over the current roster and returns its id.
func (c *Client) TriggerRun(ctx context.Context) (models.RunID, error) {
	data, err := c.doRequest(ctx, OpTriggerRun, nethttp.MethodPost, c.routes.TriggerRun, nil, "")
	if err != nil {
		return "", err
	}

	var ref models.RunRef
	if err := decodeJSON(OpTriggerRun, data, &ref); err != nil {
		return "", err
	}
	if ref.RunID.IsZero() {
		return "", &RemoteError{Op: OpTriggerRun, StatusCode: nethttp.StatusOK, Detail: "service did not return a run_id", Body: string(data)}
	}
	return ref.RunID, nil
}

// FetchLatestRun returns the id of the most recent run, or "" when none exists.
// A 404 answer means no run has completed yet.
func (c *Client) FetchLatestRun(ctx context.Context) (models.RunID, error) {
	data, err := c.doRequest(ctx, OpLatestRun, nethttp.MethodGet, c.routes.LatestRun, nil, "")
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	var ref models.RunRef
	if err := decodeJSON(OpLatestRun, data, &ref); err != nil {
		return "", err
	}
	return ref.RunID, nil
}

// FetchRunResults returns the assignments of one run.
func (c *Client) FetchRunResults(ctx context.Context, runID models.RunID) (*models.RunResults, error) {
	data, err := c.doRequest(ctx, OpRunResults, nethttp.MethodGet, c.routes.Results(runID), nil, "")
	if err != nil {
		return nil, err
	}

	var results models.RunResults
	if err := decodeJSON(OpRunResults, data, &results); err != nil {
		return nil, err
	}
	results.Results = results.Rows()
	return &results, nil
}

// ListInternships returns every internship. Accepts {"items": [...]} or a bare list.
func (c *Client) ListInternships(ctx context.Context) ([]models.InternshipListing, error) {
	data, err := c.doRequest(ctx, OpListInternships, nethttp.MethodGet, c.routes.Internships, nil, "")
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []models.InternshipListing
		if err := decodeJSON(OpListInternships, trimmed, &items); err != nil {
			return nil, err
		}
		return nonNil(items), nil
	}

	var list models.InternshipList
	if err := decodeJSON(OpListInternships, trimmed, &list); err != nil {
		return nil, err
	}
	return nonNil(list.Items), nil
}

func nonNil(items []models.InternshipListing) []models.InternshipListing {
	if items == nil {
		return []models.InternshipListing{}
	}
	return items
}

// CreateInternship posts a new internship.
func (c *Client) CreateInternship(ctx context.Context, req models.InternshipRequest) (*models.CreatedInternship, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &RemoteError{Op: OpCreateInternship, Detail: fmt.Sprintf("failed to marshal request body: %v", err), Err: err}
	}

	data, err := c.doRequest(ctx, OpCreateInternship, nethttp.MethodPost, c.routes.Internships, bytes.NewReader(payload), "application/json")
	if err != nil {
		return nil, err
	}

	var created models.CreatedInternship
	if len(bytes.TrimSpace(data)) == 0 {
		return &created, nil
	}
	if err := decodeJSON(OpCreateInternship, data, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DownloadURL returns the CSV export address of a run. No request is made.
func (c *Client) DownloadURL(runID models.RunID) string {
	return c.baseURL + c.routes.Download(runID)
}

// OpenDownload streams the CSV export of a run. The caller closes the body.
// The per-call timeout does not apply; bound it with ctx.
func (c *Client) OpenDownload(ctx context.Context, runID models.RunID) (io.ReadCloser, int64, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.DownloadURL(runID), nil)
	if err != nil {
		return nil, 0, &RemoteError{Op: OpDownload, Detail: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", version.UserAgent())
	if id := RequestIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(OpDownload, 0, time.Since(start))
		return nil, 0, networkError(OpDownload, 0, err)
	}
	c.observe(OpDownload, resp.StatusCode, time.Since(start))

	if resp.StatusCode != nethttp.StatusOK {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
		return nil, 0, &RemoteError{
			Op:         OpDownload,
			StatusCode: resp.StatusCode,
			Detail:     ExtractDetail(resp.StatusCode, data),
			Body:       string(data),
		}
	}
	return resp.Body, resp.ContentLength, nil
}
