package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrorType groups export failures by whether another attempt can help.
type ErrorType int

const (
	ErrorTypeSuccess ErrorType = iota
	// ErrorTypeCredential covers rejected archive credentials (403, expired SAS).
	ErrorTypeCredential
	ErrorTypeNetwork
	// ErrorTypeRetryable covers throttling and 5xx answers from the object store.
	ErrorTypeRetryable
	ErrorTypeFatal
)

var errorTypeNames = [...]string{"success", "credential", "network", "retryable", "fatal"}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "unknown"
	}
	return errorTypeNames[t]
}

// Transient reports whether the error class is worth another attempt.
func (t ErrorType) Transient() bool {
	return t == ErrorTypeNetwork || t == ErrorTypeRetryable
}

// errorMarkers is checked in order; the first class with a matching
// substring wins. S3 and Azure errors share no common type, so matching is
// on the lowercased message.
var errorMarkers = []struct {
	class   ErrorType
	needles []string
}{
	{ErrorTypeCredential, []string{
		"expiredtoken", "invalidaccesskeyid", "signaturedoesnotmatch",
		"authenticationfailed", "authorizationfailure", "403",
	}},
	{ErrorTypeNetwork, []string{
		"connection reset", "connection refused", "broken pipe",
		"tls handshake timeout", "i/o timeout", "timeout", "eof",
	}},
	{ErrorTypeRetryable, []string{
		"internalerror", "serviceunavailable", "slowdown", "throttl", "serverbusy",
		"429", "500", "502", "503", "504",
	}},
}

// Config controls ExecuteWithRetry.
type Config struct {
	// MaxRetries counts attempts, including the first.
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, errType ErrorType)
}

// DefaultConfig is used for archive uploads.
func DefaultConfig() Config {
	return Config{MaxRetries: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 15 * time.Second}
}

func ClassifyError(err error) ErrorType {
	switch {
	case err == nil:
		return ErrorTypeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorTypeFatal
	}

	msg := strings.ToLower(err.Error())
	for _, m := range errorMarkers {
		for _, needle := range m.needles {
			if strings.Contains(msg, needle) {
				return m.class
			}
		}
	}
	return ErrorTypeFatal
}

// CalculateBackoff picks a full-jitter delay in [0, min(maxDelay, initialDelay<<attempt)).
func CalculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	if attempt <= 0 || initialDelay <= 0 {
		return 0
	}
	ceiling := initialDelay << uint(attempt)
	if ceiling <= 0 || ceiling > maxDelay {
		ceiling = maxDelay
	}
	return time.Duration(rand.Int63n(int64(ceiling)))
}

// ExecuteWithRetry calls op until it succeeds, fails with a non-transient
// error, or runs out of attempts. A wait that would overrun the context
// deadline ends the loop early.
func ExecuteWithRetry(ctx context.Context, config Config, op func() error) error {
	attempts := max(config.MaxRetries, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return withLast(ctxErr, err)
		}

		if err = op(); err == nil {
			return nil
		}
		class := ClassifyError(err)
		if !class.Transient() {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("operation failed after %d attempts: %w", attempts, err)
		}

		wait := CalculateBackoff(attempt, config.InitialDelay, config.MaxDelay)
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < wait {
			return fmt.Errorf("deadline too close to retry: %w", err)
		}
		if config.OnRetry != nil {
			config.OnRetry(attempt, err, class)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return withLast(ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func withLast(ctxErr, last error) error {
	if last == nil {
		return ctxErr
	}
	return fmt.Errorf("%w (last error: %v)", ctxErr, last)
}

// IdempotentRetryPolicy lets retryablehttp replay GET and HEAD only. A
// replayed upload or run trigger would start a second allocation.
func IdempotentRetryPolicy(ctx context.Context, resp *nethttp.Response, err error) (bool, error) {
	if !idempotent(requestMethod(resp, err)) {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

func idempotent(method string) bool {
	return method == nethttp.MethodGet || method == nethttp.MethodHead
}

// requestMethod digs the method out of a response, or out of the
// url.Error a failed round trip leaves behind.
func requestMethod(resp *nethttp.Response, err error) string {
	if resp != nil && resp.Request != nil {
		return resp.Request.Method
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return strings.ToUpper(urlErr.Op)
	}
	return ""
}
