package export

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pminternship/alloc-admin/internal/config"
)

// Sink archives a local file to a destination and returns where it landed.
type Sink interface {
	Put(ctx context.Context, localPath string) (string, error)
}

// Option configures sinks built by NewSink.
type Option func(*options)

type options struct {
	endpoint string
	logger   zerolog.Logger
}

// WithEndpoint overrides the S3 endpoint (S3-compatible stores, tests).
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// WithLogger sets the logger used to report retries.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewSink builds the sink for target from the export section of cfg.
func NewSink(ctx context.Context, target Target, cfg *config.Config, opts ...Option) (Sink, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	switch target.Scheme {
	case SchemeFile:
		return NewFileSink(target.Path), nil
	case SchemeS3:
		return NewS3Sink(ctx, cfg, target, o)
	case SchemeAzure:
		return NewAzureSink(cfg, target, o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, target.Scheme)
	}
}
