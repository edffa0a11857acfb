package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/http"
)

// S3Sink archives exports to an S3 bucket.
type S3Sink struct {
	client *s3.Client
	target Target
	logger zerolog.Logger
}

// NewS3Sink creates an S3 sink. Static keys from the [export] section are
// used when set; otherwise the default AWS credential chain applies.
func NewS3Sink(ctx context.Context, cfg *config.Config, target Target, o options) (*S3Sink, error) {
	httpClient, err := http.NewTransferClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithHTTPClient(httpClient),
	}
	if cfg.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	})

	return &S3Sink{client: client, target: target, logger: o.logger}, nil
}

// Put uploads localPath to the target bucket.
func (s *S3Sink) Put(ctx context.Context, localPath string) (string, error) {
	key := s.target.ObjectKey(filepath.Base(localPath))

	retryCfg := http.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, errType http.ErrorType) {
		s.logger.Warn().Err(err).Int("attempt", attempt).Str("type", errType.String()).Msg("Retrying S3 upload")
	}

	err := http.ExecuteWithRetry(ctx, retryCfg, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat export: %w", err)
		}

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.target.Bucket),
			Key:           aws.String(key),
			Body:          f,
			ContentLength: aws.Int64(info.Size()),
			ContentType:   aws.String("text/csv"),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3://%s/%s: %w", s.target.Bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.target.Bucket, key), nil
}
