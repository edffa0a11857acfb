package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/rs/zerolog"

	"github.com/pminternship/alloc-admin/internal/config"
	"github.com/pminternship/alloc-admin/internal/http"
)

// ErrNoSASURL is returned when an azblob target is used without export.azure_sas_url.
var ErrNoSASURL = errors.New("export.azure_sas_url is not configured")

// AzureSink archives exports to an Azure blob container through a SAS URL.
type AzureSink struct {
	client *azblob.Client
	target Target
	logger zerolog.Logger
}

// NewAzureSink creates an Azure sink from the account SAS URL in cfg.
func NewAzureSink(cfg *config.Config, target Target, o options) (*AzureSink, error) {
	if cfg.AzureSASURL == "" {
		return nil, ErrNoSASURL
	}

	httpClient, err := http.NewTransferClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	client, err := azblob.NewClientWithNoCredential(cfg.AzureSASURL, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Transport: httpClient,
			// retries are handled by ExecuteWithRetry
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	return &AzureSink{client: client, target: target, logger: o.logger}, nil
}

// Put uploads localPath as a block blob.
func (s *AzureSink) Put(ctx context.Context, localPath string) (string, error) {
	blobName := s.target.ObjectKey(filepath.Base(localPath))

	retryCfg := http.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, errType http.ErrorType) {
		s.logger.Warn().Err(err).Int("attempt", attempt).Str("type", errType.String()).Msg("Retrying Azure upload")
	}

	err := http.ExecuteWithRetry(ctx, retryCfg, func() error {
		f, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("failed to open export: %w", err)
		}
		defer f.Close()

		_, err = s.client.UploadFile(ctx, s.target.Bucket, blobName, f, nil)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to azblob://%s/%s: %w", s.target.Bucket, blobName, err)
	}
	return fmt.Sprintf("azblob://%s/%s", s.target.Bucket, blobName), nil
}
