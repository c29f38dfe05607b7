package storage

import (
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/andresvl/aulaviva/internal/pkg/env"
)

// Config holds the object storage configuration for transfer receipts.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads object storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_PROOFS_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when proof storage is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when proof storage is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when proof storage is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if proof storage is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ProofObjectKey generates the object key for an uploaded receipt.
// Format: proofs/YYYY/MM/<uuid><ext>
func ProofObjectKey(originalFilename string, at time.Time) string {
	ext := path.Ext(originalFilename)
	return fmt.Sprintf("proofs/%04d/%02d/%s%s", at.Year(), int(at.Month()), uuid.NewString(), ext)
}
