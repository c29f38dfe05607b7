package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
)

// ProofStore persists uploaded transfer receipts in object storage so the
// back-office can review them later.
type ProofStore struct {
	s3Client *s3.Client
	config   *Config
}

var (
	storeOnce sync.Once
	store     *ProofStore
	storeErr  error
)

// NewProofStore creates a proof store from the given configuration.
func NewProofStore(cfg *Config) (*ProofStore, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("proof storage is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	log.Infof("[ProofStore] initialized for bucket: %s", cfg.BucketName)
	return &ProofStore{s3Client: s3Client, config: cfg}, nil
}

// GetProofStore returns the process-wide proof store, initialized once from
// the environment. Returns an error when storage is disabled.
func GetProofStore() (*ProofStore, error) {
	storeOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			storeErr = err
			return
		}
		if !cfg.IsEnabled() {
			storeErr = fmt.Errorf("proof storage is disabled")
			return
		}
		store, storeErr = NewProofStore(cfg)
	})
	return store, storeErr
}

// Put uploads a receipt under the given object key.
func (p *ProofStore) Put(ctx context.Context, objectKey, contentType string, body io.Reader) error {
	_, err := p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.config.BucketName),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload proof %s: %w", objectKey, err)
	}
	return nil
}

// Get streams a stored receipt back for review.
func (p *ProofStore) Get(ctx context.Context, objectKey string) (io.ReadCloser, string, error) {
	out, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.config.BucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch proof %s: %w", objectKey, err)
	}
	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return out.Body, contentType, nil
}

// Delete removes a stored receipt, used when a proof row fails to persist.
func (p *ProofStore) Delete(ctx context.Context, objectKey string) error {
	_, err := p.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.config.BucketName),
		Key:    aws.String(objectKey),
	})
	return err
}
