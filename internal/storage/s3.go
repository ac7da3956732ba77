package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sync"

	"grid-splitter/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client the bucket sink uses.
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type BucketConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// NewS3Client builds a path-style client, suitable for MinIO when an
// endpoint is given. Without static keys the default credential chain is used.
func NewS3Client(ctx context.Context, cfg BucketConfig) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// S3Sink uploads tiles under Prefix in Bucket, creating the bucket on first use.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
	logger logger.Logger

	ensureOnce sync.Once
	ensureErr  error
}

func NewS3Sink(client S3API, bucket, prefix string, log logger.Logger) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, logger: log}
}

// WithPrefix returns a sink writing to the same bucket under another prefix.
func (s *S3Sink) WithPrefix(prefix string) *S3Sink {
	return NewS3Sink(s.client, s.bucket, prefix, s.logger)
}

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.ensureOnce.Do(func() {
		_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
		if err == nil {
			return
		}
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			s.ensureErr = fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
			return
		}
		s.logger.Info("S3Sink", "created bucket", map[string]interface{}{"bucket": s.bucket})
	})
	return s.ensureErr
}

func (s *S3Sink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	key := path.Join(s.prefix, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.logger.Debug("S3Sink", "uploaded", map[string]interface{}{"key": key, "bytes": len(data)})
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

func (s *S3Sink) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}
