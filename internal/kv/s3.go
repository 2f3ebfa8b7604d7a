package kv

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API used by S3Store.
type S3Client interface {
	GetObject(ctx context.Context, params *s3aws.GetObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3aws.HeadBucketInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error)
}

// S3Config contains configuration for S3Store.
type S3Config struct {
	Bucket         string `yaml:"bucket" env:"BUCKET"`
	Region         string `yaml:"region" env:"REGION"`
	Prefix         string `yaml:"prefix" env:"PREFIX"`
	AccessKeyID    string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretKey      string `yaml:"secret_key" env:"SECRET_KEY"`
	Endpoint       string `yaml:"endpoint" env:"ENDPOINT"`                 // S3-compatible services like MinIO
	ForcePathStyle bool   `yaml:"force_path_style" env:"FORCE_PATH_STYLE"` // Required for MinIO
}

// S3Store keeps each state entry in its own object named prefix+hex(key).
type S3Store struct {
	client S3Client
	bucket string
	prefix string
}

// S3Option configures NewS3Store.
type S3Option func(*s3Options)

type s3Options struct {
	client          S3Client
	s3ConfigOptions []func(*config.LoadOptions) error
}

// WithS3Client sets a pre-configured client, mostly for tests.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) {
		o.client = client
	}
}

// WithS3ConfigOptions adds options for the AWS config loader.
func WithS3ConfigOptions(opts ...func(*config.LoadOptions) error) S3Option {
	return func(o *s3Options) {
		o.s3ConfigOptions = append(o.s3ConfigOptions, opts...)
	}
}

// NewS3Store creates an S3-backed store.
func NewS3Store(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	var o s3Options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		loadOpts = append(loadOpts, o.s3ConfigOptions...)

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (s *S3Store) objectKey(key []byte) string {
	return s.prefix + hex.EncodeToString(key)
}

func (s *S3Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read object: %w", err)
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, key, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(value),
		ContentLength: aws.Int64(int64(len(value))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3aws.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 head bucket: %w", err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *S3Store) Close() error { return nil }

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
