package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Exporter uploads exports to an S3-compatible bucket (AWS, R2, MinIO)
type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
	logger *errors.Logger
}

// NewS3Exporter loads AWS configuration and creates the bucket client.
// Static keys take precedence over the default credential chain.
func NewS3Exporter(ctx context.Context, cfg config.S3Config, logger *errors.Logger) (*S3Exporter, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	if cfg.Bucket == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "export.s3.bucket is required in s3 mode", nil)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	logger.Info("S3 exporter configured", "bucket", cfg.Bucket, "endpoint", cfg.Endpoint, "prefix", cfg.Prefix)
	return &S3Exporter{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, logger: logger}, nil
}

func (e *S3Exporter) key(filename string) string {
	return path.Join(e.prefix, path.Base(filename))
}

func (e *S3Exporter) Export(ctx context.Context, filename string, content []byte) (string, error) {
	key := e.key(filename)
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(e.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(content),
		ContentType:        aws.String("text/plain; charset=utf-8"),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", path.Base(filename))),
	})
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeExportFailed, "Failed to upload exported resume", err).
			WithContext("bucket", e.bucket).
			WithContext("key", key)
	}

	location := fmt.Sprintf("s3://%s/%s", e.bucket, key)
	e.logger.Info("Resume exported", "location", location, "bytes", len(content))
	return location, nil
}
