// Package publish uploads mirror snapshots to an S3-compatible bucket.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/maillist/internal/logging"
	"github.com/google/uuid"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("publishing disabled: no bucket configured")

const presignValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// Config selects the bucket and credentials. Empty AccessKey falls back to
// the default AWS credential chain; a BaseEndpoint (MinIO and friends)
// switches to path-style addressing.
type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Prefix       string
}

func (c Config) Enabled() bool { return c.Bucket != "" }

// Published describes an uploaded snapshot.
type Published struct {
	Key string
	// URL is a presigned GET link valid for a short while.
	URL string
}

type S3Publisher struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	logger  logging.Logger
	now     func() time.Time
}

func NewS3Publisher(ctx context.Context, cfg Config, logger logging.Logger) (*S3Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Publisher{
		cfg:     cfg,
		client:  client,
		presign: newS3PresignClient(client),
		logger:  logger.With("module", "publish", "bucket", cfg.Bucket),
		now:     time.Now,
	}, nil
}

// StorageKey is prefix/YYYY/M/D/<uuid>-name.
func StorageKey(prefix string, d time.Time, name string) string {
	if prefix == "" {
		prefix = "mirror"
	}
	return path.Join(prefix, fmt.Sprintf("%d/%d/%d/%v-%s", d.Year(), d.Month(), d.Day(), uuid.New(), name))
}

// Publish uploads body under a fresh key and returns the key together with
// a presigned download link.
func (p *S3Publisher) Publish(ctx context.Context, name string, body []byte) (*Published, error) {
	bucket := p.cfg.Bucket
	key := StorageKey(p.cfg.Prefix, p.now().UTC(), name)

	_, err := putObject(p.client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	req, err := presignGetObject(p.presign, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	p.logger.Info(ctx, "mirror snapshot published", "key", key, "bytes", len(body))
	return &Published{Key: key, URL: req.URL}, nil
}
