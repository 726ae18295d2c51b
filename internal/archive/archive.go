// Package archive uploads activity reports to an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/erazemk/renova/internal/audit"
	"github.com/erazemk/renova/internal/config"
	"github.com/erazemk/renova/internal/model"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("report archiving is not configured")

// putObjectAPI is the part of the S3 client used here.
type putObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadAWSConfig = awsconfig.LoadDefaultConfig

// Uploader stores reports under a key prefix in one bucket.
type Uploader struct {
	client putObjectAPI
	bucket string
	prefix string
}

// New builds an Uploader from cfg. Static credentials are used when an
// access key is configured; otherwise the default AWS credential chain is.
func New(ctx context.Context, cfg config.S3) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := loadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3-compatible servers such as MinIO expect path-style URLs.
			o.UsePathStyle = true
		}
	})

	return newUploader(client, cfg.Bucket, cfg.Prefix), nil
}

func newUploader(client putObjectAPI, bucket, prefix string) *Uploader {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Uploader{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a report taken at t.
func (u *Uploader) Key(t time.Time) string {
	return u.prefix + "activity-" + t.UTC().Format("20060102T150405Z") + ".csv"
}

// Upload stores a CSV report taken at t and returns its key.
func (u *Uploader) Upload(ctx context.Context, t time.Time, report []byte) (string, error) {
	key := u.Key(t)
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(report),
		ContentLength: aws.Int64(int64(len(report))),
		ContentType:   aws.String("text/csv; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report %s: %w", key, err)
	}
	return key, nil
}

// ArchiveLogs renders logs as a CSV report and uploads it.
func (u *Uploader) ArchiveLogs(ctx context.Context, t time.Time, logs []model.LogEntry, layout string, loc *time.Location) (string, error) {
	var buf bytes.Buffer
	if err := audit.WriteCSV(&buf, logs, layout, loc); err != nil {
		return "", err
	}
	return u.Upload(ctx, t, buf.Bytes())
}
