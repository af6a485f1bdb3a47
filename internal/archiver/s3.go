package archiver

import (
	"bytes"
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/NetCockpit/nc-analyzer/pkg/log"
)

// S3Config describes the bucket archived artifacts are uploaded to.
type S3Config struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
}

// Uploader pushes archived line-protocol/avro artifacts to object
// storage. A zero-value Uploader (Bucket == "") disables archival
// entirely instead of requiring every caller to check first.
type Uploader struct {
	client *s3.Client
	bucket string
}

// NewUploader builds an Uploader from cfg. An empty Bucket yields a
// disabled Uploader whose Upload calls are no-ops.
func NewUploader(ctx context.Context, cfg S3Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		log.Warn("archiver: no S3 bucket configured, archival uploads disabled")
		return &Uploader{}, nil
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("archiver: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
		}
		o.UsePathStyle = cfg.Endpoint != ""
	})

	return &Uploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload stores data under key in the configured bucket. A disabled
// Uploader silently drops the artifact.
func (u *Uploader) Upload(ctx context.Context, key string, data []byte) error {
	if u == nil || u.client == nil {
		return nil
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &u.bucket,
		Key:    &key,
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("archiver: uploading %s: %w", key, err)
	}
	return nil
}
