// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package storage publishes merged PDFs to an S3-compatible object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/bradhe/stopwatch"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docmerge/pkg/types"
)

const contentType = "application/pdf"

// putter is the subset of *minio.Client used by Publisher.
type putter interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Publisher uploads finished outputs to a bucket.
type Publisher struct {
	client putter
	bucket string
	prefix string
	log    logrus.FieldLogger
	newID  func() string
}

// NewPublisher connects to the endpoint in cfg. It fails when storage is not
// configured.
func NewPublisher(cfg types.StorageConfig, log logrus.FieldLogger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("storage requires an endpoint and a bucket")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating storage client for %s: %w", cfg.Endpoint, err)
	}
	return newPublisher(client, cfg, log), nil
}

func newPublisher(client putter, cfg types.StorageConfig, log logrus.FieldLogger) *Publisher {
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
		newID:  uuid.NewString,
	}
}

// Publish uploads the file at filePath and returns its object key,
// <prefix><uuid>.pdf.
func (p *Publisher) Publish(ctx context.Context, filePath string) (string, error) {
	key := p.prefix + p.newID() + ".pdf"
	watch := stopwatch.Start()

	info, err := p.client.FPutObject(ctx, p.bucket, key, filePath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("uploading %s to %s: %w", path.Base(filePath), p.bucket, err)
	}

	watch.Stop()
	p.log.WithFields(logrus.Fields{
		"bucket":     p.bucket,
		"key":        key,
		"size":       info.Size,
		"elapsed_ms": watch.Milliseconds(),
	}).Info("output published")
	return key, nil
}
