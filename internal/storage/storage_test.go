// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docmerge/pkg/types"
)

type fakePutter struct {
	bucket, object, path string
	opts                 minio.PutObjectOptions
	err                  error
}

func (f *fakePutter) FPutObject(_ context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.object, f.path, f.opts = bucket, object, filePath, opts
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: 1234}, nil
}

func TestPublish(t *testing.T) {
	log, hook := test.NewNullLogger()
	fp := &fakePutter{}
	p := newPublisher(fp, types.StorageConfig{Bucket: "merged", Prefix: "jobs/"}, log)
	p.newID = func() string { return "0000-1111" }

	key, err := p.Publish(context.Background(), "/tmp/out.pdf")
	require.NoError(t, err)

	assert.Equal(t, "jobs/0000-1111.pdf", key)
	assert.Equal(t, "merged", fp.bucket)
	assert.Equal(t, key, fp.object)
	assert.Equal(t, "/tmp/out.pdf", fp.path)
	assert.Equal(t, "application/pdf", fp.opts.ContentType)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, key, entry.Data["key"])
}

func TestPublishFailure(t *testing.T) {
	p := newPublisher(&fakePutter{err: errors.New("access denied")}, types.StorageConfig{Bucket: "merged"}, nil)

	key, err := p.Publish(context.Background(), "/tmp/out.pdf")
	require.Error(t, err)
	assert.Empty(t, key)
	assert.Contains(t, err.Error(), "uploading out.pdf to merged")
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewPublisherRequiresConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.StorageConfig
		ok   bool
	}{
		{name: "empty", cfg: types.StorageConfig{}},
		{name: "no bucket", cfg: types.StorageConfig{Endpoint: "localhost:9000"}},
		{name: "configured", cfg: types.StorageConfig{Endpoint: "localhost:9000", Bucket: "merged"}, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPublisher(tt.cfg, nil)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "merged", p.bucket)
		})
	}
}
