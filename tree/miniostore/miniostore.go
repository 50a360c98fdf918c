package miniostore

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
)

// Options holds what is needed to reach a bucket on MinIO or any S3
// compatible service.
type Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	// Prefix is prepended to every key as a path segment.
	Prefix string
	UseSSL bool
	// Logger defaults to discarding everything.
	Logger *slog.Logger
}

type minioStore struct {
	client *minio.Client
	bucket string
	prefix string
}

// New builds a tree.Store that keeps every blob as an object of the
// bucket in the given options.
func New(opts Options) (tree.Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating minio client for %q", opts.Endpoint)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("minio store initialized", "endpoint", opts.Endpoint, "bucket", opts.Bucket)
	return NewWithClient(client, opts.Bucket, opts.Prefix), nil
}

// NewWithClient builds a tree.Store on an existing minio client.
func NewWithClient(client *minio.Client, bucket, prefix string) tree.Store {
	return &minioStore{client: client, bucket: bucket, prefix: prefix}
}

func (ms *minioStore) Put(ctx context.Context, key string, data []byte) error {
	object := ms.objectFor(key)
	_, err := ms.client.PutObject(ctx, ms.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return errors.Wrapf(err, "uploading %q to bucket %q", object, ms.bucket)
	}
	return nil
}

func (ms *minioStore) Get(ctx context.Context, key string) ([]byte, error) {
	object := ms.objectFor(key)
	obj, err := ms.client.GetObject(ctx, ms.bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, ms.readError(err, object)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, ms.readError(err, object)
	}
	return data, nil
}

func (ms *minioStore) readError(err error, object string) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return tree.ErrNotFound
	}
	return errors.Wrapf(err, "downloading %q from bucket %q", object, ms.bucket)
}

func (ms *minioStore) Delete(ctx context.Context, key string) error {
	object := ms.objectFor(key)
	err := ms.client.RemoveObject(ctx, ms.bucket, object, minio.RemoveObjectOptions{})
	if err != nil {
		return errors.Wrapf(err, "removing %q from bucket %q", object, ms.bucket)
	}
	return nil
}

func (ms *minioStore) Close() error {
	return nil
}

func (ms *minioStore) objectFor(key string) string {
	if ms.prefix == "" {
		return key
	}
	return path.Join(ms.prefix, key)
}
