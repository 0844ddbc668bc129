package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOOptions configures the object-store backend.
type MinIOOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

// MinIOStore keeps documents under uploads/<filename> in one bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(ctx context.Context, opts MinIOOptions) (*MinIOStore, error) {
	client, err := minio.New(
		opts.Endpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
			Secure: opts.Secure,
		},
	)
	if err != nil {
		return nil, err
	}
	// Create bucket if not exists
	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}
	return &MinIOStore{client: client, bucket: opts.Bucket}, nil
}

func (m *MinIOStore) Backend() string { return BackendMinIO }

// ObjectKey is the key a document named name is stored under.
func ObjectKey(name string) string {
	return path.Join("uploads", CleanName(name))
}

func (m *MinIOStore) Put(ctx context.Context, name string, content []byte, contentType string) (Reference, error) {
	name = CleanName(name)
	if name == "" {
		return Reference{}, fmt.Errorf("empty document name")
	}
	key := ObjectKey(name)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Reference{}, fmt.Errorf("put %s: %w", key, err)
	}
	return Reference{
		Backend:     BackendMinIO,
		Key:         key,
		Name:        name,
		Size:        int64(len(content)),
		ContentType: contentType,
	}, nil
}

func (m *MinIOStore) Open(ctx context.Context, ref Reference) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, ref.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref.Key, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%s: %w", ref.Key, ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", ref.Key, err)
	}
	return obj, nil
}
