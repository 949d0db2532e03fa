package data

import (
	"context"
	"fmt"

	"github.com/lk2023060901/tomato-share/internal/pkg/minio"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

type minioStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOStore(client *minio.Client, bucket string) ObjectStore {
	return &minioStore{client: client, bucket: bucket}
}

func (s *minioStore) Name() string { return "minio" }

func (s *minioStore) EnsureBucket(ctx context.Context) error {
	return mapMinIOError(s.client.EnsurePublicBucket(ctx, s.bucket))
}

func (s *minioStore) Put(ctx context.Context, obj *PutObject) (*StoredObject, error) {
	opts := minio.PutObjectOptions{ContentType: obj.ContentType}
	if obj.OnProgress != nil {
		opts.OnProgress = minio.ProgressFunc(obj.OnProgress)
	}

	info, err := s.client.PutObject(ctx, s.bucket, obj.Key, obj.Body, obj.Size, opts)
	if err != nil {
		return nil, mapMinIOError(err)
	}

	size := info.Size
	if size <= 0 {
		size = obj.Size
	}
	return &StoredObject{
		Key:  obj.Key,
		URL:  s.client.ObjectURL(s.bucket, obj.Key),
		Size: size,
	}, nil
}

func (s *minioStore) Remove(ctx context.Context, key string) error {
	return mapMinIOError(s.client.RemoveObject(ctx, s.bucket, key))
}

func mapMinIOError(err error) error {
	if err != nil && minio.IsAccessDenied(err) {
		return fmt.Errorf("%w: %v", biz.ErrPermissionDenied, err)
	}
	return err
}
