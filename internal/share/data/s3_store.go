package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/lk2023060901/tomato-share/internal/pkg/s3"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

type s3Store struct {
	client *s3.Client
}

func NewS3Store(client *s3.Client) ObjectStore {
	return &s3Store{client: client}
}

func (s *s3Store) Name() string { return "s3" }

// EnsureBucket 只检查桶是否可访问；S3 桶与公开策略由运维预先配置
func (s *s3Store) EnsureBucket(ctx context.Context) error {
	return mapS3Error(s.client.Ping(ctx))
}

func (s *s3Store) Put(ctx context.Context, obj *PutObject) (*StoredObject, error) {
	in := s3.PutInput{
		Key:         obj.Key,
		Body:        obj.Body,
		Size:        obj.Size,
		ContentType: obj.ContentType,
	}
	if obj.OnProgress != nil {
		in.OnProgress = s3.ProgressFunc(obj.OnProgress)
	}

	out, err := s.client.Put(ctx, in)
	if err != nil {
		return nil, mapS3Error(err)
	}
	return &StoredObject{Key: out.Key, URL: out.Location, Size: obj.Size}, nil
}

func (s *s3Store) Remove(ctx context.Context, key string) error {
	return mapS3Error(s.client.Delete(ctx, key))
}

func mapS3Error(err error) error {
	if errors.Is(err, s3.ErrAccessDenied) {
		return fmt.Errorf("%w: %v", biz.ErrPermissionDenied, err)
	}
	return err
}
