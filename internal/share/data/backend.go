package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lk2023060901/tomato-share/internal/pkg/minio"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
	"go.uber.org/zap"
)

// rollbackTimeout 记录写入失败后删除孤儿对象的时限
const rollbackTimeout = 10 * time.Second

// StorageAdapter 组合对象存储与记录仓储，实现 biz.StorageAdapter
type StorageAdapter struct {
	store     ObjectStore
	repo      RecordRepo
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

var (
	_ biz.StorageAdapter = (*StorageAdapter)(nil)
	_ biz.Initializer    = (*StorageAdapter)(nil)
)

func NewStorageAdapter(store ObjectStore, repo RecordRepo, keyPrefix string, logger *zap.Logger) *StorageAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageAdapter{
		store:     store,
		repo:      repo,
		keyPrefix: keyPrefix,
		logger:    logger.Named("storage"),
		now:       time.Now,
	}
}

// Init 准备存储桶与记录表
func (a *StorageAdapter) Init(ctx context.Context) error {
	if err := a.store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	if err := a.repo.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate records: %w", err)
	}
	a.logger.Info("storage adapter ready", zap.String("provider", a.store.Name()))
	return nil
}

// Upload 先写对象再写记录；记录写入失败时删除已上传的对象
func (a *StorageAdapter) Upload(ctx context.Context, req *biz.UploadRequest) (*biz.FileRecord, error) {
	if req == nil || req.File == nil || req.File.Reader == nil {
		return nil, errors.New("upload request without file")
	}
	file := req.File

	// 记录保留浏览器给出的类型，嗅探结果只用于对象的 Content-Type
	contentType := file.ContentType
	body := file.Reader
	if contentType == "" {
		var err error
		contentType, body, err = sniffContentType(file.Reader)
		if err != nil {
			return nil, fmt.Errorf("read file head: %w", err)
		}
	}

	key := minio.ObjectKey(a.keyPrefix, a.now().UTC().Format("2006/01/02"), uuid.NewString(), file.Name)
	obj, err := a.store.Put(ctx, &PutObject{
		Key:         key,
		ContentType: contentType,
		Body:        body,
		Size:        file.Size,
		OnProgress:  req.OnProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", key, err)
	}

	url := obj.URL
	if req.NormalizeURL != nil {
		url = req.NormalizeURL(url)
	}

	record := &biz.FileRecord{
		Name:      file.Name,
		URL:       url,
		Size:      obj.Size,
		MimeType:  file.ContentType,
		ObjectKey: key,
	}
	if err := a.repo.Create(ctx, record, req.ACL); err != nil {
		// 对象已被其他记录引用时不能删除
		if !errors.Is(err, biz.ErrDuplicateObject) {
			a.rollback(ctx, key)
		}
		return nil, fmt.Errorf("save record: %w", err)
	}

	return record, nil
}

func (a *StorageAdapter) rollback(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := a.store.Remove(ctx, key); err != nil {
		a.logger.Error("failed to remove orphaned object", zap.String("key", key), zap.Error(err))
		return
	}
	a.logger.Warn("orphaned object removed", zap.String("key", key))
}

func (a *StorageAdapter) GetByID(ctx context.Context, id string) (*biz.FileRecord, error) {
	return a.repo.GetByID(ctx, id)
}
