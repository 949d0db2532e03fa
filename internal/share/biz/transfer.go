package biz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"
)

// TransferConfig 文件传输客户端配置
type TransferConfig struct {
	// PublicDomain 对外访问文件的固定域名
	PublicDomain string
}

// ProgressFunc 上传进度回调，参数为 0-100 的百分比
type ProgressFunc func(percent int)

// FileTransferClient 封装存储适配器，负责上传、查询与地址规范化
type FileTransferClient struct {
	adapter StorageAdapter
	logger  *zap.Logger

	mu         sync.RWMutex
	normalizer *URLNormalizer
}

// NewFileTransferClient 创建客户端，使用前必须调用 Initialize
func NewFileTransferClient(adapter StorageAdapter, logger *zap.Logger) *FileTransferClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileTransferClient{
		adapter: adapter,
		logger:  logger.Named("transfer"),
	}
}

// Initialize 初始化客户端（幂等）：首次成功调用后，后续调用直接返回 nil
func (c *FileTransferClient) Initialize(ctx context.Context, cfg TransferConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.normalizer != nil {
		return nil
	}

	if init, ok := c.adapter.(Initializer); ok {
		if err := init.Init(ctx); err != nil {
			return fmt.Errorf("initialize storage adapter: %w", err)
		}
	}

	c.normalizer = NewURLNormalizer(cfg.PublicDomain)
	c.logger.Info("file transfer client initialized", zap.String("public_domain", c.normalizer.Host()))
	return nil
}

// Initialized 是否已初始化
func (c *FileTransferClient) Initialized() bool {
	return c.current() != nil
}

func (c *FileTransferClient) current() *URLNormalizer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.normalizer
}

// Percent round(transferred/total*100)，上限 100
func Percent(transferred, total int64) int {
	if transferred <= 0 || total <= 0 {
		return 0
	}
	p := int(math.Round(float64(transferred) / float64(total) * 100))
	if p > 100 {
		return 100
	}
	return p
}

// UploadFile 上传文件并写入元数据记录。
// 类型与大小由调用方通过 ValidateUpload 预先校验。
// 任何失败都以 ErrUploadFailed 返回，原因只写日志。
func (c *FileTransferClient) UploadFile(ctx context.Context, file *FileUpload, onProgress ProgressFunc) (*FileRecord, error) {
	n := c.current()
	if n == nil {
		return nil, ErrNotInitialized
	}
	if file == nil || file.Reader == nil {
		c.logger.Error("upload called without a file")
		return nil, &TransferError{cause: errors.New("nil file")}
	}

	req := &UploadRequest{
		File: file,
		OnProgress: func(transferred, total int64) {
			if onProgress == nil || transferred <= 0 || total <= 0 {
				return
			}
			onProgress(Percent(transferred, total))
		},
		NormalizeURL: n.Normalize,
		ACL:          PublicReadACL,
	}

	record, err := c.adapter.Upload(ctx, req)
	if err == nil && record == nil {
		err = errors.New("storage returned no record")
	}
	if err != nil {
		fields := []zap.Field{
			zap.String("name", file.Name),
			zap.Int64("size", file.Size),
			zap.Error(err),
		}
		if errors.Is(err, ErrPermissionDenied) {
			fields = append(fields, zap.String("hint", "check bucket policy and storage credentials"))
		}
		c.logger.Error("upload failed", fields...)
		return nil, &TransferError{cause: err}
	}

	record.URL = n.Normalize(record.URL)

	c.logger.Info("file uploaded",
		zap.String("id", record.ID),
		zap.String("name", record.Name),
		zap.Int64("size", record.Size),
	)
	return record, nil
}

// GetFileInfo 按 ID 查询记录；不存在或查询失败都返回 nil
func (c *FileTransferClient) GetFileInfo(ctx context.Context, id string) *FileRecord {
	if id == "" {
		return nil
	}

	n := c.current()
	if n == nil {
		c.logger.Warn("lookup before initialization", zap.String("id", id))
		return nil
	}

	record, err := c.adapter.GetByID(ctx, id)
	switch {
	case errors.Is(err, ErrFileNotFound):
		c.logger.Debug("file not found", zap.String("id", id))
		return nil
	case errors.Is(err, ErrPermissionDenied):
		c.logger.Error("file lookup denied, check read permission on the shared_files table",
			zap.String("id", id), zap.Error(err))
		return nil
	case err != nil:
		c.logger.Error("file lookup failed", zap.String("id", id), zap.Error(err))
		return nil
	case record == nil:
		return nil
	}

	record.URL = n.Normalize(record.URL)
	return record
}
