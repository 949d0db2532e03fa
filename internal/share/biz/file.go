package biz

import (
	"context"
	"io"
	"time"
)

// FileRecord 已上传文件的元数据记录，创建后不可修改
type FileRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mime_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// ObjectKey 对象存储中的键
	ObjectKey string `json:"object_key,omitempty"`
}

// FileUpload 待上传的文件
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Reader      io.Reader
}

// ACL 记录的访问策略
type ACL struct {
	PublicRead  bool
	PublicWrite bool
}

// PublicReadACL 公开可读、不可公开写
var PublicReadACL = ACL{PublicRead: true, PublicWrite: false}

// TransferFunc 传输进度回调，参数为已传输与总字节数
type TransferFunc func(transferred, total int64)

// UploadRequest 交给存储适配器的上传请求
type UploadRequest struct {
	File       *FileUpload
	OnProgress TransferFunc
	// NormalizeURL 在写入记录前改写对象地址
	NormalizeURL func(string) string
	ACL          ACL
}

// StorageAdapter 远程存储服务：对象存储 + 元数据记录
type StorageAdapter interface {
	// Upload 上传文件并创建记录，返回的记录包含存储分配的 ID 与创建时间
	Upload(ctx context.Context, req *UploadRequest) (*FileRecord, error)
	// GetByID 按 ID 查询记录，不存在时返回 ErrFileNotFound
	GetByID(ctx context.Context, id string) (*FileRecord, error)
}

// Initializer 可选接口：适配器在首次使用前需要准备资源（建桶、建表）
type Initializer interface {
	Init(ctx context.Context) error
}
