package data

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

// sniffLimit 内容探测读取的字节数，与 mimetype 默认上限一致
const sniffLimit = 3072

// PutObject 对象写入参数
type PutObject struct {
	Key         string
	ContentType string
	Body        io.Reader
	Size        int64
	OnProgress  biz.TransferFunc
}

// StoredObject 写入成功后的对象
type StoredObject struct {
	Key  string
	URL  string
	Size int64
}

// ObjectStore 对象存储适配器
type ObjectStore interface {
	// EnsureBucket 确认存储桶可用并允许公开读取
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj *PutObject) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
	// Name 提供方名称，用于日志与指标
	Name() string
}

// sniffContentType 浏览器未提供类型时按文件头探测，返回的 reader 包含已读取的部分
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", nil, err
	}
	head = head[:n]
	return mimetype.Detect(head).String(), io.MultiReader(bytes.NewReader(head), r), nil
}
