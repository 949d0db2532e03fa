package service

import (
	"regexp"
	"sync"

	"github.com/lk2023060901/tomato-share/internal/pkg/sse"
	"github.com/lk2023060901/tomato-share/internal/share/biz"
)

// 上传进度事件
const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// uploadIDPattern 浏览器生成的上传标识（UUID 或随机串）
var uploadIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{8,64}$`)

func validUploadID(id string) bool {
	return uploadIDPattern.MatchString(id)
}

// UploadResource 上传进度在 Hub 中的资源名
func UploadResource(uploadID string) string {
	return "upload:" + uploadID
}

// progressPublisher 只在百分比变化时推送；订阅者缓冲满时事件被丢弃
type progressPublisher struct {
	hub      *sse.Hub
	resource string

	mu   sync.Mutex
	last int
}

func newProgressPublisher(hub *sse.Hub, uploadID string) *progressPublisher {
	if hub == nil || uploadID == "" {
		return nil
	}
	return &progressPublisher{hub: hub, resource: UploadResource(uploadID), last: -1}
}

// Func 返回传给 FileTransferClient 的回调，publisher 为 nil 时返回 nil
func (p *progressPublisher) Func() biz.ProgressFunc {
	if p == nil {
		return nil
	}
	return p.progress
}

func (p *progressPublisher) progress(percent int) {
	p.mu.Lock()
	if percent == p.last {
		p.mu.Unlock()
		return
	}
	p.last = percent
	p.mu.Unlock()

	p.hub.Broadcast(p.resource, sse.Event{
		Type: EventProgress,
		Data: map[string]interface{}{"percent": percent},
	})
}

func (p *progressPublisher) completed(id, viewURL string) {
	if p == nil {
		return
	}
	p.hub.Broadcast(p.resource, sse.Event{
		Type: EventCompleted,
		Data: map[string]interface{}{"id": id, "view_url": viewURL},
	})
}

func (p *progressPublisher) failed(message string) {
	if p == nil {
		return
	}
	p.hub.Broadcast(p.resource, sse.Event{
		Type: EventFailed,
		Data: map[string]interface{}{"message": message},
	})
}
