package sse

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var (
	// ErrStreamClosed 流已关闭
	ErrStreamClosed = errors.New("sse: stream closed")
	// ErrBufferFull 缓冲区已满，事件被丢弃
	ErrBufferFull = errors.New("sse: stream buffer full")
)

// Stream SSE 流(封装 Client 和 Context)
type Stream struct {
	client    *Client
	ctx       *gin.Context
	hub       *Hub
	heartbeat time.Duration
	closeOn   map[string]bool

	// 生命周期钩子
	onConnect    func()
	onDisconnect func()
	onError      func(error)

	closed      atomic.Bool
	connectTime time.Time
}

// StreamBuilder 构建器
type StreamBuilder struct {
	ginCtx       *gin.Context
	hub          *Hub
	resource     string
	bufferSize   int
	heartbeat    time.Duration
	closeOn      map[string]bool
	onConnect    func()
	onDisconnect func()
	onError      func(error)
}

// NewStream 创建 Stream 构建器
func NewStream(c *gin.Context, hub *Hub) *StreamBuilder {
	return &StreamBuilder{
		ginCtx:     c,
		hub:        hub,
		bufferSize: 16,
		heartbeat:  15 * time.Second,
	}
}

// WithResource 设置资源 ID
func (b *StreamBuilder) WithResource(resource string) *StreamBuilder {
	b.resource = resource
	return b
}

// WithBufferSize 设置 Channel 缓冲区大小
func (b *StreamBuilder) WithBufferSize(size int) *StreamBuilder {
	b.bufferSize = size
	return b
}

// WithHeartbeat 设置心跳间隔(0 表示禁用心跳)
func (b *StreamBuilder) WithHeartbeat(interval time.Duration) *StreamBuilder {
	b.heartbeat = interval
	return b
}

// CloseOn 写出指定类型的事件后结束流
func (b *StreamBuilder) CloseOn(eventTypes ...string) *StreamBuilder {
	if b.closeOn == nil {
		b.closeOn = make(map[string]bool, len(eventTypes))
	}
	for _, t := range eventTypes {
		b.closeOn[t] = true
	}
	return b
}

// OnConnect 设置连接建立钩子
func (b *StreamBuilder) OnConnect(fn func()) *StreamBuilder {
	b.onConnect = fn
	return b
}

// OnDisconnect 设置连接断开钩子
func (b *StreamBuilder) OnDisconnect(fn func()) *StreamBuilder {
	b.onDisconnect = fn
	return b
}

// OnError 设置错误处理钩子
func (b *StreamBuilder) OnError(fn func(error)) *StreamBuilder {
	b.onError = fn
	return b
}

// Build 构建 Stream
func (b *StreamBuilder) Build() *Stream {
	return &Stream{
		client: &Client{
			ID:       uuid.New().String(),
			Channel:  make(chan Event, b.bufferSize),
			Resource: b.resource,
		},
		ctx:          b.ginCtx,
		hub:          b.hub,
		heartbeat:    b.heartbeat,
		closeOn:      b.closeOn,
		onConnect:    b.onConnect,
		onDisconnect: b.onDisconnect,
		onError:      b.onError,
		connectTime:  time.Now(),
	}
}

// Send 向本流投递事件(并发安全)
func (s *Stream) Send(eventType string, data interface{}) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}

	registered, delivered := s.hub.send(s.client, Event{Type: eventType, Data: data})
	switch {
	case !registered:
		return ErrStreamClosed
	case !delivered:
		err := fmt.Errorf("%w, event dropped: %s", ErrBufferFull, eventType)
		if s.onError != nil {
			s.onError(err)
		}
		return err
	}
	return nil
}

// Close 关闭流(幂等)
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.hub.Unregister(s.client)

	if s.onDisconnect != nil {
		s.onDisconnect()
	}
	return nil
}

// StartStreaming 开始流式传输(阻塞直到连接关闭)
// 所有写入都在本 goroutine 内完成，心跳与事件不会并发写 ResponseWriter
func (s *Stream) StartStreaming() {
	s.ctx.Header("Content-Type", "text/event-stream")
	s.ctx.Header("Cache-Control", "no-cache")
	s.ctx.Header("Connection", "keep-alive")
	s.ctx.Header("X-Accel-Buffering", "no")

	s.hub.Register(s.client)
	defer s.Close()

	if s.onConnect != nil {
		s.onConnect()
	}

	connected := Event{
		Type: "connected",
		Data: map[string]string{
			"client_id": s.client.ID,
			"resource":  s.client.Resource,
		},
	}
	if !s.write(connected.FormatSSE()) {
		return
	}

	var heartbeat <-chan time.Time
	if s.heartbeat > 0 {
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	clientGone := s.ctx.Request.Context().Done()

	for {
		select {
		case <-clientGone:
			return

		case event, ok := <-s.client.Channel:
			if !ok {
				return
			}
			if !s.write(event.FormatSSE()) || s.closeOn[event.Type] {
				return
			}

		case <-heartbeat:
			if !s.write(": heartbeat\n\n") {
				return
			}
		}
	}
}

func (s *Stream) write(msg string) bool {
	if _, err := fmt.Fprint(s.ctx.Writer, msg); err != nil {
		if s.onError != nil {
			s.onError(err)
		}
		return false
	}
	s.ctx.Writer.Flush()
	return true
}

// GetClientID 获取客户端 ID
func (s *Stream) GetClientID() string {
	return s.client.ID
}

// GetResource 获取资源 ID
func (s *Stream) GetResource() string {
	return s.client.Resource
}

// GetDuration 获取连接时长
func (s *Stream) GetDuration() time.Duration {
	return time.Since(s.connectTime)
}

// IsClosed 检查是否已关闭
func (s *Stream) IsClosed() bool {
	return s.closed.Load()
}
