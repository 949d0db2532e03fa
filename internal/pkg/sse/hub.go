package sse

import (
	"encoding/json"
	"sync"
)

// Event SSE 事件
type Event struct {
	Type string      `json:"type"` // 事件类型
	Data interface{} `json:"data"` // 事件数据
}

// Client SSE 客户端连接
type Client struct {
	ID       string
	Channel  chan Event
	Resource string // 订阅的资源 ID (如 upload:xxx)
}

// Hub SSE 连接管理器
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]bool // resource -> clients
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
	}
}

// Register 注册客户端
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Resource] == nil {
		h.clients[client.Resource] = make(map[*Client]bool)
	}
	h.clients[client.Resource][client] = true
}

// Unregister 注销客户端并关闭其 Channel
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.Resource]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.Channel)

			// 清理空资源
			if len(clients) == 0 {
				delete(h.clients, client.Resource)
			}
		}
	}
}

// Broadcast 向订阅指定资源的所有客户端广播消息，返回送达的客户端数
func (h *Hub) Broadcast(resource string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[resource] {
		select {
		case client.Channel <- event:
			delivered++
		default:
			// 客户端缓冲区满,跳过
		}
	}
	return delivered
}

// send 向单个已注册客户端投递；客户端已注销时返回 false
func (h *Hub) send(client *Client, event Event) (registered, delivered bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.clients[client.Resource][client] {
		return false, false
	}
	select {
	case client.Channel <- event:
		return true, true
	default:
		return true, false
	}
}

// GetClientCount 获取订阅指定资源的客户端数量
func (h *Hub) GetClientCount(resource string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[resource])
}

// FormatSSE 格式化为 SSE 消息格式
// map 数据会带上 type 字段，其他数据放在 payload 字段中
func (e Event) FormatSSE() string {
	body := make(map[string]interface{})
	switch d := e.Data.(type) {
	case map[string]interface{}:
		for k, v := range d {
			body[k] = v
		}
	case map[string]string:
		for k, v := range d {
			body[k] = v
		}
	case nil:
	default:
		body["payload"] = d
	}
	body["type"] = e.Type

	data, _ := json.Marshal(body)
	return "event: " + e.Type + "\ndata: " + string(data) + "\n\n"
}
