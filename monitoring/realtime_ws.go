// Package monitoring 提供实时指标推送
package monitoring

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType 消息类型
type MessageType string

const (
	MetricsSnapshot MessageType = "metrics_snapshot"
)

// Message 推送消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// wsClient WebSocket客户端
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// MetricsHub 指标推送中心：周期性向所有连接广播指标快照
type MetricsHub struct {
	collector  *Collector
	interval   time.Duration
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewMetricsHub 创建指标推送中心
func NewMetricsHub(collector *Collector, interval time.Duration) *MetricsHub {
	ctx, cancel := context.WithCancel(context.Background())

	return &MetricsHub{
		collector:  collector,
		interval:   interval,
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 在生产环境中应该设置更严格的origin检查
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 运行广播循环
func (h *MetricsHub) Start() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	defer log.Printf("Metrics hub stopped")

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("Metrics client connected (total: %d)", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			log.Printf("Metrics client disconnected (total: %d)", len(h.clients))

		case <-ticker.C:
			if len(h.clients) == 0 {
				continue
			}
			data, err := h.snapshotMessage()
			if err != nil {
				log.Printf("Failed to build metrics snapshot: %v", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}

		case <-h.ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		}
	}
}

// Stop 停止广播循环并断开所有连接
func (h *MetricsHub) Stop() {
	h.cancel()
}

func (h *MetricsHub) snapshotMessage() ([]byte, error) {
	payload, err := h.collector.ExportJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{
		Type:      MetricsSnapshot,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

// ServeWS 处理WebSocket升级请求
func (h *MetricsHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *wsClient) readPump(h *MetricsHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
