package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"chat_scripts/middleware"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境需要按配置的前端域名检查 Origin
		return true
	},
}

// Client WebSocket 客户端
type Client struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
	mu     sync.RWMutex
	closed bool // Send channel 是否已关闭
}

// WSMessage WebSocket 消息格式
type WSMessage struct {
	Type string          `json:"type"` // 'heartbeat' | 'resync'
	Data json.RawMessage `json:"data"`
}

// trySend 非阻塞发送，通道已满或已关闭时返回 false
func (c *Client) trySend(message []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// closeSend 安全关闭 Send channel
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// sendError 发送错误消息给客户端
func (c *Client) sendError(errMsg string) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "error",
		"data": map[string]interface{}{
			"message": errMsg,
		},
	})
	if err != nil {
		return
	}
	c.trySend(payload)
}

// writeError 直接写连接（注册前，writePump 尚未启动）
func (c *Client) writeError(code, errMsg string) {
	payload, err := json.Marshal(map[string]interface{}{
		"type": "error",
		"data": map[string]interface{}{
			"code":    code,
			"message": errMsg,
		},
	})
	if err != nil {
		return
	}
	_ = c.Conn.WriteMessage(websocket.TextMessage, payload)
}

// HandleWebSocket 处理 WebSocket 连接（集合订阅）
func HandleWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 浏览器 WebSocket 无法带 Header，从 query 参数获取 token
		tokenString := c.Query("token")
		if tokenString == "" {
			utils.Unauthorized(c, "missing token")
			return
		}

		userID, err := middleware.ValidateToken(tokenString)
		if err != nil {
			utils.Unauthorized(c, "invalid token")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[ERROR] WebSocket upgrade failed for user %s: %v", userID, err)
			return
		}

		client := &Client{
			ID:     uuid.New(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Hub:    hub,
		}

		if !hub.Register(client) {
			return
		}

		// 先把初始快照放入发送队列，再启动读写协程
		hub.sendInitialSnapshots(client)

		go client.readPump()
		go client.writePump()
	}
}

// readPump 从 WebSocket 读取消息
func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(64 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure) {
				log.Printf("[ERROR] User %s WebSocket unexpected close error: %v", c.UserID, err)
			}
			break
		}

		var wsMsg WSMessage
		if err := json.Unmarshal(message, &wsMsg); err != nil {
			log.Printf("[ERROR] Invalid message format: %v", err)
			c.sendError("Invalid JSON format")
			continue
		}

		switch wsMsg.Type {
		case "heartbeat":
			// 刷新 Redis 在线状态
			c.Hub.touchPresence(c.UserID)

		case "resync":
			// 客户端要求重新下发全部快照（例如断线重连后）
			c.Hub.sendInitialSnapshots(c)

		default:
			c.sendError("unknown message type: " + wsMsg.Type)
		}
	}
}

// writePump 向 WebSocket 写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			// 发送 ping 保持连接
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
