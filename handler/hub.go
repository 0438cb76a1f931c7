package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"chat_scripts/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

// Redis Pub/Sub channel 名称
const redisBroadcastChannel = "ws:snapshot_broadcast"

// 在线状态 key 的有效期（心跳刷新）
const presenceTTL = 30 * time.Second

// snapshotCollections 初始快照的推送顺序
var snapshotCollections = []string{
	service.CollectionTemplates,
	service.CollectionScripts,
	service.CollectionQuickActions,
}

// SnapshotProvider 连接建立时加载用户的全部集合
type SnapshotProvider interface {
	Snapshots(ownerID uuid.UUID) (map[string]interface{}, error)
}

// Hub WebSocket 连接管理中心（集合变更订阅）
type Hub struct {
	// 在线用户 map[userID]map[clientID]*Client（支持多设备）
	Clients map[uuid.UUID]map[uuid.UUID]*Client
	mu      sync.RWMutex

	// 最大连接数限制（每个用户）
	MaxConnectionsPerUser int

	// Redis 客户端，为 nil 时只在本 Pod 内推送
	rdb *redis.Client

	snapshots SnapshotProvider

	// Pod ID（用于跨 Pod 广播去重）
	podID string

	stopPubSub chan struct{}
	stopOnce   sync.Once
}

// BroadcastMessage 跨 Pod 广播消息格式
type BroadcastMessage struct {
	UserID  string `json:"user_id"`
	PodID   string `json:"pod_id"` // 发送方 Pod ID，用于去重
	Payload []byte `json:"payload"`
}

// NewHub 创建 Hub
func NewHub(rdb *redis.Client, snapshots SnapshotProvider, maxConnectionsPerUser int) *Hub {
	if maxConnectionsPerUser <= 0 {
		maxConnectionsPerUser = 18
	}
	return &Hub{
		Clients:               make(map[uuid.UUID]map[uuid.UUID]*Client),
		MaxConnectionsPerUser: maxConnectionsPerUser,
		rdb:                   rdb,
		snapshots:             snapshots,
		podID:                 uuid.New().String(),
		stopPubSub:            make(chan struct{}),
	}
}

// Register 注册客户端（支持多设备，限制最大连接数），超过限制时返回 false
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()

	if h.Clients[client.UserID] == nil {
		h.Clients[client.UserID] = make(map[uuid.UUID]*Client)
	}

	if len(h.Clients[client.UserID]) >= h.MaxConnectionsPerUser {
		h.mu.Unlock() // 先释放锁，再进行网络操作

		log.Printf("[ERROR] User %s exceeds max connections (%d), rejecting new connection (client ID: %s)",
			client.UserID, h.MaxConnectionsPerUser, client.ID)

		if client.Conn != nil {
			reason := fmt.Sprintf("Maximum %d devices allowed", h.MaxConnectionsPerUser)
			client.writeError("too_many_devices", reason)
			client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
			client.Conn.Close()
		}
		return false
	}

	h.Clients[client.UserID][client.ID] = client
	deviceCount := len(h.Clients[client.UserID])
	totalUsers := len(h.Clients)

	h.mu.Unlock()

	h.touchPresence(client.UserID)

	log.Printf("User %s connected (client: %s), total devices: %d, total users: %d",
		client.UserID, client.ID, deviceCount, totalUsers)
	return true
}

// Unregister 注销客户端（支持多设备）
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	if userClients, exists := h.Clients[client.UserID]; exists {
		if _, found := userClients[client.ID]; found {
			delete(userClients, client.ID)

			if len(userClients) == 0 {
				delete(h.Clients, client.UserID)

				// 最后一个设备断开时删除在线状态
				if h.rdb != nil {
					h.rdb.Del(context.Background(), presenceKey(client.UserID))
				}

				log.Printf("User %s disconnected (client: %s), all devices offline, total users: %d",
					client.UserID, client.ID, len(h.Clients))
			} else {
				log.Printf("User %s disconnected (client: %s), remaining devices: %d",
					client.UserID, client.ID, len(userClients))
			}
		}
	}

	h.mu.Unlock()

	client.closeSend()
}

// SendToUser 发送消息给本 Pod 上该用户的所有设备
func (h *Hub) SendToUser(userID uuid.UUID, message []byte) bool {
	h.mu.RLock()
	userClients, exists := h.Clients[userID]
	if !exists || len(userClients) == 0 {
		h.mu.RUnlock()
		return false
	}

	// 复制一份 client 列表，避免在遍历时发生并发修改 panic
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	sentToAny := false
	for _, client := range clientsCopy {
		if client.trySend(message) {
			sentToAny = true
			continue
		}
		// 发送通道满了，关闭该设备连接
		log.Printf("[ERROR] Send channel FULL: user=%s, client=%s, closing connection", userID, client.ID)
		go h.Unregister(client)
	}

	return sentToAny
}

// BroadcastToUser 先尝试本地发送，同时 publish 到 Redis 让其他 Pod 也能收到
func (h *Hub) BroadcastToUser(userID uuid.UUID, message []byte) {
	h.SendToUser(userID, message)

	if h.rdb == nil {
		return
	}

	msgBytes, err := json.Marshal(BroadcastMessage{
		UserID:  userID.String(),
		PodID:   h.podID,
		Payload: message,
	})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal broadcast message: %v", err)
		return
	}

	if err := h.rdb.Publish(context.Background(), redisBroadcastChannel, msgBytes).Err(); err != nil {
		log.Printf("[ERROR] Failed to publish to Redis: %v", err)
	}
}

// StartPubSub 启动 Redis Pub/Sub 订阅（跨 Pod 快照广播）
func (h *Hub) StartPubSub() {
	if h.rdb == nil {
		return
	}

	go func() {
		ctx := context.Background()
		pubsub := h.rdb.Subscribe(ctx, redisBroadcastChannel)
		defer pubsub.Close()

		log.Printf("[INFO] Pod %s started Redis Pub/Sub subscription", h.podID[:8])

		ch := pubsub.Channel()
		for {
			select {
			case <-h.stopPubSub:
				log.Printf("[INFO] Pod %s stopping Redis Pub/Sub subscription", h.podID[:8])
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if msg == nil {
					continue
				}
				h.handleBroadcastMessage([]byte(msg.Payload))
			}
		}
	}()
}

// StopPubSub 停止 Redis Pub/Sub 订阅
func (h *Hub) StopPubSub() {
	h.stopOnce.Do(func() { close(h.stopPubSub) })
}

// handleBroadcastMessage 处理来自 Redis 的广播消息
func (h *Hub) handleBroadcastMessage(data []byte) {
	var msg BroadcastMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[ERROR] Failed to unmarshal broadcast message: %v", err)
		return
	}

	// 忽略自己发的消息（避免重复推送）
	if msg.PodID == h.podID {
		return
	}

	userID, err := uuid.Parse(msg.UserID)
	if err != nil {
		log.Printf("[ERROR] Invalid user ID in broadcast message: %v", err)
		return
	}

	h.SendToUser(userID, msg.Payload)
}

// IsUserOnline 用户在本 Pod 或其他 Pod 上至少有一个设备在线
func (h *Hub) IsUserOnline(userID uuid.UUID) bool {
	h.mu.RLock()
	userClients, exists := h.Clients[userID]
	local := exists && len(userClients) > 0
	h.mu.RUnlock()

	if local || h.rdb == nil {
		return local
	}

	n, err := h.rdb.Exists(context.Background(), presenceKey(userID)).Result()
	if err != nil {
		log.Printf("[ERROR] Failed to check presence for user %s: %v", userID, err)
		return false
	}
	return n > 0
}

// PublishSnapshot 推送集合的最新快照（实现 service.ChangeNotifier）
func (h *Hub) PublishSnapshot(ownerID uuid.UUID, collection string, items interface{}) bool {
	payload, err := snapshotPayload(collection, items)
	if err != nil {
		log.Printf("[ERROR] Failed to marshal %s snapshot: %v", collection, err)
		return false
	}
	h.BroadcastToUser(ownerID, payload)
	return true
}

// sendInitialSnapshots 连接建立后只推送给当前设备
func (h *Hub) sendInitialSnapshots(client *Client) {
	if h.snapshots == nil {
		return
	}

	snapshots, err := h.snapshots.Snapshots(client.UserID)
	if err != nil {
		log.Printf("[ERROR] Failed to load snapshots for user %s: %v", client.UserID, err)
		client.sendError("failed to load data")
		return
	}

	for _, collection := range snapshotCollections {
		payload, err := snapshotPayload(collection, snapshots[collection])
		if err != nil {
			log.Printf("[ERROR] Failed to marshal %s snapshot: %v", collection, err)
			continue
		}
		client.trySend(payload)
	}
}

// ForceOffline 断开用户的所有连接（用于登出）
func (h *Hub) ForceOffline(userID uuid.UUID) {
	if h.rdb != nil {
		h.rdb.Del(context.Background(), presenceKey(userID))
	}

	h.mu.RLock()
	userClients := h.Clients[userID]
	clientsCopy := make([]*Client, 0, len(userClients))
	for _, client := range userClients {
		clientsCopy = append(clientsCopy, client)
	}
	h.mu.RUnlock()

	for _, client := range clientsCopy {
		h.Unregister(client)
	}
}

// touchPresence 写入/刷新 Redis 在线状态
func (h *Hub) touchPresence(userID uuid.UUID) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Set(context.Background(), presenceKey(userID), "1", presenceTTL).Err(); err != nil {
		log.Printf("[ERROR] Failed to refresh presence for user %s: %v", userID, err)
	}
}

func presenceKey(userID uuid.UUID) string {
	return "online:" + userID.String()
}

func snapshotPayload(collection string, items interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": collection + "_snapshot",
		"data": map[string]interface{}{
			collection: items,
		},
	})
}
