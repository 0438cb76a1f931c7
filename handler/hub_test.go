package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chat_scripts/model"
	"chat_scripts/service"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDetachedClient 不带连接的客户端，只用于验证 Hub 的投递逻辑
func newDetachedClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, 8),
		Hub:    hub,
	}
}

func TestHub_RegisterLimitAndOnline(t *testing.T) {
	hub := NewHub(nil, nil, 2)
	userID := uuid.New()

	first := newDetachedClient(hub, userID)
	second := newDetachedClient(hub, userID)
	third := newDetachedClient(hub, userID)

	assert.False(t, hub.IsUserOnline(userID))
	assert.True(t, hub.Register(first))
	assert.True(t, hub.Register(second))
	assert.False(t, hub.Register(third), "exceeds max connections")
	assert.True(t, hub.IsUserOnline(userID))

	hub.Unregister(first)
	assert.True(t, hub.IsUserOnline(userID))
	hub.Unregister(second)
	assert.False(t, hub.IsUserOnline(userID))

	// 注销后 Send 通道关闭，重复注销不会 panic
	_, ok := <-first.Send
	assert.False(t, ok)
	hub.Unregister(first)
}

func TestHub_PublishSnapshotReachesAllDevices(t *testing.T) {
	hub := NewHub(nil, nil, 5)
	userID := uuid.New()
	phone := newDetachedClient(hub, userID)
	laptop := newDetachedClient(hub, userID)
	stranger := newDetachedClient(hub, uuid.New())
	require.True(t, hub.Register(phone))
	require.True(t, hub.Register(laptop))
	require.True(t, hub.Register(stranger))

	items := []model.QuickAction{{ID: uuid.New(), Name: "Hi", Content: "Hello"}}
	require.True(t, hub.PublishSnapshot(userID, service.CollectionQuickActions, items))

	for _, client := range []*Client{phone, laptop} {
		select {
		case payload := <-client.Send:
			var msg struct {
				Type string `json:"type"`
				Data struct {
					QuickActions []model.QuickAction `json:"quick_actions"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(payload, &msg))
			assert.Equal(t, "quick_actions_snapshot", msg.Type)
			require.Len(t, msg.Data.QuickActions, 1)
			assert.Equal(t, "Hello", msg.Data.QuickActions[0].Content)
		default:
			t.Fatalf("client %s received nothing", client.ID)
		}
	}

	select {
	case <-stranger.Send:
		t.Fatal("other users must not receive the snapshot")
	default:
	}
}

func TestHub_ForceOffline(t *testing.T) {
	hub := NewHub(nil, nil, 5)
	userID := uuid.New()
	client := newDetachedClient(hub, userID)
	require.True(t, hub.Register(client))

	hub.ForceOffline(userID)
	assert.False(t, hub.IsUserOnline(userID))
	assert.False(t, hub.SendToUser(userID, []byte("x")))
}

func TestHub_IgnoresOwnBroadcast(t *testing.T) {
	hub := NewHub(nil, nil, 5)
	userID := uuid.New()
	client := newDetachedClient(hub, userID)
	require.True(t, hub.Register(client))

	own, err := json.Marshal(BroadcastMessage{UserID: userID.String(), PodID: hub.podID, Payload: []byte(`{"type":"x"}`)})
	require.NoError(t, err)
	hub.handleBroadcastMessage(own)
	assert.Len(t, client.Send, 0)

	remote, err := json.Marshal(BroadcastMessage{UserID: userID.String(), PodID: "other-pod", Payload: []byte(`{"type":"x"}`)})
	require.NoError(t, err)
	hub.handleBroadcastMessage(remote)
	require.Len(t, client.Send, 1)
	assert.JSONEq(t, `{"type":"x"}`, string(<-client.Send))
}

// wsConnect 连接测试服务器的 WebSocket
func wsConnect(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// wsReadType 读取下一条消息并返回类型和原始内容
func wsReadType(t *testing.T, conn *websocket.Conn) (string, []byte) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg.Type, payload
}

func TestWebSocket_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.Router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestWebSocket_SnapshotsFollowMutations(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.Router)
	defer server.Close()
	user := newTestUser(t)

	conn := wsConnect(t, server, user.Token)

	// 连接后依次收到三个集合的快照
	for _, want := range []string{"templates_snapshot", "scripts_snapshot", "quick_actions_snapshot"} {
		msgType, payload := wsReadType(t, conn)
		require.Equal(t, want, msgType)
		if want == "templates_snapshot" {
			var msg struct {
				Data struct {
					Templates []model.Template `json:"templates"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(payload, &msg))
			assert.Len(t, msg.Data.Templates, 2, "default templates")
		}
	}
	require.True(t, env.Hub.IsUserOnline(user.ID))

	status, _ := env.doRequest(t, http.MethodPost, "/api/v1/templates", user.Token, map[string]interface{}{
		"name":    "Pushed",
		"content": "Hello {{name}}",
	})
	require.Equal(t, http.StatusCreated, status)

	msgType, payload := wsReadType(t, conn)
	require.Equal(t, "templates_snapshot", msgType)
	var msg struct {
		Data struct {
			Templates []model.Template `json:"templates"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	require.Len(t, msg.Data.Templates, 1)
	assert.Equal(t, "Pushed", msg.Data.Templates[0].Name)
	assert.Equal(t, []string{"name"}, msg.Data.Templates[0].Placeholders)

	// 未知消息类型返回错误，resync 重新下发快照
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "bogus"}))
	msgType, _ = wsReadType(t, conn)
	assert.Equal(t, "error", msgType)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "resync"}))
	msgType, _ = wsReadType(t, conn)
	assert.Equal(t, "templates_snapshot", msgType)
}
