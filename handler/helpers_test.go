package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"chat_scripts/middleware"
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "handler-test-secret"

// testEnv 完整路由 + 内存数据库，Redis 不启用
type testEnv struct {
	Router    *gin.Engine
	Hub       *Hub
	DB        *gorm.DB
	Settings  *service.SystemSettingsService
	Templates *service.TemplateService
}

func newTestEnv(t *testing.T, adminIDs ...uuid.UUID) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.InitAuth(testJWTSecret)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), utils.NewGormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, utils.Migrate(db))

	sysSvc := service.NewSystemSettingsService(db)
	require.NoError(t, sysSvc.InitDefaultSettings())

	tplSvc := service.NewTemplateService(db, sysSvc)
	scriptSvc := service.NewScriptService(db, sysSvc)
	qaSvc := service.NewQuickActionService(db, sysSvc)

	workspace := service.NewWorkspace(tplSvc, scriptSvc, qaSvc)
	hub := NewHub(nil, workspace, 3)
	workspace.SetChangeNotifier(hub)

	router := SetupRouter(Services{
		Templates:    tplSvc,
		Scripts:      scriptSvc,
		QuickActions: qaSvc,
		Settings:     sysSvc,
	}, hub, adminIDs)

	return &testEnv{
		Router:    router,
		Hub:       hub,
		DB:        db,
		Settings:  sysSvc,
		Templates: tplSvc,
	}
}

// testUser 测试用户
type testUser struct {
	ID    uuid.UUID
	Token string
}

func newTestUser(t *testing.T) *testUser {
	t.Helper()
	return tokenFor(t, uuid.New())
}

// tokenFor 为指定用户签发 token（需先调用 newTestEnv）
func tokenFor(t *testing.T, userID uuid.UUID) *testUser {
	t.Helper()
	token, err := middleware.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return &testUser{ID: userID, Token: token}
}

// apiResponse 统一响应结构（data 延迟解析）
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doRequest 发送请求并解析统一响应
func (e *testEnv) doRequest(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	return w.Code, resp
}

// decodeData 把 data 解析到 out
func decodeData(t *testing.T, resp apiResponse, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(resp.Data, out))
}
