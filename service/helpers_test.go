package service

import (
	"fmt"
	"sync"
	"testing"

	"chat_scripts/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB 每个测试独立的内存 SQLite 数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New())
	db, err := gorm.Open(sqlite.Open(dsn), utils.NewGormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, utils.Migrate(db))
	return db
}

// newTestSettings 写入默认配置的系统配置服务
func newTestSettings(t *testing.T, db *gorm.DB) *SystemSettingsService {
	t.Helper()
	sysSvc := NewSystemSettingsService(db)
	require.NoError(t, sysSvc.InitDefaultSettings())
	return sysSvc
}

// snapshotCall 一次推送记录
type snapshotCall struct {
	OwnerID    uuid.UUID
	Collection string
	Items      interface{}
}

// fakeNotifier 记录推送，在线状态可配置
type fakeNotifier struct {
	mu     sync.Mutex
	online bool
	calls  []snapshotCall
}

func (f *fakeNotifier) PublishSnapshot(ownerID uuid.UUID, collection string, items interface{}) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, snapshotCall{OwnerID: ownerID, Collection: collection, Items: items})
	return true
}

func (f *fakeNotifier) IsUserOnline(ownerID uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeNotifier) Calls() []snapshotCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]snapshotCall(nil), f.calls...)
}
