package service

import (
	"log"

	"github.com/google/uuid"
)

// 订阅的集合名称（对应 WebSocket 推送的 <collection>_snapshot）
const (
	CollectionTemplates    = "templates"
	CollectionScripts      = "scripts"
	CollectionQuickActions = "quick_actions"
)

// 功能开关
const (
	FeatureChangeFeed       = "enable_change_feed"
	FeatureDefaultTemplates = "enable_default_templates"
)

// ChangeNotifier 接口用于把集合的最新快照推送给用户的所有设备
type ChangeNotifier interface {
	PublishSnapshot(ownerID uuid.UUID, collection string, items interface{}) bool
	IsUserOnline(ownerID uuid.UUID) bool
}

// changeFeed 各服务共用的推送逻辑
type changeFeed struct {
	notifier ChangeNotifier
	sysSvc   *SystemSettingsService
}

func (f *changeFeed) SetChangeNotifier(notifier ChangeNotifier) {
	f.notifier = notifier
}

// publish 用户在线且功能开启时才加载并推送快照
func (f *changeFeed) publish(ownerID uuid.UUID, collection string, load func() (interface{}, error)) {
	if f.notifier == nil || !f.sysSvc.GetBoolSetting(FeatureChangeFeed, true) {
		return
	}
	if !f.notifier.IsUserOnline(ownerID) {
		return
	}

	items, err := load()
	if err != nil {
		log.Printf("[ERROR] Failed to load %s snapshot for user %s: %v", collection, ownerID, err)
		return
	}
	f.notifier.PublishSnapshot(ownerID, collection, items)
}
