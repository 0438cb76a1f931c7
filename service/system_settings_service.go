package service

import (
	"fmt"
	"sync"

	"chat_scripts/model"

	"gorm.io/gorm"
)

// SystemSettingsService 系统配置服务（功能开关，内存缓存）
type SystemSettingsService struct {
	db              *gorm.DB
	settingsCache   map[string]string
	settingsCacheMu sync.RWMutex
}

// defaultSettings 启动时写入缺失的配置项
var defaultSettings = []model.SystemSettings{
	{SettingKey: FeatureChangeFeed, SettingValue: "true", Description: "通过 WebSocket 推送集合快照"},
	{SettingKey: FeatureDefaultTemplates, SettingValue: "true", Description: "用户没有模板时返回内置默认模板"},
}

func NewSystemSettingsService(db *gorm.DB) *SystemSettingsService {
	return &SystemSettingsService{
		db:            db,
		settingsCache: make(map[string]string),
	}
}

// InitDefaultSettings 初始化默认配置并加载到缓存
func (s *SystemSettingsService) InitDefaultSettings() error {
	for _, setting := range defaultSettings {
		var count int64
		if err := s.db.Model(&model.SystemSettings{}).Where("setting_key = ?", setting.SettingKey).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check setting %s: %w", setting.SettingKey, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return fmt.Errorf("failed to create default setting %s: %w", setting.SettingKey, err)
		}
	}
	return s.LoadSettings()
}

// LoadSettings 从数据库加载所有配置到内存缓存
func (s *SystemSettingsService) LoadSettings() error {
	var settings []model.SystemSettings
	if err := s.db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load system settings: %w", err)
	}

	s.settingsCacheMu.Lock()
	defer s.settingsCacheMu.Unlock()

	s.settingsCache = make(map[string]string, len(settings))
	for _, setting := range settings {
		s.settingsCache[setting.SettingKey] = setting.SettingValue
	}
	return nil
}

// GetSetting 获取配置值（从缓存）
func (s *SystemSettingsService) GetSetting(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	value, exists := s.settingsCache[key]
	return value, exists
}

// GetBoolSetting 获取布尔类型配置，未配置时返回默认值
func (s *SystemSettingsService) GetBoolSetting(key string, defaultValue bool) bool {
	value, exists := s.GetSetting(key)
	if !exists {
		return defaultValue
	}
	return value == "true"
}

// IsFeatureEnabled 检查功能是否启用
func (s *SystemSettingsService) IsFeatureEnabled(featureKey string) bool {
	return s.GetBoolSetting(featureKey, false)
}

// UpdateSetting 更新配置（同时更新数据库和缓存）
func (s *SystemSettingsService) UpdateSetting(key, value string) error {
	result := s.db.Model(&model.SystemSettings{}).
		Where("setting_key = ?", key).
		Update("setting_value", value)

	if result.Error != nil {
		return fmt.Errorf("failed to update setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}

	s.settingsCacheMu.Lock()
	s.settingsCache[key] = value
	s.settingsCacheMu.Unlock()

	return nil
}

// GetAllSettings 获取所有配置（缓存副本）
func (s *SystemSettingsService) GetAllSettings() map[string]string {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	result := make(map[string]string, len(s.settingsCache))
	for k, v := range s.settingsCache {
		result[k] = v
	}
	return result
}
