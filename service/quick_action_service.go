package service

import (
	"errors"
	"fmt"
	"strings"

	"chat_scripts/model"
	"chat_scripts/templating"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuickActionService struct {
	changeFeed
	db *gorm.DB
}

// QuickActionInput 创建/更新快捷短语请求
type QuickActionInput struct {
	Name    string `json:"name" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func NewQuickActionService(db *gorm.DB, sysSvc *SystemSettingsService) *QuickActionService {
	return &QuickActionService{
		changeFeed: changeFeed{sysSvc: sysSvc},
		db:         db,
	}
}

// ListQuickActions 获取快捷短语列表（按创建时间）
func (s *QuickActionService) ListQuickActions(ownerID uuid.UUID) ([]model.QuickAction, error) {
	var actions []model.QuickAction
	err := s.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list quick actions: %w", err)
	}
	return actions, nil
}

// GetQuickAction 获取单个快捷短语
func (s *QuickActionService) GetQuickAction(ownerID, id uuid.UUID) (*model.QuickAction, error) {
	var action model.QuickAction
	err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuickActionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quick action: %w", err)
	}
	return &action, nil
}

// CreateQuickAction 创建快捷短语
func (s *QuickActionService) CreateQuickAction(ownerID uuid.UUID, input *QuickActionInput) (*model.QuickAction, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidQuickAction
	}

	action := &model.QuickAction{
		OwnerID: ownerID,
		Name:    name,
		Content: input.Content,
	}
	if err := s.db.Create(action).Error; err != nil {
		return nil, fmt.Errorf("failed to create quick action: %w", err)
	}

	s.publishQuickActions(ownerID)
	return action, nil
}

// UpdateQuickAction 更新快捷短语
func (s *QuickActionService) UpdateQuickAction(ownerID, id uuid.UUID, input *QuickActionInput) (*model.QuickAction, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidQuickAction
	}

	result := s.db.Model(&model.QuickAction{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{"name": name, "content": input.Content})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update quick action: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrQuickActionNotFound
	}

	s.publishQuickActions(ownerID)
	return s.GetQuickAction(ownerID, id)
}

// DeleteQuickAction 删除快捷短语
func (s *QuickActionService) DeleteQuickAction(ownerID, id uuid.UUID) error {
	result := s.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.QuickAction{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quick action: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrQuickActionNotFound
	}

	s.publishQuickActions(ownerID)
	return nil
}

// Personalize 快捷短语没有声明列表，直接使用内容中检测到的占位符
func (s *QuickActionService) Personalize(ownerID, id uuid.UUID, values map[string]string) (string, error) {
	action, err := s.GetQuickAction(ownerID, id)
	if err != nil {
		return "", err
	}
	placeholders := templating.DetectPlaceholders(action.Content, nil)
	return templating.Personalize(action.Content, placeholders, values), nil
}

// InitDefaultQuickActions 新用户初始化默认快捷短语（已有时不做任何事）
func (s *QuickActionService) InitDefaultQuickActions(ownerID uuid.UUID) (int, error) {
	var count int64
	if err := s.db.Model(&model.QuickAction{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count quick actions: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	defaults := []model.QuickAction{
		{Name: "Personalized Greeting", Content: "Hello {{customerName}}! How can I assist you today?"},
		{Name: "Company Introduction", Content: "Welcome to {{companyName}}! I'm here to help you with any questions you might have."},
		{Name: "Order Follow-up", Content: "I'm following up on your order #{{orderNumber}} placed on {{date}}. {{customMessage}}"},
		{Name: "Thank You", Content: "Thank you for contacting us. Is there anything else I can help you with?"},
		{Name: "Hold Please", Content: "Please hold on for a moment while I check that for you."},
		{Name: "Follow Up", Content: "I'll follow up with you shortly with more information."},
	}
	// 逐条创建，保证 created_at 顺序与列表一致
	for i := range defaults {
		defaults[i].OwnerID = ownerID
		if err := s.db.Create(&defaults[i]).Error; err != nil {
			return i, fmt.Errorf("failed to create default quick action %s: %w", defaults[i].Name, err)
		}
	}

	s.publishQuickActions(ownerID)
	return len(defaults), nil
}

func (s *QuickActionService) publishQuickActions(ownerID uuid.UUID) {
	s.publish(ownerID, CollectionQuickActions, func() (interface{}, error) {
		return s.ListQuickActions(ownerID)
	})
}
