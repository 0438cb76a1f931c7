package service

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"chat_scripts/model"
	"chat_scripts/templating"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	localIDPrefix   = "local-"
	defaultIDPrefix = "default-"
)

type TemplateService struct {
	changeFeed
	db        *gorm.DB
	previewer *templating.Previewer
	now       func() time.Time
}

// TemplateInput 创建模板请求
type TemplateInput struct {
	Name         string   `json:"name" binding:"required"`
	Description  *string  `json:"description"`
	Content      string   `json:"content" binding:"required"`
	Placeholders []string `json:"placeholders"`
}

// TemplatePatch 更新模板请求（nil 表示不修改）
type TemplatePatch struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Content      *string   `json:"content"`
	Placeholders *[]string `json:"placeholders"`
}

// PersonalizeResult 个性化结果
type PersonalizeResult struct {
	Content    string             `json:"content"`    // 复制用的最终文本
	Preview    string             `json:"preview"`    // 仅用于展示的高亮 HTML
	Fields     []templating.Field `json:"fields"`     // 填写表单描述
	Undeclared []string           `json:"undeclared"` // 未声明、原样保留的占位符
}

func NewTemplateService(db *gorm.DB, sysSvc *SystemSettingsService) *TemplateService {
	return &TemplateService{
		changeFeed: changeFeed{sysSvc: sysSvc},
		db:         db,
		previewer:  templating.NewPreviewer(templating.DefaultHighlightClass),
		now:        time.Now,
	}
}

// SetPreviewer 设置预览渲染器（自定义高亮 class）
func (s *TemplateService) SetPreviewer(previewer *templating.Previewer) {
	s.previewer = previewer
}

// IsLocalTemplateID 本地模板和内置默认模板不落库
func IsLocalTemplateID(id string) bool {
	return strings.HasPrefix(id, localIDPrefix) || strings.HasPrefix(id, defaultIDPrefix)
}

// DefaultTemplates 内置默认模板
func DefaultTemplates(ownerID uuid.UUID) []model.Template {
	now := time.Now().UTC()
	greetingDesc := "A personalized greeting for customers"
	orderDesc := "Confirm order details with customer"
	return []model.Template{
		{
			ID:           defaultIDPrefix + "1",
			OwnerID:      ownerID,
			Name:         "Customer Greeting",
			Description:  &greetingDesc,
			Content:      "Hello {{name}},\n\nThank you for contacting {{company}}. My name is {{agent}} and I'll be assisting you today.\n\nHow may I help you?",
			Placeholders: []string{"name", "company", "agent"},
			CreatedAt:    now,
			UpdatedAt:    now,
			Local:        true,
		},
		{
			ID:           defaultIDPrefix + "2",
			OwnerID:      ownerID,
			Name:         "Order Confirmation",
			Description:  &orderDesc,
			Content:      "Thank you for your order #{{orderNumber}} placed on {{date}}.\n\nYour order is being processed and will be shipped within 2 business days.\n\n{{customMessage}}\n\nPlease let me know if you have any questions.",
			Placeholders: []string{"orderNumber", "date", "customMessage"},
			CreatedAt:    now,
			UpdatedAt:    now,
			Local:        true,
		},
	}
}

// ListTemplates 获取用户模板列表（搜索 + 排序）
// 用户还没有模板时返回内置默认模板
func (s *TemplateService) ListTemplates(ownerID uuid.UUID, query, sortBy string) ([]model.Template, error) {
	templates, err := s.loadTemplates(ownerID)
	if err != nil {
		return nil, err
	}
	return FilterTemplates(templates, query, sortBy), nil
}

func (s *TemplateService) loadTemplates(ownerID uuid.UUID) ([]model.Template, error) {
	var templates []model.Template
	if err := s.db.Where("owner_id = ?", ownerID).Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	if len(templates) == 0 && s.sysSvc.GetBoolSetting(FeatureDefaultTemplates, true) {
		return DefaultTemplates(ownerID), nil
	}
	return templates, nil
}

// FilterTemplates 按名称/内容/描述搜索（不区分大小写），排序：recent（默认）| alphabetical
func FilterTemplates(templates []model.Template, query, sortBy string) []model.Template {
	q := strings.ToLower(strings.TrimSpace(query))
	filtered := make([]model.Template, 0, len(templates))
	for _, t := range templates {
		if q == "" ||
			strings.Contains(strings.ToLower(t.Name), q) ||
			strings.Contains(strings.ToLower(t.Content), q) ||
			(t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)) {
			filtered = append(filtered, t)
		}
	}

	switch sortBy {
	case "alphabetical":
		sort.SliceStable(filtered, func(i, j int) bool {
			return strings.ToLower(filtered[i].Name) < strings.ToLower(filtered[j].Name)
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}
	return filtered
}

// GetTemplate 获取单个模板（支持内置默认模板 ID）
func (s *TemplateService) GetTemplate(ownerID uuid.UUID, id string) (*model.Template, error) {
	if strings.HasPrefix(id, defaultIDPrefix) {
		for _, t := range DefaultTemplates(ownerID) {
			if t.ID == id {
				return &t, nil
			}
		}
		return nil, ErrTemplateNotFound
	}

	var template model.Template
	err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return &template, nil
}

// CreateTemplate 创建模板，内容中的占位符自动合并到声明列表
// 写库失败时返回本地模板（ID 为 local-<毫秒时间戳>），保证用户可以继续使用
func (s *TemplateService) CreateTemplate(ownerID uuid.UUID, input *TemplateInput) (*model.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidTemplate
	}

	template := &model.Template{
		OwnerID:      ownerID,
		Name:         name,
		Description:  input.Description,
		Content:      input.Content,
		Placeholders: templating.DetectPlaceholders(input.Content, cleanPlaceholders(input.Placeholders)),
	}

	if err := s.db.Create(template).Error; err != nil {
		log.Printf("[ERROR] Failed to create template for user %s, falling back to local template: %v", ownerID, err)
		now := s.now().UTC()
		template.ID = fmt.Sprintf("%s%d", localIDPrefix, now.UnixMilli())
		template.CreatedAt = now
		template.UpdatedAt = now
		template.Local = true
		return template, nil
	}

	s.publishTemplates(ownerID)
	return template, nil
}

// UpdateTemplate 更新模板
// 内容变化时重新检测占位符（只增加，不删除已声明的）；created_at 不可修改
// 本地/默认模板不落库，直接返回 local=true
func (s *TemplateService) UpdateTemplate(ownerID uuid.UUID, id string, patch *TemplatePatch) (*model.Template, bool, error) {
	if IsLocalTemplateID(id) {
		return nil, true, nil
	}

	template, err := s.GetTemplate(ownerID, id)
	if err != nil {
		return nil, false, err
	}

	if patch.Name != nil {
		template.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		template.Description = patch.Description
	}
	if patch.Placeholders != nil {
		template.Placeholders = cleanPlaceholders(*patch.Placeholders)
	}
	if patch.Content != nil {
		template.Content = *patch.Content
		template.Placeholders = templating.DetectPlaceholders(template.Content, template.Placeholders)
	}
	if template.Name == "" || strings.TrimSpace(template.Content) == "" {
		return nil, false, ErrInvalidTemplate
	}

	if err := s.db.Save(template).Error; err != nil {
		return nil, false, fmt.Errorf("failed to update template: %w", err)
	}

	s.publishTemplates(ownerID)
	return template, false, nil
}

// DeleteTemplate 删除模板
func (s *TemplateService) DeleteTemplate(ownerID uuid.UUID, id string) (bool, error) {
	if IsLocalTemplateID(id) {
		return true, nil
	}

	result := s.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Template{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete template: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, ErrTemplateNotFound
	}

	s.publishTemplates(ownerID)
	return false, nil
}

// BulkDeleteTemplates 批量删除，返回实际删除的数量（本地模板忽略）
func (s *TemplateService) BulkDeleteTemplates(ownerID uuid.UUID, ids []string) (int64, error) {
	stored := make([]string, 0, len(ids))
	for _, id := range ids {
		if !IsLocalTemplateID(id) {
			stored = append(stored, id)
		}
	}
	if len(stored) == 0 {
		return 0, nil
	}

	result := s.db.Where("owner_id = ? AND id IN ?", ownerID, stored).Delete(&model.Template{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete templates: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.publishTemplates(ownerID)
	}
	return result.RowsAffected, nil
}

// DetectPlaceholders 编辑器失焦时的自动检测
func (s *TemplateService) DetectPlaceholders(content string, existing []string) []string {
	return templating.DetectPlaceholders(content, cleanPlaceholders(existing))
}

// Personalize 使用填写的值个性化模板
func (s *TemplateService) Personalize(ownerID uuid.UUID, id string, values map[string]string) (*PersonalizeResult, error) {
	template, err := s.GetTemplate(ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.Render(template.Content, template.Placeholders, values), nil
}

// Render 不访问数据库的个性化渲染；placeholders 为 nil 时从内容中检测
func (s *TemplateService) Render(content string, placeholders []string, values map[string]string) *PersonalizeResult {
	if placeholders == nil {
		placeholders = templating.DetectPlaceholders(content, nil)
	}
	return &PersonalizeResult{
		Content:    templating.Personalize(content, placeholders, values),
		Preview:    s.previewer.Render(content, placeholders, values),
		Fields:     templating.DescribeFields(placeholders),
		Undeclared: templating.UndeclaredTokens(content, placeholders),
	}
}

func (s *TemplateService) publishTemplates(ownerID uuid.UUID) {
	s.publish(ownerID, CollectionTemplates, func() (interface{}, error) {
		return s.ListTemplates(ownerID, "", "recent")
	})
}

// cleanPlaceholders 去掉空白名称和重复名称，名称本身原样保留
func cleanPlaceholders(names []string) []string {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}
	return cleaned
}
