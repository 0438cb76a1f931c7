package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"chat_scripts/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScriptService struct {
	changeFeed
	db *gorm.DB
}

// ScriptInput 创建脚本请求
type ScriptInput struct {
	Title       string   `json:"title" binding:"required"`
	Category    string   `json:"category"`
	Content     string   `json:"content" binding:"required"`
	Description string   `json:"description"`
	ImageURL    *string  `json:"image_url"`
	Tags        []string `json:"tags"`
}

// ScriptPatch 更新脚本请求（nil 表示不修改）
type ScriptPatch struct {
	Title       *string   `json:"title"`
	Category    *string   `json:"category"`
	Content     *string   `json:"content"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"image_url"`
	Tags        *[]string `json:"tags"`
}

// ScriptFilter 列表筛选条件
type ScriptFilter struct {
	Category      string // "All" 或空表示不过滤
	Search        string // 标题、内容、标签，不区分大小写
	PinnedOnly    bool
	FavoritesOnly bool
	Tag           string // 精确匹配
	SortBy        string // recent（默认）| alphabetical | wordCount | category
	Page          int    // 从 1 开始，0 表示不分页
	PageSize      int
}

func NewScriptService(db *gorm.DB, sysSvc *SystemSettingsService) *ScriptService {
	return &ScriptService{
		changeFeed: changeFeed{sysSvc: sysSvc},
		db:         db,
	}
}

// ListScripts 获取脚本列表，返回当前页和筛选后的总数
func (s *ScriptService) ListScripts(ownerID uuid.UUID, filter ScriptFilter) ([]model.Script, int, error) {
	var scripts []model.Script
	if err := s.db.Where("owner_id = ?", ownerID).Find(&scripts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list scripts: %w", err)
	}

	filtered := FilterScripts(scripts, filter)
	return paginate(filtered, filter.Page, filter.PageSize), len(filtered), nil
}

// FilterScripts 按条件过滤并排序
func FilterScripts(scripts []model.Script, filter ScriptFilter) []model.Script {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	filtered := make([]model.Script, 0, len(scripts))
	for _, script := range scripts {
		if filter.Category != "" && filter.Category != "All" && script.Category != filter.Category {
			continue
		}
		if filter.PinnedOnly && !script.Pinned {
			continue
		}
		if filter.FavoritesOnly && !script.Favorited {
			continue
		}
		if filter.Tag != "" && !containsString(script.Tags, filter.Tag) {
			continue
		}
		if search != "" && !scriptMatches(script, search) {
			continue
		}
		filtered = append(filtered, script)
	}

	var less func(a, b model.Script) bool
	switch filter.SortBy {
	case "alphabetical":
		less = func(a, b model.Script) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case "wordCount":
		less = func(a, b model.Script) bool { return wordCount(a.Content) > wordCount(b.Content) }
	case "category":
		less = func(a, b model.Script) bool { return strings.ToLower(a.Category) < strings.ToLower(b.Category) }
	default:
		less = func(a, b model.Script) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(filtered, func(i, j int) bool { return less(filtered[i], filtered[j]) })

	return filtered
}

func scriptMatches(script model.Script, search string) bool {
	if strings.Contains(strings.ToLower(script.Title), search) ||
		strings.Contains(strings.ToLower(script.Content), search) {
		return true
	}
	for _, tag := range script.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func wordCount(content string) int {
	return len(strings.Fields(content))
}

func paginate(scripts []model.Script, page, pageSize int) []model.Script {
	if page <= 0 || pageSize <= 0 {
		return scripts
	}
	start := (page - 1) * pageSize
	if start >= len(scripts) {
		return []model.Script{}
	}
	end := start + pageSize
	if end > len(scripts) {
		end = len(scripts)
	}
	return scripts[start:end]
}

// GetScript 获取单个脚本
func (s *ScriptService) GetScript(ownerID, id uuid.UUID) (*model.Script, error) {
	var script model.Script
	err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&script).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrScriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get script: %w", err)
	}
	return &script, nil
}

// CreateScript 创建脚本（版本号从 1 开始）
func (s *ScriptService) CreateScript(ownerID uuid.UUID, input *ScriptInput) (*model.Script, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || strings.TrimSpace(input.Content) == "" {
		return nil, ErrInvalidScript
	}

	script := &model.Script{
		OwnerID:     ownerID,
		Title:       title,
		Category:    normalizeCategory(input.Category),
		Content:     input.Content,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Tags:        cleanTags(input.Tags),
		Version:     1,
	}
	if err := s.db.Create(script).Error; err != nil {
		return nil, fmt.Errorf("failed to create script: %w", err)
	}

	s.publishScripts(ownerID)
	return script, nil
}

// UpdateScript 编辑脚本，版本号 +1
func (s *ScriptService) UpdateScript(ownerID, id uuid.UUID, patch *ScriptPatch) (*model.Script, error) {
	script, err := s.GetScript(ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		script.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Category != nil {
		script.Category = normalizeCategory(*patch.Category)
	}
	if patch.Content != nil {
		script.Content = *patch.Content
	}
	if patch.Description != nil {
		script.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		if *patch.ImageURL == "" {
			script.ImageURL = nil
		} else {
			script.ImageURL = patch.ImageURL
		}
	}
	if patch.Tags != nil {
		script.Tags = cleanTags(*patch.Tags)
	}
	if script.Title == "" || strings.TrimSpace(script.Content) == "" {
		return nil, ErrInvalidScript
	}
	script.Version++

	if err := s.db.Save(script).Error; err != nil {
		return nil, fmt.Errorf("failed to update script: %w", err)
	}

	s.publishScripts(ownerID)
	return script, nil
}

// DeleteScript 删除脚本
func (s *ScriptService) DeleteScript(ownerID, id uuid.UUID) error {
	result := s.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Script{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete script: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrScriptNotFound
	}

	s.publishScripts(ownerID)
	return nil
}

// TogglePin 切换置顶（不增加版本号）
func (s *ScriptService) TogglePin(ownerID, id uuid.UUID) (*model.Script, error) {
	return s.toggle(ownerID, id, "pinned", func(script *model.Script) bool {
		script.Pinned = !script.Pinned
		return script.Pinned
	})
}

// ToggleFavorite 切换收藏（不增加版本号）
func (s *ScriptService) ToggleFavorite(ownerID, id uuid.UUID) (*model.Script, error) {
	return s.toggle(ownerID, id, "favorited", func(script *model.Script) bool {
		script.Favorited = !script.Favorited
		return script.Favorited
	})
}

func (s *ScriptService) toggle(ownerID, id uuid.UUID, column string, flip func(*model.Script) bool) (*model.Script, error) {
	script, err := s.GetScript(ownerID, id)
	if err != nil {
		return nil, err
	}

	value := flip(script)
	if err := s.db.Model(&model.Script{}).Where("id = ? AND owner_id = ?", id, ownerID).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}

	s.publishScripts(ownerID)
	return script, nil
}

// BulkDelete 批量删除
func (s *ScriptService) BulkDelete(ownerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.Where("owner_id = ? AND id IN ?", ownerID, ids).Delete(&model.Script{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete scripts: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.publishScripts(ownerID)
	}
	return result.RowsAffected, nil
}

// BulkSetPinned 批量置顶/取消置顶
func (s *ScriptService) BulkSetPinned(ownerID uuid.UUID, ids []uuid.UUID, pinned bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.Model(&model.Script{}).
		Where("owner_id = ? AND id IN ?", ownerID, ids).
		Update("pinned", pinned)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update scripts: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.publishScripts(ownerID)
	}
	return result.RowsAffected, nil
}

// ListTags 获取用户所有标签（去重，排序）
func (s *ScriptService) ListTags(ownerID uuid.UUID) ([]string, error) {
	var scripts []model.Script
	if err := s.db.Select("tags").Where("owner_id = ?", ownerID).Find(&scripts).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, script := range scripts {
		for _, tag := range script.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// InitDefaultScripts 新用户初始化示例脚本（已有脚本时不做任何事）
func (s *ScriptService) InitDefaultScripts(ownerID uuid.UUID) (int, error) {
	var count int64
	if err := s.db.Model(&model.Script{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count scripts: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	defaults := []model.Script{
		{
			Title:       "Payment Processing Issue",
			Category:    "Transactions",
			Content:     "Hello! I understand you're experiencing issues with payment processing. Let me help you resolve this immediately. Can you please provide your transaction ID?",
			Description: "For payment-related problems",
			Tags:        []string{"urgent", "payment"},
			Pinned:      true,
		},
		{
			Title:       "Order Status Inquiry",
			Category:    "Orders",
			Content:     "Thank you for contacting us about your order. I'd be happy to check the status for you. Please provide your order number, and I'll give you an immediate update.",
			Description: "Standard order status response",
			Tags:        []string{"tracking", "status"},
			Favorited:   true,
		},
		{
			Title:       "Welcome New Customer",
			Category:    "Introduction",
			Content:     "Welcome to our service! I'm here to assist you today. How may I help you get started with your account?",
			Description: "Greeting for new customers",
			Tags:        []string{"welcome", "new"},
			Pinned:      true,
		},
		{
			Title:       "Technical Support Escalation",
			Category:    "Troubleshooting",
			Content:     "I understand this technical issue is causing frustration. Let me escalate this to our technical team for immediate attention. You should receive a response within 2 hours.",
			Description: "For complex technical issues",
			Tags:        []string{"escalation", "technical"},
		},
	}
	for i := range defaults {
		defaults[i].OwnerID = ownerID
		defaults[i].Version = 1
	}

	if err := s.db.Create(&defaults).Error; err != nil {
		return 0, fmt.Errorf("failed to create default scripts: %w", err)
	}

	s.publishScripts(ownerID)
	return len(defaults), nil
}

func (s *ScriptService) publishScripts(ownerID uuid.UUID) {
	s.publish(ownerID, CollectionScripts, func() (interface{}, error) {
		scripts, _, err := s.ListScripts(ownerID, ScriptFilter{})
		return scripts, err
	})
}

// normalizeCategory 未知分类归入 Others
func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	for _, c := range model.ScriptCategories {
		if strings.EqualFold(c, category) {
			return c
		}
	}
	return "Others"
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || containsString(cleaned, tag) {
			continue
		}
		cleaned = append(cleaned, tag)
	}
	return cleaned
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
