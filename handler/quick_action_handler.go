package handler

import (
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
)

type QuickActionHandler struct {
	quickActionSvc *service.QuickActionService
}

func NewQuickActionHandler(quickActionSvc *service.QuickActionService) *QuickActionHandler {
	return &QuickActionHandler{quickActionSvc: quickActionSvc}
}

// ListQuickActions 获取快捷短语列表
func (h *QuickActionHandler) ListQuickActions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	actions, err := h.quickActionSvc.ListQuickActions(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"quick_actions": actions})
}

// CreateQuickAction 创建快捷短语
func (h *QuickActionHandler) CreateQuickAction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.QuickActionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	action, err := h.quickActionSvc.CreateQuickAction(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, gin.H{"quick_action": action})
}

// UpdateQuickAction 更新快捷短语
func (h *QuickActionHandler) UpdateQuickAction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "quick action")
	if !ok {
		return
	}

	var req service.QuickActionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	action, err := h.quickActionSvc.UpdateQuickAction(userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"quick_action": action})
}

// DeleteQuickAction 删除快捷短语
func (h *QuickActionHandler) DeleteQuickAction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "quick action")
	if !ok {
		return
	}

	if err := h.quickActionSvc.DeleteQuickAction(userID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Quick action deleted successfully", nil)
}

// PersonalizeQuickAction 个性化快捷短语，返回可直接插入输入框的文本
func (h *QuickActionHandler) PersonalizeQuickAction(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "quick action")
	if !ok {
		return
	}

	var req personalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	content, err := h.quickActionSvc.Personalize(userID, id, req.Values)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"content": content})
}

// InitDefaults 新用户初始化默认快捷短语
func (h *QuickActionHandler) InitDefaults(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	created, err := h.quickActionSvc.InitDefaultQuickActions(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"created": created})
}
