package handler

import (
	"chat_scripts/middleware"
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SystemSettingsHandler struct {
	sysSvc *service.SystemSettingsService
}

func NewSystemSettingsHandler(sysSvc *service.SystemSettingsService) *SystemSettingsHandler {
	return &SystemSettingsHandler{
		sysSvc: sysSvc,
	}
}

// GetSystemSettings 获取所有系统配置
// GET /api/admin/settings
func (h *SystemSettingsHandler) GetSystemSettings(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"settings": h.sysSvc.GetAllSettings(),
	})
}

// UpdateSystemSetting 更新系统配置
// POST /api/admin/settings/:key
func (h *SystemSettingsHandler) UpdateSystemSetting(c *gin.Context) {
	key := c.Param("key")

	var req struct {
		Value string `json:"value" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	// 只允许 "true" 或 "false"
	if req.Value != "true" && req.Value != "false" {
		utils.BadRequest(c, "value must be 'true' or 'false'")
		return
	}

	if err := h.sysSvc.UpdateSetting(key, req.Value); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "setting updated successfully",
		"key":     key,
		"value":   req.Value,
	})
}

// ReloadSystemSettings 重新加载系统配置（从数据库）
// POST /api/admin/settings/reload
func (h *SystemSettingsHandler) ReloadSystemSettings(c *gin.Context) {
	if err := h.sysSvc.LoadSettings(); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "settings reloaded successfully",
	})
}

// AdminAuthMiddleware 超管鉴权中间件
// adminIDs 为空时所有认证用户都视为管理员（本地开发）
func AdminAuthMiddleware(adminIDs []uuid.UUID) gin.HandlerFunc {
	allowed := make(map[uuid.UUID]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		userID, exists := middleware.GetUserID(c)
		if !exists {
			utils.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}

		if len(allowed) > 0 {
			if _, ok := allowed[userID]; !ok {
				utils.Forbidden(c, "admin only")
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
