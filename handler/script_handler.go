package handler

import (
	"strconv"

	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScriptHandler struct {
	scriptSvc *service.ScriptService
}

func NewScriptHandler(scriptSvc *service.ScriptService) *ScriptHandler {
	return &ScriptHandler{scriptSvc: scriptSvc}
}

// ListScripts 获取脚本列表
// GET /api/v1/scripts?category=&search=&pinned=true&favorites=true&tag=&sort=&page=&page_size=
func (h *ScriptHandler) ListScripts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	// 分页参数
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := service.ScriptFilter{
		Category:      c.Query("category"),
		Search:        c.Query("search"),
		PinnedOnly:    c.Query("pinned") == "true",
		FavoritesOnly: c.Query("favorites") == "true",
		Tag:           c.Query("tag"),
		SortBy:        c.DefaultQuery("sort", "recent"),
		Page:          page,
		PageSize:      pageSize,
	}

	scripts, total, err := h.scriptSvc.ListScripts(userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"scripts": scripts,
		"total":   total,
	})
}

// ListTags 获取用户所有标签
func (h *ScriptHandler) ListTags(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	tags, err := h.scriptSvc.ListTags(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"tags": tags})
}

// GetScript 获取脚本详情
func (h *ScriptHandler) GetScript(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "script")
	if !ok {
		return
	}

	script, err := h.scriptSvc.GetScript(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"script": script})
}

// CreateScript 创建脚本
func (h *ScriptHandler) CreateScript(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.ScriptInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	script, err := h.scriptSvc.CreateScript(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, gin.H{"script": script})
}

// UpdateScript 编辑脚本
// POST /api/v1/scripts/:id
func (h *ScriptHandler) UpdateScript(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "script")
	if !ok {
		return
	}

	var req service.ScriptPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	script, err := h.scriptSvc.UpdateScript(userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"script": script})
}

// DeleteScript 删除脚本
func (h *ScriptHandler) DeleteScript(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "script")
	if !ok {
		return
	}

	if err := h.scriptSvc.DeleteScript(userID, id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Script deleted successfully", nil)
}

// TogglePin 切换置顶
func (h *ScriptHandler) TogglePin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "script")
	if !ok {
		return
	}

	script, err := h.scriptSvc.TogglePin(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"script": script})
}

// ToggleFavorite 切换收藏
func (h *ScriptHandler) ToggleFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "script")
	if !ok {
		return
	}

	script, err := h.scriptSvc.ToggleFavorite(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"script": script})
}

// BulkDelete 批量删除脚本
func (h *ScriptHandler) BulkDelete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		IDs []uuid.UUID `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	deleted, err := h.scriptSvc.BulkDelete(userID, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": deleted})
}

// BulkPin 批量置顶/取消置顶
func (h *ScriptHandler) BulkPin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		IDs    []uuid.UUID `json:"ids" binding:"required"`
		Pinned bool        `json:"pinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	updated, err := h.scriptSvc.BulkSetPinned(userID, req.IDs, req.Pinned)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": updated})
}

// InitDefaults 新用户初始化示例脚本
func (h *ScriptHandler) InitDefaults(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	created, err := h.scriptSvc.InitDefaultScripts(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"created": created})
}
