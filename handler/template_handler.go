package handler

import (
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateSvc *service.TemplateService
}

func NewTemplateHandler(templateSvc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateSvc: templateSvc,
	}
}

// personalizeRequest 个性化请求（值按占位符名称）
type personalizeRequest struct {
	Values map[string]string `json:"values"`
}

// ListTemplates 获取模板列表
// GET /api/v1/templates?q=xxx&sort=recent|alphabetical
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	templates, err := h.templateSvc.ListTemplates(userID, c.Query("q"), c.DefaultQuery("sort", "recent"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"templates": templates,
		"total":     len(templates),
	})
}

// GetTemplate 获取模板详情（附带填写表单描述）
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	template, err := h.templateSvc.GetTemplate(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"template": template,
		"fields":   h.templateSvc.Render(template.Content, template.Placeholders, nil).Fields,
	})
}

// CreateTemplate 创建模板
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.TemplateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	template, err := h.templateSvc.CreateTemplate(userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, gin.H{
		"template": template,
		"local":    template.Local,
	})
}

// UpdateTemplate 更新模板
// POST /api/v1/templates/:id
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.TemplatePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	template, local, err := h.templateSvc.UpdateTemplate(userID, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"template": template,
		"local":    local,
	})
}

// DeleteTemplate 删除模板
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	local, err := h.templateSvc.DeleteTemplate(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessWithMessage(c, "Template deleted successfully", gin.H{"local": local})
}

// BulkDeleteTemplates 批量删除模板
func (h *TemplateHandler) BulkDeleteTemplates(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req struct {
		IDs []string `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	deleted, err := h.templateSvc.BulkDeleteTemplates(userID, req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": deleted})
}

// DetectPlaceholders 从内容中检测占位符（合并已有列表）
func (h *TemplateHandler) DetectPlaceholders(c *gin.Context) {
	var req struct {
		Content      string   `json:"content"`
		Placeholders []string `json:"placeholders"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"placeholders": h.templateSvc.DetectPlaceholders(req.Content, req.Placeholders),
	})
}

// PersonalizeTemplate 用填写的值个性化已保存的模板
func (h *TemplateHandler) PersonalizeTemplate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req personalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.templateSvc.Personalize(userID, c.Param("id"), req.Values)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// PreviewContent 个性化任意内容（不访问数据库）
// placeholders 不传时从内容中检测
func (h *TemplateHandler) PreviewContent(c *gin.Context) {
	var req struct {
		Content      string            `json:"content"`
		Placeholders []string          `json:"placeholders"`
		Values       map[string]string `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "invalid request body")
		return
	}

	utils.SuccessResponse(c, h.templateSvc.Render(req.Content, req.Placeholders, req.Values))
}
