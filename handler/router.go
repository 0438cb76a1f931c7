package handler

import (
	"chat_scripts/middleware"
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Services 路由依赖的服务
type Services struct {
	Templates    *service.TemplateService
	Scripts      *service.ScriptService
	QuickActions *service.QuickActionService
	Settings     *service.SystemSettingsService
}

// SetupRouter 注册全部路由
func SetupRouter(svc Services, hub *Hub, adminIDs []uuid.UUID) *gin.Engine {
	tplHandler := NewTemplateHandler(svc.Templates)
	scriptHandler := NewScriptHandler(svc.Scripts)
	qaHandler := NewQuickActionHandler(svc.QuickActions)
	sysHandler := NewSystemSettingsHandler(svc.Settings)

	r := gin.Default()

	// 统一错误处理
	r.Use(middleware.ErrorHandlerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})

	// WebSocket 订阅（使用 token 认证，不需要 HTTP 中间件）
	r.GET("/ws", HandleWebSocket(hub))

	// HTTP API 路由组（需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// 模板
		api.GET("/templates", tplHandler.ListTemplates)
		api.POST("/templates", tplHandler.CreateTemplate)
		api.POST("/templates/bulk-delete", tplHandler.BulkDeleteTemplates)
		api.POST("/templates/detect", tplHandler.DetectPlaceholders)
		api.POST("/templates/preview", tplHandler.PreviewContent) // 任意内容，不落库
		api.GET("/templates/:id", tplHandler.GetTemplate)
		api.POST("/templates/:id", tplHandler.UpdateTemplate)
		api.DELETE("/templates/:id", tplHandler.DeleteTemplate)
		api.POST("/templates/:id/personalize", tplHandler.PersonalizeTemplate)

		// 脚本
		api.GET("/scripts", scriptHandler.ListScripts)
		api.GET("/scripts/tags", scriptHandler.ListTags)
		api.POST("/scripts", scriptHandler.CreateScript)
		api.POST("/scripts/bulk-delete", scriptHandler.BulkDelete)
		api.POST("/scripts/bulk-pin", scriptHandler.BulkPin)
		api.POST("/scripts/init-defaults", scriptHandler.InitDefaults)
		api.GET("/scripts/:id", scriptHandler.GetScript)
		api.POST("/scripts/:id", scriptHandler.UpdateScript)
		api.DELETE("/scripts/:id", scriptHandler.DeleteScript)
		api.POST("/scripts/:id/pin", scriptHandler.TogglePin)
		api.POST("/scripts/:id/favorite", scriptHandler.ToggleFavorite)

		// 快捷短语
		api.GET("/quick-actions", qaHandler.ListQuickActions)
		api.POST("/quick-actions", qaHandler.CreateQuickAction)
		api.POST("/quick-actions/init-defaults", qaHandler.InitDefaults)
		api.POST("/quick-actions/:id", qaHandler.UpdateQuickAction)
		api.DELETE("/quick-actions/:id", qaHandler.DeleteQuickAction)
		api.POST("/quick-actions/:id/personalize", qaHandler.PersonalizeQuickAction)

		// 登出（断开该用户所有设备的订阅）
		api.POST("/logout", func(c *gin.Context) {
			if userID, ok := middleware.GetUserID(c); ok {
				hub.ForceOffline(userID)
			}
			utils.SuccessWithMessage(c, "Logged out", nil)
		})
	}

	// 管理员 API 路由组（需要认证 + 管理员权限）
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(AdminAuthMiddleware(adminIDs))
	{
		admin.GET("/settings", sysHandler.GetSystemSettings)
		admin.POST("/settings/reload", sysHandler.ReloadSystemSettings)
		admin.POST("/settings/:key", sysHandler.UpdateSystemSetting)
	}

	return r
}
