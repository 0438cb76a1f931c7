package handler

import (
	"errors"
	"log"

	"chat_scripts/middleware"
	"chat_scripts/service"
	"chat_scripts/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError 把服务层错误映射为 HTTP 状态码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrScriptNotFound),
		errors.Is(err, service.ErrQuickActionNotFound),
		errors.Is(err, service.ErrSettingNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidTemplate),
		errors.Is(err, service.ErrInvalidScript),
		errors.Is(err, service.ErrInvalidQuickAction):
		utils.UnprocessableEntity(c, err.Error())
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		utils.InternalServerError(c, "internal server error")
	}
}

// currentUser 获取当前用户，未认证时直接写 401
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		utils.Unauthorized(c, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// parseUUIDParam 解析路径中的 UUID，失败时直接写 400
func parseUUIDParam(c *gin.Context, name, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequest(c, "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
