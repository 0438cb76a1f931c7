package main

import (
	"log"
	"time"

	"chat_scripts/config"
	"chat_scripts/handler"
	"chat_scripts/middleware"
	"chat_scripts/service"
	"chat_scripts/templating"
	"chat_scripts/utils"
)

func init() {
	// 服务端统一使用 UTC
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer utils.CloseDB()

	// 初始化 Redis（未配置时只在本实例内推送）
	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer utils.CloseRedis()

	// 初始化认证中间件
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	middleware.InitAuth(cfg.JWTSecret)

	// 系统配置服务（全局单例）
	sysSvc := service.NewSystemSettingsService(utils.GetDB())
	if err := sysSvc.InitDefaultSettings(); err != nil {
		log.Printf("Warning: Failed to init default settings: %v", err)
	}

	// 创建服务
	tplSvc := service.NewTemplateService(utils.GetDB(), sysSvc)
	tplSvc.SetPreviewer(templating.NewPreviewer(cfg.HighlightClass))
	scriptSvc := service.NewScriptService(utils.GetDB(), sysSvc)
	qaSvc := service.NewQuickActionService(utils.GetDB(), sysSvc)

	// WebSocket Hub：连接时推送快照，变更后推送最新集合
	workspace := service.NewWorkspace(tplSvc, scriptSvc, qaSvc)
	hub := handler.NewHub(utils.GetRedis(), workspace, cfg.MaxConnectionsPerUser)
	workspace.SetChangeNotifier(hub)
	hub.StartPubSub()
	defer hub.StopPubSub()

	r := handler.SetupRouter(handler.Services{
		Templates:    tplSvc,
		Scripts:      scriptSvc,
		QuickActions: qaSvc,
		Settings:     sysSvc,
	}, hub, cfg.AdminUserIDs)

	// 启动服务
	log.Printf("chat_scripts service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
