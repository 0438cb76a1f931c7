package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	RedisURL       string // 为空时不启用跨实例推送
	RedisPassword  string
	RedisDB        int
	JWTSecret      string
	HighlightClass string // 个性化预览中占位符的高亮 class

	MaxConnectionsPerUser int // 每个用户最多同时在线的设备数

	AdminUserIDs []uuid.UUID // 为空时所有认证用户都可访问管理接口
}

func Load() *Config {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		HighlightClass:        getEnv("PREVIEW_HIGHLIGHT_CLASS", "placeholder-highlight"),
		MaxConnectionsPerUser: getEnvInt("MAX_CONNECTIONS_PER_USER", 18),
		AdminUserIDs:          parseUUIDList(os.Getenv("ADMIN_USER_IDS")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		log.Printf("Invalid %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

// parseUUIDList 解析逗号分隔的 UUID 列表，忽略无效项
func parseUUIDList(value string) []uuid.UUID {
	var ids []uuid.UUID
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			log.Printf("Ignoring invalid admin user id %q", part)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
