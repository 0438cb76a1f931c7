package utils

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var rdb *redis.Client

// InitRedis 初始化 Redis 连接
// url 为空时不启用 Redis，WebSocket 推送只在本实例内生效
func InitRedis(url, password string, db int) error {
	if url == "" {
		log.Println("REDIS_URL not set, cross-instance change feed disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return err
	}

	rdb = client
	log.Println("Redis connected")
	return nil
}

// GetRedis 获取 Redis 客户端（可能为 nil）
func GetRedis() *redis.Client {
	return rdb
}

// CloseRedis 关闭 Redis 连接
func CloseRedis() error {
	if rdb != nil {
		return rdb.Close()
	}
	return nil
}
