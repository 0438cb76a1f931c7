package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template 个性化消息模板表
type Template struct {
	ID           string    `json:"id" gorm:"type:varchar(64);primaryKey"`
	OwnerID      uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name         string    `json:"name" gorm:"type:varchar(200);not null"`
	Description  *string   `json:"description,omitempty" gorm:"type:text"`
	Content      string    `json:"content" gorm:"type:text;not null"` // 模板内容，支持变量：{{name}}, {{orderNumber}}
	Placeholders []string  `json:"placeholders" gorm:"type:jsonb;serializer:json"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;<-:create"` // 创建后不可修改
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Local 未写入数据库的本地模板（离线创建或内置默认模板）
	Local bool `json:"local,omitempty" gorm:"-"`
}

func (Template) TableName() string {
	return "templates"
}

// BeforeCreate 未指定 ID 时生成 UUID
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Placeholders == nil {
		t.Placeholders = []string{}
	}
	return nil
}
