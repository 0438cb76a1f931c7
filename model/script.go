package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Script 话术脚本表
type Script struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string    `json:"title" gorm:"type:varchar(200);not null"`
	Category    string    `json:"category" gorm:"type:varchar(50);not null;default:'Others'"` // 'Transactions' | 'Troubleshooting' | 'Orders' | 'Updates' | 'Introduction' | 'Others'
	Content     string    `json:"content" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	ImageURL    *string   `json:"image_url,omitempty" gorm:"type:text"`
	Tags        []string  `json:"tags" gorm:"type:jsonb;serializer:json"`
	Pinned      bool      `json:"pinned" gorm:"default:false"`
	Favorited   bool      `json:"favorited" gorm:"default:false"`
	Version     int       `json:"version" gorm:"not null;default:1"` // 每次编辑 +1
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;<-:create"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Script) TableName() string {
	return "scripts"
}

func (s *Script) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return nil
}

// ScriptCategories 预置分类（"All" 只用于筛选）
var ScriptCategories = []string{
	"Transactions",
	"Troubleshooting",
	"Orders",
	"Updates",
	"Introduction",
	"Others",
}
