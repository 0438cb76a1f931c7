package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuickAction 快捷短语表
type QuickAction struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;<-:create"`
}

func (QuickAction) TableName() string {
	return "quick_actions"
}

func (q *QuickAction) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
