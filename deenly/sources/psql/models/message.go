package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is one entry of a user's chat log. Threads are derived from
// CreatedAt and never stored.
type Message struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);not null;index:idx_messages_user_created,priority:1"`
	Role      string    `json:"role" gorm:"type:varchar(16);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Starred   bool      `json:"starred" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_messages_user_created,priority:2"`
	// Seq orders messages of one user that share CreatedAt.
	Seq int64 `json:"seq" gorm:"not null;default:0;index:idx_messages_user_created,priority:3"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
