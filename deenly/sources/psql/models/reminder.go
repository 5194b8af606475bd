package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reminder struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"-" gorm:"type:varchar(64);not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Note      string    `json:"note" gorm:"type:text;default:''"`
	RemindAt  time.Time `json:"remind_at" gorm:"not null"`
	Done      bool      `json:"done" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Reminder) TableName() string {
	return "reminders"
}

func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
