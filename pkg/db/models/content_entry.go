package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentEntry holds keyed site content such as the booking disclaimer or a payment QR image URL.
type ContentEntry struct {
	Type      string     `gorm:"column:type;primaryKey" json:"type"`
	Title     string     `gorm:"column:title;not null" json:"title"`
	Content   string     `gorm:"column:content;not null" json:"content"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid" json:"-"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

func (ContentEntry) TableName() string { return "content_entries" }
