package models

import "gorm.io/gorm"

// TaskComment is append-only; there is no edit or delete path.
type TaskComment struct {
	gorm.Model

	TaskID uint   `gorm:"not null;index"`
	UserID uint   `gorm:"not null;index"`
	Body   string `gorm:"not null"`

	// Relationships
	Task   Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Author User `gorm:"foreignKey:UserID"`
}
