package models

import "gorm.io/gorm"

// TaskAttachment records an uploaded file. Filename is the random on-disk
// name; OriginalName is whatever the uploader called it.
type TaskAttachment struct {
	gorm.Model

	Filename     string `gorm:"not null;uniqueIndex"`
	OriginalName string `gorm:"not null"`
	MimeType     string
	Size         int64
	Path         string `gorm:"not null"`
	TaskID       uint   `gorm:"not null;index"`
	UploadedBy   uint   `gorm:"not null;index"`

	// Relationships
	Task     Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Uploader User `gorm:"foreignKey:UploadedBy"`
}
