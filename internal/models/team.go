package models

import "gorm.io/gorm"

type Team struct {
	gorm.Model

	Name      string `gorm:"not null"`
	Code      string `gorm:"uniqueIndex;not null;size:10"`
	CreatedBy uint   `gorm:"not null;index"`

	// Relationships
	Creator     User         `gorm:"foreignKey:CreatedBy"`
	TeamMembers []TeamMember `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks       []Task       `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
