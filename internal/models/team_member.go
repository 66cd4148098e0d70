package models

import "gorm.io/gorm"

// TeamMember joins a user to a team with a role. A user belongs to a team at
// most once.
type TeamMember struct {
	gorm.Model

	TeamID uint   `gorm:"not null;uniqueIndex:idx_team_user"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_team_user"`
	Role   string `gorm:"not null;default:'member'"`

	// Relationships
	Team Team `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
