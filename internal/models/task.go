package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/internal/types"
)

// Task is either personal (UserID set to the creator, TeamID nil) or
// team-scoped (TeamID set, UserID nil). The constructors below are the only
// places that set the ownership columns, so exactly one mode is ever
// populated.
type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null;default:'todo'"`
	Priority    string `gorm:"not null;default:'medium'"`
	DueDate     *time.Time
	TeamID      *uint `gorm:"index"`
	UserID      *uint `gorm:"index"`
	AssigneeID  *uint `gorm:"index"`
	CreatedBy   uint  `gorm:"not null;index"`

	// Relationships
	Team        *Team            `gorm:"foreignKey:TeamID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Creator     User             `gorm:"foreignKey:CreatedBy"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Comments    []TaskComment    `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func NewPersonalTask(creatorID uint, title string) Task {
	owner := creatorID
	return Task{
		Title:     title,
		Status:    types.StatusTodo,
		Priority:  types.PriorityMedium,
		UserID:    &owner,
		CreatedBy: creatorID,
	}
}

func NewTeamTask(teamID, creatorID uint, title string) Task {
	team := teamID
	return Task{
		Title:     title,
		Status:    types.StatusTodo,
		Priority:  types.PriorityMedium,
		TeamID:    &team,
		CreatedBy: creatorID,
	}
}

func (t *Task) IsPersonal() bool {
	return t.TeamID == nil
}
