// Package access is the single source of truth for who may do what. Every
// store handler loads the target resource first (absent resources are a 404
// before any permission is considered) and then asks one of these predicates.
// Membership is read fresh on every call; role changes take effect on the
// next request.
package access

import (
	"errors"

	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/types"
)

// IsTeamMember reports whether a membership row exists for (teamID, userID).
// It is the base gate for all team-scoped task and attachment operations.
func IsTeamMember(userID, teamID uint) (bool, error) {
	var count int64

	err := db.DB.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// IsTeamAdminOrCreator gates destructive team operations: member removal,
// team deletion, and deletion of team resources.
func IsTeamAdminOrCreator(userID, teamID uint) (bool, error) {
	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	if team.CreatedBy == userID {
		return true, nil
	}

	var membership models.TeamMember

	err := db.DB.Where("team_id = ? AND user_id = ?", teamID, userID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return membership.Role == types.RoleAdmin, nil
}

// CanReadTask: team tasks are visible to members; personal tasks only to
// their owner or creator.
func CanReadTask(userID uint, task *models.Task) (bool, error) {
	if !task.IsPersonal() {
		return IsTeamMember(userID, *task.TeamID)
	}

	if task.UserID != nil && *task.UserID == userID {
		return true, nil
	}

	return task.CreatedBy == userID, nil
}

// CanMutateTask uses the same predicate as CanReadTask: anyone who may see a
// task may update it.
func CanMutateTask(userID uint, task *models.Task) (bool, error) {
	return CanReadTask(userID, task)
}

// CanDeleteTask is stricter than mutation: a team task is deletable only by
// its creator or a team admin.
func CanDeleteTask(userID uint, task *models.Task) (bool, error) {
	if task.CreatedBy == userID {
		return true, nil
	}

	if task.IsPersonal() {
		return task.UserID != nil && *task.UserID == userID, nil
	}

	return IsTeamAdminOrCreator(userID, *task.TeamID)
}

// CanAssign reports whether a candidate assignee is eligible, which means
// current membership of the task's team.
func CanAssign(candidateID, teamID uint) (bool, error) {
	return IsTeamMember(candidateID, teamID)
}

// CanDeleteAttachment: the uploader, the task's creator, or a team admin
// (when the task is team-scoped) may remove an attachment.
func CanDeleteAttachment(userID uint, attachment *models.TaskAttachment, task *models.Task) (bool, error) {
	if attachment.UploadedBy == userID || task.CreatedBy == userID {
		return true, nil
	}

	if task.IsPersonal() {
		return false, nil
	}

	return IsTeamAdminOrCreator(userID, *task.TeamID)
}

// CanComment gates both reading and writing comments. Comments exist only on
// team tasks; a personal task always denies.
func CanComment(userID uint, task *models.Task) (bool, error) {
	if task.IsPersonal() {
		return false, nil
	}

	return IsTeamMember(userID, *task.TeamID)
}
