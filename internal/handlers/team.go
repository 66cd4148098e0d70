package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/access"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/teamcode"
	"github.com/taskcrew-dev/taskcrew/internal/types"
	"github.com/taskcrew-dev/taskcrew/internal/utils"
)

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

type JoinTeamRequest struct {
	Code string `json:"code" binding:"required"`
}

type TeamResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type TeamWithRoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Role string `json:"role"`
}

type TeamMemberResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type TeamDetailResponse struct {
	ID        uint                 `json:"id"`
	Name      string               `json:"name"`
	Code      string               `json:"code"`
	CreatedBy uint                 `json:"createdBy"`
	Members   []TeamMemberResponse `json:"members"`
	Counts    types.TaskCounts     `json:"counts"`
}

// CreateTeam makes the caller the team's first admin member. Code generation
// and both inserts share one transaction so concurrent creations cannot claim
// the same code.
func CreateTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateTeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Team name is required"})
		return
	}

	var team models.Team

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		code, err := teamcode.GenerateUnique(tx)

		if err != nil {
			return err
		}

		team = models.Team{
			Name:      strings.TrimSpace(req.Name),
			Code:      code,
			CreatedBy: userID,
		}

		if err := tx.Create(&team).Error; err != nil {
			return err
		}

		membership := models.TeamMember{
			TeamID: team.ID,
			UserID: userID,
			Role:   types.RoleAdmin,
		}

		return tx.Create(&membership).Error
	})

	if err != nil {
		if errors.Is(err, teamcode.ErrExhausted) {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate team code"})
			return
		}
		log.Printf("Failed to create team: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"team": TeamResponse{ID: team.ID, Name: team.Name, Code: team.Code},
	})
}

func JoinTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req JoinTeamRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Team code is required"})
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))

	var team models.Team

	if err := db.DB.Where("code = ?", code).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Invalid team code"})
		} else {
			log.Printf("Failed to look up team code: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		var count int64

		if err := tx.Model(&models.TeamMember{}).
			Where("team_id = ? AND user_id = ?", team.ID, userID).
			Count(&count).Error; err != nil {
			return err
		}

		if count > 0 {
			return errAlreadyMember
		}

		membership := models.TeamMember{
			TeamID: team.ID,
			UserID: userID,
			Role:   types.RoleMember,
		}

		return tx.Create(&membership).Error
	})

	if err != nil {
		if errors.Is(err, errAlreadyMember) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
			return
		}
		log.Printf("Failed to join team: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"team": TeamResponse{ID: team.ID, Name: team.Name, Code: team.Code},
	})
}

var errAlreadyMember = errors.New("already a member")

func ListTeams(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var rows []TeamWithRoleResponse

	err = db.DB.Model(&models.TeamMember{}).
		Select("teams.id, teams.name, teams.code, team_members.role").
		Joins("JOIN teams ON teams.id = team_members.team_id AND teams.deleted_at IS NULL").
		Where("team_members.user_id = ?", userID).
		Order("team_members.created_at ASC").
		Scan(&rows).Error

	if err != nil {
		log.Printf("Failed to list teams: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if rows == nil {
		rows = []TeamWithRoleResponse{}
	}

	ctx.JSON(http.StatusOK, gin.H{"teams": rows})
}

func GetTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	teamID, err := parseIDParam(ctx, "team_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			log.Printf("Failed to fetch team: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isMember, err := access.IsTeamMember(userID, team.ID)

	if err != nil {
		log.Printf("Failed to check membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !isMember {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this team"})
		return
	}

	members, err := listMembers(team.ID)

	if err != nil {
		log.Printf("Failed to list members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	counts, err := taskCounts(team.ID)

	if err != nil {
		log.Printf("Failed to compute task counts: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, TeamDetailResponse{
		ID:        team.ID,
		Name:      team.Name,
		Code:      team.Code,
		CreatedBy: team.CreatedBy,
		Members:   members,
		Counts:    counts,
	})
}

func GetTeamMembers(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	teamID, err := parseIDParam(ctx, "team_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			log.Printf("Failed to fetch team: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isMember, err := access.IsTeamMember(userID, team.ID)

	if err != nil {
		log.Printf("Failed to check membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !isMember {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member"})
		return
	}

	members, err := listMembers(team.ID)

	if err != nil {
		log.Printf("Failed to list members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"members": members})
}

// RemoveMember removes another user from a team. Admin or creator only;
// self-removal is refused. Tasks assigned to the removed member are left
// untouched.
func RemoveMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	teamID, err := parseIDParam(ctx, "team_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	targetID, err := parseIDParam(ctx, "user_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			log.Printf("Failed to fetch team: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	allowed, err := access.IsTeamAdminOrCreator(userID, team.ID)

	if err != nil {
		log.Printf("Failed to check admin role: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a team admin can remove members"})
		return
	}

	if targetID == userID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Cannot remove yourself from the team"})
		return
	}

	var membership models.TeamMember

	if err := db.DB.Where("team_id = ? AND user_id = ?", team.ID, targetID).First(&membership).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		} else {
			log.Printf("Failed to fetch membership: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	// Hard delete: a soft-deleted row would keep occupying the unique
	// (team_id, user_id) index and block the user from ever re-joining.
	if err := db.DB.Unscoped().Delete(&membership).Error; err != nil {
		log.Printf("Failed to remove member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// DeleteTeam removes the team and everything under it: memberships, tasks,
// and task attachments and comments. Attachment blobs are removed best-effort
// before the rows go.
func (h *AttachmentHandler) DeleteTeam(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	teamID, err := parseIDParam(ctx, "team_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid team id"})
		return
	}

	var team models.Team

	if err := db.DB.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team not found"})
		} else {
			log.Printf("Failed to fetch team: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	allowed, err := access.IsTeamAdminOrCreator(userID, team.ID)

	if err != nil {
		log.Printf("Failed to check admin role: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a team admin can delete the team"})
		return
	}

	var taskIDs []uint

	if err := db.DB.Model(&models.Task{}).Where("team_id = ?", team.ID).Pluck("id", &taskIDs).Error; err != nil {
		log.Printf("Failed to collect team tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if len(taskIDs) > 0 {
		var attachments []models.TaskAttachment

		if err := db.DB.Where("task_id IN ?", taskIDs).Find(&attachments).Error; err != nil {
			log.Printf("Failed to collect team attachments: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		for _, attachment := range attachments {
			if err := h.store.Remove(attachment.Filename); err != nil {
				log.Printf("Failed to remove blob %s: %v", attachment.Filename, err)
			}
		}
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskComment{}).Error; err != nil {
				return err
			}

			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskAttachment{}).Error; err != nil {
				return err
			}

			if err := tx.Where("team_id = ?", team.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		// Memberships are hard-deleted so the (team_id, user_id) unique
		// slots do not survive the team.
		if err := tx.Unscoped().Where("team_id = ?", team.ID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&team).Error
	})

	if err != nil {
		log.Printf("Failed to delete team: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func listMembers(teamID uint) ([]TeamMemberResponse, error) {
	var members []TeamMemberResponse

	err := db.DB.Model(&models.TeamMember{}).
		Select("users.id, users.name, users.email, team_members.role").
		Joins("JOIN users ON users.id = team_members.user_id").
		Where("team_members.team_id = ?", teamID).
		Order("team_members.created_at ASC").
		Scan(&members).Error

	if err != nil {
		return nil, err
	}

	if members == nil {
		members = []TeamMemberResponse{}
	}

	return members, nil
}

func taskCounts(teamID uint) (types.TaskCounts, error) {
	var rows []struct {
		Status string
		Count  int64
	}

	err := db.DB.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("team_id = ?", teamID).
		Group("status").
		Scan(&rows).Error

	if err != nil {
		return types.TaskCounts{}, err
	}

	var counts types.TaskCounts

	for _, row := range rows {
		switch row.Status {
		case types.StatusTodo:
			counts.Todo = row.Count
		case types.StatusInProgress:
			counts.InProgress = row.Count
		case types.StatusDone:
			counts.Done = row.Count
		}
	}

	return counts, nil
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)

	if err != nil {
		return 0, err
	}

	return uint(id), nil
}
