package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/access"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/types"
	"github.com/taskcrew-dev/taskcrew/internal/utils"
)

type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	TeamID      *uint      `json:"teamId"`
	AssigneeID  *uint      `json:"assigneeId"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	AssigneeID  *uint      `json:"assigneeId"`
}

type TaskResponse struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      string               `json:"status"`
	Priority    string               `json:"priority"`
	DueDate     *time.Time           `json:"dueDate"`
	TeamID      *uint                `json:"teamId"`
	UserID      *uint                `json:"userId"`
	AssigneeID  *uint                `json:"assigneeId"`
	CreatedBy   uint                 `json:"createdBy"`
	Attachments []AttachmentResponse `json:"attachments"`
}

func toTaskResponse(task *models.Task) TaskResponse {
	attachments := make([]AttachmentResponse, 0, len(task.Attachments))

	for i := range task.Attachments {
		attachments = append(attachments, toAttachmentResponse(&task.Attachments[i]))
	}

	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		TeamID:      task.TeamID,
		UserID:      task.UserID,
		AssigneeID:  task.AssigneeID,
		CreatedBy:   task.CreatedBy,
		Attachments: attachments,
	}
}

func CreateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": utils.BindingErrorMessage(err)})
		return
	}

	if req.Status != "" && !types.ValidStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if req.Priority != "" && !types.ValidPriority(req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	var task models.Task

	if req.TeamID != nil {
		var team models.Team

		if err := db.DB.First(&team, *req.TeamID).Error; err != nil {
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

		if req.AssigneeID != nil {
			eligible, err := access.CanAssign(*req.AssigneeID, team.ID)

			if err != nil {
				log.Printf("Failed to check assignee: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			if !eligible {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee must be a team member"})
				return
			}
		}

		task = models.NewTeamTask(team.ID, userID, req.Title)
		task.AssigneeID = req.AssigneeID
	} else {
		if req.AssigneeID != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee requires a team"})
			return
		}

		task = models.NewPersonalTask(userID, req.Title)
	}

	task.Description = req.Description
	task.DueDate = req.DueDate

	if req.Status != "" {
		task.Status = req.Status
	}

	if req.Priority != "" {
		task.Priority = req.Priority
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"task": toTaskResponse(&task)})
}

// ListTasks returns team tasks when teamId is supplied (membership required),
// otherwise the caller's personal tasks.
func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	status := ctx.Query("status")

	if status != "" && !types.ValidStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	query := db.DB.Preload("Attachments")

	if teamIDStr := ctx.Query("teamId"); teamIDStr != "" {
		teamID, err := parseQueryID(teamIDStr)

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
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view team tasks"})
			return
		}

		query = query.Where("team_id = ?", team.ID)
	} else {
		query = query.Where("user_id = ? AND team_id IS NULL", userID)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	var tasks []models.Task

	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		log.Printf("Failed to list tasks: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for i := range tasks {
		response = append(response, toTaskResponse(&tasks[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": response})
}

func GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, ok := loadTask(ctx, "task_id")

	if !ok {
		return
	}

	allowed, err := access.CanReadTask(userID, task)

	if err != nil {
		log.Printf("Failed to check task access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to view this task"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, ok := loadTask(ctx, "task_id")

	if !ok {
		return
	}

	allowed, err := access.CanMutateTask(userID, task)

	if err != nil {
		log.Printf("Failed to check task access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this task"})
		return
	}

	var req UpdateTaskRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": utils.BindingErrorMessage(err)})
		return
	}

	updates := make(map[string]interface{})

	if req.Title != nil {
		if *req.Title == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Title must not be empty"})
			return
		}
		updates["title"] = *req.Title
	}

	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if req.Status != nil {
		if !types.ValidStatus(*req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		updates["status"] = *req.Status
	}

	if req.Priority != nil {
		if !types.ValidPriority(*req.Priority) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
			return
		}
		updates["priority"] = *req.Priority
	}

	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	if req.AssigneeID != nil {
		if task.IsPersonal() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee requires a team"})
			return
		}

		eligible, err := access.CanAssign(*req.AssigneeID, *task.TeamID)

		if err != nil {
			log.Printf("Failed to check assignee: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !eligible {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee must be a team member"})
			return
		}

		updates["assignee_id"] = *req.AssigneeID
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(task).Updates(updates).Error; err != nil {
		log.Printf("Failed to update task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Preload("Attachments").First(task, task.ID).Error; err != nil {
		log.Printf("Failed to refresh task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"task": toTaskResponse(task)})
}

// DeleteTask removes the task together with its comments and attachments.
// Blob removal happens first, best-effort, so metadata never outlives the
// deletion attempt.
func (h *AttachmentHandler) DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, ok := loadTask(ctx, "task_id")

	if !ok {
		return
	}

	allowed, err := access.CanDeleteTask(userID, task)

	if err != nil {
		log.Printf("Failed to check task access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You don't have the privileges to delete tasks"})
		return
	}

	for _, attachment := range task.Attachments {
		if err := h.store.Remove(attachment.Filename); err != nil {
			log.Printf("Failed to remove blob %s: %v", attachment.Filename, err)
		}
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskComment{}).Error; err != nil {
			return err
		}

		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}

		return tx.Delete(task).Error
	})

	if err != nil {
		log.Printf("Failed to delete task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// loadTask fetches the task (with attachments) or writes the error response
// and reports false.
func loadTask(ctx *gin.Context, param string) (*models.Task, bool) {
	taskID, err := parseIDParam(ctx, param)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return nil, false
	}

	var task models.Task

	if err := db.DB.Preload("Attachments").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to fetch task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, false
	}

	return &task, true
}

func parseQueryID(value string) (uint, error) {
	id, err := strconv.ParseUint(value, 10, 64)

	if err != nil {
		return 0, err
	}

	return uint(id), nil
}
