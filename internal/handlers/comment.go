package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/access"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/utils"
)

type AddCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	TaskID    uint      `json:"taskId"`
	UserID    uint      `json:"userId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCommentResponse(comment *models.TaskComment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		UserID:    comment.UserID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

func AddComment(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req AddCommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Comment required"})
		return
	}

	task, ok := loadTask(ctx, "task_id")

	if !ok {
		return
	}

	allowed, err := access.CanComment(userID, task)

	if err != nil {
		log.Printf("Failed to check comment access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member"})
		return
	}

	comment := models.TaskComment{
		TaskID: task.ID,
		UserID: userID,
		Body:   req.Body,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		log.Printf("Failed to create comment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"comment": toCommentResponse(&comment)})
}

func ListComments(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, ok := loadTask(ctx, "task_id")

	if !ok {
		return
	}

	allowed, err := access.CanComment(userID, task)

	if err != nil {
		log.Printf("Failed to check comment access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member"})
		return
	}

	var comments []models.TaskComment

	if err := db.DB.Where("task_id = ?", task.ID).Order("created_at ASC").Find(&comments).Error; err != nil {
		log.Printf("Failed to list comments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]CommentResponse, 0, len(comments))

	for i := range comments {
		response = append(response, toCommentResponse(&comments[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"comments": response})
}
