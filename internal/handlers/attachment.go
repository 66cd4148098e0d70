package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taskcrew-dev/taskcrew/db"
	"github.com/taskcrew-dev/taskcrew/internal/access"
	"github.com/taskcrew-dev/taskcrew/internal/models"
	"github.com/taskcrew-dev/taskcrew/internal/storage"
	"github.com/taskcrew-dev/taskcrew/internal/utils"
)

type AttachmentResponse struct {
	ID           uint      `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	TaskID       uint      `json:"taskId"`
	UploadedBy   uint      `json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toAttachmentResponse(attachment *models.TaskAttachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           attachment.ID,
		Filename:     attachment.Filename,
		OriginalName: attachment.OriginalName,
		MimeType:     attachment.MimeType,
		Size:         attachment.Size,
		Path:         attachment.Path,
		TaskID:       attachment.TaskID,
		UploadedBy:   attachment.UploadedBy,
		CreatedAt:    attachment.CreatedAt,
	}
}

// AttachmentHandler carries the upload store built from config. It also owns
// the delete paths that must clean up blobs (task and team deletion).
type AttachmentHandler struct {
	store *storage.Store
}

func NewAttachmentHandler(store *storage.Store) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

func (h *AttachmentHandler) Upload(ctx *gin.Context) {
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
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to upload files"})
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	stored, err := h.store.Save(file)

	if err != nil {
		switch {
		case errors.Is(err, storage.ErrFileType):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		case errors.Is(err, storage.ErrTooLarge):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the size limit"})
		default:
			log.Printf("Failed to store upload: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	attachment := models.TaskAttachment{
		Filename:     stored.Filename,
		OriginalName: file.Filename,
		MimeType:     stored.MimeType,
		Size:         stored.Size,
		Path:         stored.Path,
		TaskID:       task.ID,
		UploadedBy:   userID,
	}

	if err := db.DB.Create(&attachment).Error; err != nil {
		log.Printf("Failed to create attachment: %v", err)

		if removeErr := h.store.Remove(stored.Filename); removeErr != nil {
			log.Printf("Failed to remove orphaned blob %s: %v", stored.Filename, removeErr)
		}

		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"attachment": toAttachmentResponse(&attachment)})
}

func (h *AttachmentHandler) List(ctx *gin.Context) {
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

	response := make([]AttachmentResponse, 0, len(task.Attachments))

	for i := range task.Attachments {
		response = append(response, toAttachmentResponse(&task.Attachments[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"attachments": response})
}

// Delete removes the blob first (best-effort), then the metadata row.
func (h *AttachmentHandler) Delete(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	attachmentID, err := parseIDParam(ctx, "attachment_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attachment id"})
		return
	}

	var attachment models.TaskAttachment

	if err := db.DB.First(&attachment, attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Attachment not found"})
		} else {
			log.Printf("Failed to fetch attachment: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var task models.Task

	if err := db.DB.First(&task, attachment.TaskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			log.Printf("Failed to fetch task: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	allowed, err := access.CanDeleteAttachment(userID, &attachment, &task)

	if err != nil {
		log.Printf("Failed to check attachment access: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this attachment"})
		return
	}

	if err := h.store.Remove(attachment.Filename); err != nil {
		log.Printf("Failed to remove blob %s: %v", attachment.Filename, err)
	}

	if err := db.DB.Delete(&attachment).Error; err != nil {
		log.Printf("Failed to delete attachment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
