package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/repository"
	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

func getCurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// respondServiceError translates engine errors into HTTP responses that name
// the violated rule instead of a generic failure.
func respondServiceError(c *gin.Context, err error) {
	var invalid *services.InvalidStateTransitionError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusConflict, gin.H{
			"error":          invalid.Error(),
			"current_status": invalid.From,
		})
	case errors.Is(err, services.ErrDuplicateInvitation),
		errors.Is(err, services.ErrManuscriptNotReviewable),
		errors.Is(err, services.ErrInvitationNotAccepted),
		errors.Is(err, services.ErrPersistenceConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvitationNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": "This invitation is no longer active"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// writeAudit records who did what; failures are logged, never surfaced.
func writeAudit(c *gin.Context, userID uint, action, entityType string, entityID *uint, description string, values interface{}) {
	audit := models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  c.ClientIP(),
		CreatedAt:  time.Now(),
	}
	if description != "" {
		audit.Description = &description
	}
	if values != nil {
		if serialized, err := json.Marshal(values); err == nil {
			payload := string(serialized)
			audit.NewValues = &payload
		}
	}
	if userAgent := strings.TrimSpace(c.GetHeader("User-Agent")); userAgent != "" {
		audit.UserAgent = &userAgent
	}
	if err := config.DB.Create(&audit).Error; err != nil {
		log.Printf("failed to write audit log: %v", err)
	}
}

// createNotification drops an in-app notification row; best-effort.
func createNotification(userID uint, title, message, notificationType string, manuscriptID *uint) {
	notification := models.Notification{
		UserID:              userID,
		Title:               title,
		Message:             message,
		Type:                notificationType,
		RelatedManuscriptID: manuscriptID,
		IsRead:              false,
		CreateAt:            time.Now(),
	}
	if err := config.DB.Create(&notification).Error; err != nil {
		log.Printf("failed to create notification for user %d: %v", userID, err)
	}
}
