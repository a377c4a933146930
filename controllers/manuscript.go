package controllers

import (
	"net/http"
	"strings"

	"journal-management-api/config"
	"journal-management-api/models"
	"journal-management-api/services"
	"journal-management-api/utils"

	"github.com/gin-gonic/gin"
)

// GetManuscripts lists manuscripts, optionally filtered by status.
func GetManuscripts(c *gin.Context) {
	statusFilter := models.ManuscriptStatus(strings.TrimSpace(c.Query("status")))
	if statusFilter != "" && !statusFilter.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}

	query := config.DB.Preload("Author")
	if statusFilter != "" {
		query = query.Where("status = ?", statusFilter)
	}

	var manuscripts []models.Manuscript
	if err := query.Order("manuscript_id ASC").Find(&manuscripts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch manuscripts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"manuscripts": manuscripts,
		"total":       len(manuscripts),
	})
}

// GetManuscript returns a single manuscript with its status history.
func GetManuscript(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var manuscript models.Manuscript
	if err := config.DB.Preload("Author").
		Where("manuscript_id = ?", manuscriptID).
		First(&manuscript).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Manuscript not found"})
		return
	}

	var history []models.ManuscriptStatusHistory
	if err := config.DB.Where("manuscript_id = ?", manuscriptID).
		Order("created_at ASC").
		Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch status history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"manuscript": manuscript,
		"history":    history,
	})
}

// UpdateManuscriptStatus applies an intake transition (submitted,
// technical_check, under_review, revision cycling, published) requested by
// editorial staff. Decisions have their own endpoint.
func UpdateManuscriptStatus(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	target := models.ManuscriptStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !target.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown manuscript status"})
		return
	}
	if target == models.StatusWithdrawn {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use the withdraw endpoint for withdrawals"})
		return
	}

	userID, exists := getCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewManuscriptStateService(nil)
	manuscript, err := svc.Transition(c.Request.Context(), manuscriptID, target, userID,
		utils.SanitizeInput(req.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	entityID := manuscriptID
	writeAudit(c, userID, "status_change", "manuscript", &entityID,
		"Manuscript status updated", map[string]interface{}{"status": target})

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"manuscript": manuscript,
	})
}

// WithdrawManuscript withdraws a manuscript and cascades the withdrawal to
// every live reviewer invitation it holds.
func WithdrawManuscript(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for withdrawals.
	_ = c.ShouldBindJSON(&req)

	userID, exists := getCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewManuscriptStateService(nil)
	manuscript, withdrawn, err := svc.Withdraw(c.Request.Context(), manuscriptID, userID,
		utils.SanitizeInput(req.Reason))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	entityID := manuscriptID
	writeAudit(c, userID, "withdraw", "manuscript", &entityID,
		"Manuscript withdrawn", map[string]interface{}{"withdrawn_invitations": len(withdrawn)})

	createNotification(manuscript.AuthorID, "Manuscript withdrawn",
		"Your manuscript '"+manuscript.Title+"' has been withdrawn.", "warning", &entityID)

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"manuscript":            manuscript,
		"withdrawn_invitations": withdrawn,
	})
}
