package controllers

import (
	"net/http"
	"strings"

	"journal-management-api/models"
	"journal-management-api/services"
	"journal-management-api/utils"

	"github.com/gin-gonic/gin"
)

// RecordDecision applies an editor's accept/reject/revision verdict. The
// manuscript transition and the appended decision record stand or fall
// together; deciding on a manuscript that already left review is rejected
// with its current state named.
func RecordDecision(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	decision := models.DecisionValue(strings.ToLower(strings.TrimSpace(req.Decision)))
	if _, ok := decision.TargetStatus(); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be 'accept', 'reject' or 'revision'"})
		return
	}

	editorID, exists := getCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var comments *string
	if cleaned := utils.SanitizeInput(req.Comments); cleaned != "" {
		comments = &cleaned
	}

	svc := services.NewDecisionService(nil)
	record, err := svc.Decide(c.Request.Context(), manuscriptID, editorID, decision, comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	entityID := manuscriptID
	writeAudit(c, editorID, "decision", "manuscript", &entityID,
		"Editorial decision recorded", map[string]interface{}{"decision": decision})

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"decision": record,
	})
}

// GetManuscriptDecisions returns the manuscript's decision history in order.
func GetManuscriptDecisions(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewDecisionService(nil)
	decisions, err := svc.ListForManuscript(c.Request.Context(), manuscriptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"decisions": decisions,
		"total":     len(decisions),
	})
}
