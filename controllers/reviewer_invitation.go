package controllers

import (
	"net/http"
	"strings"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// AssignReviewer invites a reviewer to the manuscript. The engine enforces
// that the manuscript is reviewable and that the reviewer holds no live
// invitation for it.
func AssignReviewer(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ReviewerID uint `json:"reviewer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	editorID, exists := getCurrentUserID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewInvitationService(nil)
	invitation, err := svc.Invite(c.Request.Context(), manuscriptID, req.ReviewerID, editorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	entityID := invitation.InvitationID
	writeAudit(c, editorID, "assign_reviewer", "reviewer_invitation", &entityID,
		"Reviewer invited", map[string]interface{}{
			"manuscript_id": manuscriptID,
			"reviewer_id":   req.ReviewerID,
		})

	createNotification(req.ReviewerID, "New review invitation",
		"You have been invited to review a manuscript.", "info", &manuscriptID)

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"invitation": invitation,
	})
}

func bindResponseDecision(c *gin.Context) (accept bool, ok bool) {
	var req struct {
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(req.Decision)) {
	case "accept":
		return true, true
	case "decline":
		return false, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be either 'accept' or 'decline'"})
		return false, false
	}
}

// RespondInvitation records the reviewer's accept/decline for an invitation
// addressed by id.
func RespondInvitation(c *gin.Context) {
	invitationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	accept, ok := bindResponseDecision(c)
	if !ok {
		return
	}

	svc := services.NewInvitationService(nil)
	invitation, err := svc.Respond(c.Request.Context(), invitationID, accept)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"invitation": invitation,
	})
}

// RespondInvitationByToken records a response via the tokenized link embedded
// in the invitation email.
func RespondInvitationByToken(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token"})
		return
	}

	accept, ok := bindResponseDecision(c)
	if !ok {
		return
	}

	svc := services.NewInvitationService(nil)
	invitation, err := svc.RespondByToken(c.Request.Context(), token, accept)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"invitation": invitation,
	})
}

// CompleteInvitation marks an accepted invitation's review as submitted.
func CompleteInvitation(c *gin.Context) {
	invitationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewInvitationService(nil)
	invitation, err := svc.Complete(c.Request.Context(), invitationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	createNotification(invitation.InvitedBy, "Review completed",
		"A reviewer has completed their review.", "success", &invitation.ManuscriptID)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"invitation": invitation,
	})
}

// GetManuscriptInvitations lists every invitation of a manuscript, terminal
// ones included.
func GetManuscriptInvitations(c *gin.Context) {
	manuscriptID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	svc := services.NewInvitationService(nil)
	invitations, err := svc.ListForManuscript(c.Request.Context(), manuscriptID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"invitations": invitations,
		"total":       len(invitations),
	})
}

// GetOverdueInvitations lists accepted invitations whose review deadline has
// passed, for the editor dashboard.
func GetOverdueInvitations(c *gin.Context) {
	svc := services.NewInvitationService(nil)
	invitations, err := svc.ListOverdue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"invitations": invitations,
		"total":       len(invitations),
	})
}
