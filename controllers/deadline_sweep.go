package controllers

import (
	"net/http"
	"strconv"

	"journal-management-api/services"

	"github.com/gin-gonic/gin"
)

// RunDeadlineSweep triggers one deadline automation sweep. The scheduler has
// no clock of its own; a cron-style caller (or an admin) hits this endpoint,
// or runs the deadline-sweep binary.
func RunDeadlineSweep(c *gin.Context) {
	svc := services.NewDeadlineSweepJobService(nil)

	summary, err := svc.Run(c.Request.Context(), "api")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"summary": summary,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}

// GetDeadlineSweepRuns lists recent sweep executions, newest first.
func GetDeadlineSweepRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	svc := services.NewDeadlineSweepRunService(nil)
	runs, err := svc.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sweep runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    runs,
		"total":   len(runs),
	})
}
