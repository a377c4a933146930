package routes

import (
	"journal-management-api/controllers"
	"journal-management-api/middleware"
	"journal-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Journal Management API is running",
				})
			})

			// Tokenized respond link from invitation emails
			public.POST("/invitations/token/:token/respond", controllers.RespondInvitationByToken)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Manuscripts
			manuscripts := protected.Group("/manuscripts")
			{
				manuscripts.GET("", controllers.GetManuscripts)
				manuscripts.GET("/:id", controllers.GetManuscript)
				manuscripts.GET("/:id/invitations", controllers.GetManuscriptInvitations)
				manuscripts.GET("/:id/decisions", controllers.GetManuscriptDecisions)

				// Authors and editorial staff may withdraw
				manuscripts.POST("/:id/withdraw", controllers.WithdrawManuscript)

				// Editorial staff only
				manuscripts.POST("/:id/status",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.UpdateManuscriptStatus)
				manuscripts.POST("/:id/reviewers",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.AssignReviewer)
				manuscripts.POST("/:id/decision",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.RecordDecision)
			}

			// Reviewer invitations
			invitations := protected.Group("/invitations")
			{
				invitations.GET("/overdue",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.GetOverdueInvitations)
				invitations.POST("/:id/respond",
					middleware.RequireRole(models.RoleReviewer),
					controllers.RespondInvitation)
				invitations.POST("/:id/complete",
					middleware.RequireRole(models.RoleReviewer),
					controllers.CompleteInvitation)
			}

			// Deadline automation
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleEditor, models.RoleAdmin))
			{
				admin.POST("/deadline-sweep", controllers.RunDeadlineSweep)
				admin.GET("/deadline-sweep/runs", controllers.GetDeadlineSweepRuns)
			}

			// In-app notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}
		}
	}
}
