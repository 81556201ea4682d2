package routes

import (
	"tour-marketplace-api/controllers"
	"tour-marketplace-api/middleware"
	"tour-marketplace-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			public.POST("/login", controllers.Login)

			// Catalog read model: approved tours with a live version
			public.GET("/tours/published", controllers.GetPublishedTours)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Tour Marketplace API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			protected.GET("/profile", controllers.GetProfile)

			// Tours
			tours := protected.Group("/tours")
			{
				tours.GET("", controllers.GetMyTours)
				tours.GET("/:id", controllers.GetTour)

				// Only creators draft tours and versions
				tours.POST("", middleware.RequireRole(models.RoleCreator), controllers.CreateTour)
				tours.POST("/:id/versions", middleware.RequireRole(models.RoleCreator), controllers.CreateTourVersion)
			}

			// Publishing submissions
			submissions := protected.Group("/submissions")
			{
				submissions.GET("", controllers.ListSubmissions)
				submissions.GET("/:id", controllers.GetSubmission)

				submissions.POST("", middleware.RequireRole(models.RoleCreator), controllers.CreateSubmission)

				// The only sanctioned status write; the lifecycle manager
				// authorizes the pair per requester role
				submissions.POST("/:id/transition", controllers.TransitionSubmission)

				// Review feedback
				submissions.POST("/:id/feedback",
					middleware.RequireRole(models.RoleReviewer, models.RoleAdmin),
					controllers.AddFeedback)
				submissions.PATCH("/:id/feedback/:feedbackId/resolve", controllers.ResolveFeedback)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// Admin surfaces
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/reconciliation/divergences", controllers.GetDivergences)
				admin.GET("/audit-logs", controllers.ListAuditLogs)
			}
		}
	}
}
