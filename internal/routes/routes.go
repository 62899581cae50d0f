// Package routes wires handlers onto the gin engine.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/access"
	"homecare-app-server/internal/cache"
	"homecare-app-server/internal/carenotes"
	"homecare-app-server/internal/config"
	"homecare-app-server/internal/handlers"
	"homecare-app-server/internal/middleware"
	"homecare-app-server/internal/models"
	"homecare-app-server/internal/notify"
	"homecare-app-server/internal/settings"
	"homecare-app-server/internal/store"
	"homecare-app-server/internal/workflow"
)

// Deps is everything SetupRoutes needs to build the handlers.
type Deps struct {
	Config *config.Config
	Store  *store.Store
	Cache  cache.Cache
	Logger *zap.Logger
	// Ready reports whether backing services answer. Nil means always ready.
	Ready func() error
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, d Deps) {
	cfg, st, log := d.Config, d.Store, d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	notifier := notify.New(st, log.Named("notify"))
	notes := carenotes.NewWriter(st)
	engineDeps := workflow.Deps{
		Store:     st,
		Access:    access.NewChecker(st),
		Notifier:  notifier,
		CareNotes: notes,
		Settings:  settings.NewReader(st),
		Logger:    log.Named("workflow"),
	}

	authHandler := handlers.NewAuthHandler(st, cfg, log)
	userHandler := handlers.NewUserHandler(st, log)
	adminHandler := handlers.NewAdminHandler(st, log)
	requestHandler := handlers.NewServiceRequestHandler(workflow.NewServiceRequests(engineDeps), log)
	scheduleHandler := handlers.NewScheduleHandler(workflow.NewSchedules(engineDeps), log)
	notificationHandler := handlers.NewNotificationHandler(notifier, log)
	careNoteHandler := handlers.NewCareNoteHandler(st, notes, log)
	applicationHandler := handlers.NewApplicationHandler(st, d.Cache, cfg.Cache.ApplicationsTTL, log)
	reviewHandler := handlers.NewReviewHandler(st, d.Cache, cfg.Cache.ReviewsTTL, log)
	pricingHandler := handlers.NewPricingHandler(st, d.Cache, cfg.Cache.PricingTTL, log)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
			authRoutes.POST("/logout", authHandler.Logout)
		}
		public.POST("/applications", applicationHandler.CreateApplication)
		public.GET("/reviews", reviewHandler.GetReviews)
		public.GET("/pricing", pricingHandler.GetPricing)
		public.POST("/pricing/quote", pricingHandler.Quote)
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Role rules beyond these live in the workflow engines.
		requestRoutes := private.Group("/service-requests")
		{
			requestRoutes.POST("", requestHandler.CreateServiceRequest)
			requestRoutes.GET("", requestHandler.GetServiceRequests)
			requestRoutes.GET("/:id", requestHandler.GetServiceRequest)
			requestRoutes.PATCH("/:id", requestHandler.UpdateServiceRequest)
			requestRoutes.DELETE("/:id", requestHandler.DeleteServiceRequest)
		}

		scheduleRoutes := private.Group("/caregiver-schedules")
		{
			scheduleRoutes.POST("", scheduleHandler.CreateSchedule)
			scheduleRoutes.GET("", scheduleHandler.GetSchedules)
			scheduleRoutes.GET("/:id", scheduleHandler.GetSchedule)
			scheduleRoutes.PATCH("/:id", scheduleHandler.UpdateSchedule)
			scheduleRoutes.DELETE("/:id", scheduleHandler.DeleteSchedule)
		}

		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.GetUnreadCount)
			notificationRoutes.GET("/new", notificationHandler.GetNewNotifications)
			notificationRoutes.PATCH("/read-all", notificationHandler.MarkAllRead)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkRead)
		}

		private.GET("/patients/:id/care-notes", careNoteHandler.GetCareNotes)
		private.POST("/patients/:id/care-notes", careNoteHandler.CreateCareNote)

		private.POST("/reviews", middleware.RoleAuthMiddleware(models.RolePatient), reviewHandler.CreateReview)

		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSuperAdmin))
		{
			userRoutes := adminRoutes.Group("/users")
			{
				userRoutes.POST("", userHandler.CreateUser)
				userRoutes.GET("", userHandler.GetUsers)
				userRoutes.GET("/:id", userHandler.GetUserByID)
				userRoutes.PUT("/:id", userHandler.UpdateUser)
				userRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
			adminRoutes.POST("/patients", adminHandler.CreatePatient)
			adminRoutes.GET("/patients", adminHandler.GetPatients)
			adminRoutes.POST("/assignments/caregiver", adminHandler.AssignCaregiver)
			adminRoutes.POST("/assignments/reviewer", adminHandler.AssignReviewer)
			adminRoutes.GET("/settings", adminHandler.GetSettings)
			adminRoutes.PUT("/settings/:key", adminHandler.UpdateSetting)
			adminRoutes.GET("/applications", applicationHandler.GetApplications)
			adminRoutes.PATCH("/applications/:id", applicationHandler.UpdateApplication)
			adminRoutes.PATCH("/reviews/:id", reviewHandler.ModerateReview)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "UP"})
	})
}
