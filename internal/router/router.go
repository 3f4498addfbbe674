package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/neighborly-backend/config"
	"github.com/ikkim/neighborly-backend/internal/app/controller"
	"github.com/ikkim/neighborly-backend/internal/app/model"
	"github.com/ikkim/neighborly-backend/internal/metrics"
	"github.com/ikkim/neighborly-backend/internal/middleware"
)

type Router struct {
	authController       *controller.AuthController
	businessController   *controller.BusinessController
	reviewController     *controller.ReviewController
	moderationController *controller.ModerationController
	uploadController     *controller.UploadController
	authMiddleware       *middleware.AuthMiddleware
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	businessController *controller.BusinessController,
	reviewController *controller.ReviewController,
	moderationController *controller.ModerationController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		businessController:   businessController,
		reviewController:     reviewController,
		moderationController: moderationController,
		uploadController:     uploadController,
		authMiddleware:       authMiddleware,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(metrics.Middleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Neighborly API is running",
		})
	})
	router.GET("/metrics", metrics.Handler())

	authenticated := r.authMiddleware.Authenticate()
	moderatorsOnly := r.authMiddleware.RequireRole(model.RoleModerator, model.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", authenticated, r.authController.Logout)
			auth.GET("/me", authenticated, r.authController.GetMe)
		}

		businesses := v1.Group("/businesses")
		{
			businesses.GET("", r.businessController.ListBusinesses)
			businesses.GET("/:id", r.businessController.GetBusiness)
			businesses.POST("", authenticated,
				r.authMiddleware.RequireRole(model.RoleOwner, model.RoleAdmin),
				r.businessController.CreateBusiness)
			businesses.PUT("/:id", authenticated,
				r.authMiddleware.RequireRole(model.RoleOwner, model.RoleAdmin),
				r.businessController.UpdateBusiness)

			businesses.GET("/:id/reviews", r.reviewController.ListBusinessReviews)
			businesses.GET("/:id/reviews/summary", r.reviewController.GetBusinessSummary)
			businesses.POST("/:id/reviews", authenticated, r.reviewController.SubmitReview)
		}

		reviews := v1.Group("/reviews")
		{
			reviews.GET("/:id", r.authMiddleware.OptionalAuthenticate(), r.reviewController.GetReview)
			reviews.POST("/:id/votes", authenticated, r.reviewController.Vote)
			reviews.POST("/:id/reports", authenticated, r.reviewController.Report)
			reviews.PUT("/:id/response", authenticated, r.reviewController.Respond)
		}

		users := v1.Group("/users")
		users.Use(authenticated)
		{
			users.GET("/me/reviews", r.reviewController.ListMyReviews)
		}

		uploads := v1.Group("/uploads")
		uploads.Use(authenticated)
		{
			uploads.POST("/review-photos", r.uploadController.PresignReviewPhoto)
		}

		admin := v1.Group("/admin")
		admin.Use(authenticated, moderatorsOnly)
		{
			admin.GET("/reviews", r.moderationController.ListQueue)
			admin.POST("/reviews/:id/moderate", r.moderationController.Moderate)
			admin.GET("/reviews/:id/history", r.moderationController.History)
			admin.GET("/businesses/:id/reviews/summary", r.moderationController.Summary)
			admin.GET("/businesses/:id/reviews/export", r.moderationController.Export)
			admin.GET("/moderation/ws", r.moderationController.Feed)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
