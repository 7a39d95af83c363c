// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/artcurio/curio-backend/internal/config"
	"github.com/artcurio/curio-backend/internal/handlers"
	"github.com/artcurio/curio-backend/internal/middleware"
	"github.com/artcurio/curio-backend/internal/registry"
	"github.com/artcurio/curio-backend/internal/services"
	"github.com/artcurio/curio-backend/internal/utils"
)

// Dependencies carries everything the HTTP layer needs. The registry is
// built and replayed in main before the router exists, so it is
// injected rather than constructed here.
type Dependencies struct {
	DB         *gorm.DB
	Config     *config.Config
	Registry   *registry.Registry
	Payments   *services.PaymentService
	Projection *services.ProjectionService
	Storage    *services.StorageService
}

func Initialize(deps Dependencies) *gin.Engine {
	authService := services.NewAuthService(deps.DB, deps.Config)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	galleryHandler := handlers.NewGalleryHandler(deps.Registry, deps.DB)
	artworkHandler := handlers.NewArtworkHandler(deps.Registry, deps.DB, deps.Storage)
	adminHandler := handlers.NewAdminHandler(deps.Registry, deps.Payments, deps.Projection)
	eventsHandler := handlers.NewEventsHandler(deps.Registry)

	// Set JWT secret
	utils.SetJWTSecret(deps.Config.JWT.SecretKey)

	limits := middleware.NewLimits(deps.Config.RateLimit)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(limits.General())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Gallery routes
		galleries := v1.Group("/galleries")
		{
			galleries.GET("", galleryHandler.ListGalleries)
			galleries.GET("/:key", galleryHandler.GetGallery)
			galleries.GET("/:key/artworks", galleryHandler.ListGalleryArtworks)
			galleries.GET("/curator/:id", galleryHandler.ListGalleriesByCurator)

			protected := galleries.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", galleryHandler.CreateGallery)
				protected.GET("/mine/curated", galleryHandler.ListCuratorGalleries)
			}
		}

		// Artwork routes
		artworks := v1.Group("/artworks")
		{
			artworks.GET("", middleware.OptionalAuth(), artworkHandler.ListCatalog)
			artworks.GET("/:id", artworkHandler.GetArtwork)
			artworks.GET("/:id/reviews", artworkHandler.ListReviews)
			artworks.GET("/owner/:id", artworkHandler.ListByOwner)

			protected := artworks.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", artworkHandler.CreateArtwork)
				protected.PUT("/:id/price", artworkHandler.UpdatePrice)
				protected.POST("/:id/purchase", limits.Purchase(), artworkHandler.Purchase)
				protected.POST("/:id/reviews", artworkHandler.AddReview)
				protected.GET("/mine/owned", artworkHandler.ListOwned)
				protected.POST("/upload", limits.Upload(), artworkHandler.UploadContent)
				protected.GET("/content/*key", artworkHandler.ContentURL)
			}
		}

		// Activity feed (public, poll with ?after=<seq>)
		events := v1.Group("/events")
		{
			events.GET("", eventsHandler.ListEvents)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/fee-rate", adminHandler.GetFeeRate)
			admin.PUT("/fee-rate", adminHandler.UpdateFeeRate)
			admin.GET("/transfers", adminHandler.GetTransferHistory)
			admin.POST("/read-models/rebuild", adminHandler.RebuildReadModels)
		}
	}

	// Static file serving (for development)
	if deps.Config.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
