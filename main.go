package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rockflint-backend/config"
	"rockflint-backend/database"
	"rockflint-backend/internal/api"
	"rockflint-backend/internal/middleware"
	"rockflint-backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	// Run database migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowedOrigin := ""
		if cfg.AllowAllOrigins {
			allowedOrigin = "*"
		} else if origin != "" {
			for _, allowed := range cfg.AllowedOrigins {
				if origin == allowed {
					allowedOrigin = origin
					break
				}
			}
		}

		if allowedOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowedOrigin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Security middleware
	securityConfig := &middleware.SecurityConfig{
		MaxRequestSize:    cfg.MaxRequestSize,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   time.Duration(cfg.RateLimitWindow) * time.Second,
	}
	router.Use(middleware.SecurityMiddleware(securityConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Rockflint API is running",
		})
	})

	// Initialize services
	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpiration)
	userService := services.NewUserService(db)
	userService.AddRegistrationHook(services.NewProfileSyncHook(db))
	eventService := services.NewEventService()
	authMiddleware := middleware.NewAuthMiddleware(authService, userService)

	// Initialize handlers
	authHandlers := api.NewAuthHandlers(userService, authService)

	// Database middleware to inject db into context
	dbMiddleware := func(c *gin.Context) {
		c.Set("db", db)
		c.Set("events", eventService)
		c.Set("defaultPageSize", cfg.DefaultPageSize)
		c.Set("maxPageSize", cfg.MaxPageSize)
		c.Next()
	}

	// API routes
	apiGroup := router.Group("/api/v1")
	apiGroup.Use(dbMiddleware)
	{
		// Authentication routes with stricter rate limiting
		auth := apiGroup.Group("/auth")
		auth.Use(middleware.AuthRateLimitMiddleware())
		{
			auth.POST("/register", authHandlers.Register)
			auth.POST("/login", authHandlers.Login)
			auth.GET("/me", authMiddleware.AuthRequired(), authHandlers.Me)
		}

		// Listing discovery and detail, anonymous allowed
		listings := apiGroup.Group("/listings")
		listings.Use(authMiddleware.OptionalAuth())
		{
			listings.GET("", api.SearchListings)
			listings.GET("/:id", api.GetListing)
			listings.GET("/:id/recommendations", api.GetRecommendations)
			listings.GET("/:id/reviews", api.GetListingReviews)
		}

		// Listing mutations, authentication required; the vendor-only routes
		// also carry the vendor gate so non-vendors are cut off at the edge
		listingsAuth := apiGroup.Group("/listings")
		listingsAuth.Use(authMiddleware.AuthRequired())
		{
			listingsAuth.POST("", authMiddleware.VendorRequired(), api.CreateListing)
			listingsAuth.PUT("/:id", authMiddleware.VendorRequired(), api.UpdateListing)
			listingsAuth.DELETE("/:id", authMiddleware.VendorRequired(), api.DeleteListing)
			listingsAuth.POST("/:id/reviews", api.CreateListingReview)
			listingsAuth.POST("/:id/favorite", api.ToggleFavorite)
			listingsAuth.POST("/:id/images", authMiddleware.VendorRequired(), api.AddListingImage)
		}

		// Image management by image id, vendor only
		images := apiGroup.Group("/images")
		images.Use(authMiddleware.AuthRequired(), authMiddleware.VendorRequired())
		{
			images.PUT("/:imageId/primary", api.SetPrimaryImage)
			images.DELETE("/:imageId", api.DeleteListingImage)
		}

		// Customer wishlist
		apiGroup.GET("/wishlist", authMiddleware.AuthRequired(), api.GetWishlist)

		// Lookup tables, reads are public
		apiGroup.GET("/categories", api.GetCategories)
		apiGroup.GET("/offers", api.GetOffers)
		apiGroup.GET("/states", api.GetStates)
		apiGroup.GET("/features", api.GetFeatures)

		// Lookup management, staff only
		admin := apiGroup.Group("/admin")
		admin.Use(authMiddleware.AuthRequired(), authMiddleware.StaffRequired())
		{
			admin.POST("/categories", api.CreateCategory)
			admin.POST("/offers", api.CreateOffer)
			admin.POST("/states", api.CreateState)
			admin.POST("/lgas", api.CreateLGA)
			admin.POST("/features", api.CreateFeature)
			admin.POST("/vendors", api.CreateVendor)
			admin.PUT("/vendors/:id/verify", api.VerifyVendor)
			admin.POST("/promotions", api.PromoteListing)
			admin.DELETE("/promotions/:id", api.DeactivatePromotion)
		}

		// Vendor dashboard and activity stream
		vendors := apiGroup.Group("/vendors")
		vendors.Use(authMiddleware.AuthRequired())
		{
			vendors.GET("/:id", api.GetVendor)
			vendors.GET("/:id/dashboard", api.GetVendorDashboard)
			vendors.GET("/:id/activities", api.GetVendorActivities)
		}

		// Live vendor event feed
		apiGroup.GET("/ws/vendor", authMiddleware.AuthRequired(), api.VendorEventSocket)
	}

	// Configure server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Rockflint API server starting on port %s", cfg.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start:", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server shutdown complete")
}
