package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/classifieds-api/internal/authz"
	"github.com/yukikurage/classifieds-api/internal/config"
	"github.com/yukikurage/classifieds-api/internal/constants"
	"github.com/yukikurage/classifieds-api/internal/database"
	"github.com/yukikurage/classifieds-api/internal/handlers"
	"github.com/yukikurage/classifieds-api/internal/logging"
	"github.com/yukikurage/classifieds-api/internal/middleware"
	"github.com/yukikurage/classifieds-api/internal/ratelimit"
	"github.com/yukikurage/classifieds-api/internal/repository"
	"github.com/yukikurage/classifieds-api/internal/services"
	"github.com/yukikurage/classifieds-api/internal/utils"
	"github.com/yukikurage/classifieds-api/internal/views"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()
	if err := database.MigrateDatabase(db); err != nil {
		log.Fatalf("Failed to prepare database: %v", err)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(middleware.RequestID(), logging.JSONLogger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Setup session middleware with Redis
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // username (empty for default user)
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	limiter := newLimiter(cfg, db)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	sponsorshipRepo := repository.NewSponsorshipRepository(db)
	authorizer := authz.NewMembershipAuthorizer(orgRepo)
	tokens := utils.NewTokenService(cfg.JWTSecret, constants.AccessTokenTTL)

	// Services
	deps := services.ListingServiceDeps{
		Listings:      repository.NewListingRepository(db),
		Categories:    repository.NewCategoryRepository(db),
		Credits:       creditRepo,
		Organizations: orgRepo,
		Authorizer:    authorizer,
		Limiter:       limiter,
		EditWindow:    cfg.ListingEditWindow,
	}
	if cfg.OpenAIAPIKey != "" {
		deps.TagSuggester = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		logging.Warn("OPENAI_API_KEY is not set, tag suggestions are disabled", nil)
	}
	listingService := services.NewListingService(deps)
	sponsorshipService := services.NewSponsorshipService(
		sponsorshipRepo,
		creditRepo,
		orgRepo,
		repository.NewTagRepository(db),
		authorizer,
		limiter,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.NewAuthService(userRepo, tokens))
	orgHandler := handlers.NewOrganizationHandler(services.NewOrganizationService(orgRepo, sponsorshipRepo, creditRepo, limiter))
	listingHandler := handlers.NewListingHandler(listingService)
	sponsorshipHandler := handlers.NewSponsorshipHandler(sponsorshipService, views.Templates())
	creditHandler := handlers.NewCreditHandler(services.NewCreditService(creditRepo, orgRepo))

	requireAuth := middleware.RequireAuth(tokens)
	requireOrgAccess := middleware.RequireOrganizationAccess(orgRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Classifieds API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(requireAuth)
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)
			orgs.GET("/:id", requireOrgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", requireOrgAccess, middleware.RequireOrganizationOwner(), orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", requireOrgAccess, middleware.RequireOrganizationOwner(), orgHandler.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", requireOrgAccess, middleware.RequireOrganizationOwner(), orgHandler.RegenerateInviteCode)
			orgs.PUT("/:id/members/:user_id", requireOrgAccess, middleware.RequireOrganizationOwner(), orgHandler.UpdateMemberRole)
			orgs.DELETE("/:id/members/:user_id", requireOrgAccess, middleware.RequireOrganizationOwner(), orgHandler.RemoveMember)
		}
	}

	// Listing routes. /listings/:id doubles as the category feed, the slug arrives as :id.
	listings := r.Group("/listings")
	{
		listings.GET("", listingHandler.ListListings)
		listings.GET("/categories", listingHandler.ListCategories)
		listings.GET("/mine", requireAuth, listingHandler.ListOwnListings)
		listings.GET("/:id", listingHandler.ListListingsByCategory)
		listings.GET("/:id/edit", requireAuth, listingHandler.EditListing)
		listings.POST("", requireAuth, listingHandler.CreateListing)
		listings.POST("/suggest-tags", requireAuth, listingHandler.SuggestTags)
		listings.PUT("/:id", requireAuth, listingHandler.UpdateListing)
		listings.DELETE("/:id", requireAuth, listingHandler.DeleteListing)
	}

	partnerships := r.Group("/partnerships")
	partnerships.Use(requireAuth)
	{
		partnerships.GET("/:level", sponsorshipHandler.PurchaseView)
		partnerships.POST("", sponsorshipHandler.Purchase)
	}

	r.GET("/credits", requireAuth, creditHandler.GetCredits)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newLimiter builds the rate limiter selected by RATE_LIMIT_BACKEND.
func newLimiter(cfg *config.Config, db *gorm.DB) ratelimit.Limiter {
	rules := ratelimit.Rules{
		ratelimit.ActionListingCreation:      {Max: cfg.RateLimitListingCreation, Window: cfg.RateLimitWindow},
		ratelimit.ActionSponsorshipCreation:  {Max: cfg.RateLimitSponsorship, Window: cfg.RateLimitWindow},
		ratelimit.ActionOrganizationCreation: {Max: cfg.RateLimitOrganizationCreation, Window: cfg.RateLimitWindow},
	}

	if cfg.RateLimitBackend == "database" {
		limiter := ratelimit.NewGormLimiter(db, rules)
		pruned, err := limiter.Prune(context.Background(), time.Now().Add(-cfg.RateLimitWindow))
		if err != nil {
			logging.Warn("failed to prune rate limit counters", map[string]interface{}{"error": err.Error()})
		} else {
			logging.Info("rate limiter ready", map[string]interface{}{"backend": "database", "pruned": pruned})
		}
		return limiter
	}

	logging.Info("rate limiter ready", map[string]interface{}{"backend": "redis", "addr": cfg.RedisAddr()})
	return ratelimit.NewRedisLimiter(ratelimit.NewRedisPool(cfg.RedisAddr()), rules)
}
