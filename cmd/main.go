package main

import (
	"context"
	"fmt"
	"log"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"iconforge/internal/config"
	"iconforge/internal/handlers"
	"iconforge/internal/jobs/background"
	"iconforge/internal/middleware"
	"iconforge/internal/ratelimit"
	"iconforge/internal/repositories"
	"iconforge/internal/services"
	"iconforge/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Database connection pool
	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Blob storage
	storageSvc, err := services.NewMinioStorage(
		cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
		cfg.MinioUseSSL, cfg.BlobBucket, cfg.StorageDomain,
	)
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Fatalf("Failed to ensure blob bucket exists: %v", err)
	}

	// Redis client for the generation rate limiter
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARNING: Redis ping failed: %v", err)
	}

	// Repositories
	imageRepo := repositories.NewImageRepo(pool)
	creditRepo := repositories.NewCreditRepo(pool)

	// Services
	creditSvc := services.NewCreditService(creditRepo)
	imageSvc := services.NewImageService(
		imageRepo,
		creditSvc,
		services.NewOpenAIProvider(cfg.OpenAIAPIKey),
		services.NewHTTPDownloader(),
		storageSvc,
	)
	checkoutSvc := services.NewStripeCheckout(
		cfg.StripeSecretKey, cfg.StripePriceID, cfg.StripeWebhookSecret,
		cfg.Host, cfg.CreditsPerPurchase,
	)

	// Handlers
	imageHandlers := handlers.NewImageHandlers(imageSvc)
	creditHandlers := handlers.NewCreditHandlers(creditSvc)
	checkoutHandlers := handlers.NewCheckoutHandlers(checkoutSvc)
	webhookHandlers := handlers.NewWebhookHandlers(checkoutSvc, creditSvc)

	// Auth middleware
	keyFn, err := middleware.NewKeyfunc(cfg.JWKSURL, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to initialize token verification: %v", err)
	}
	authMiddleware := middleware.Auth(keyFn)

	// Rate limiter for generation
	limiter := ratelimit.NewRedisLimiter(redisClient, cfg.GenerateRateLimit, cfg.GenerateRateWindow)

	// Orphan blob sweep
	scheduler, err := background.NewJobScheduler(storageSvc, imageRepo, cfg.SweepInterval, cfg.SweepMinAge)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Echo instance
	e := echo.New()
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", handlers.HealthCheck)
	e.GET("/health/ready", func(c echo.Context) error {
		return handlers.ReadinessCheck(c, pool)
	})

	// Payment provider callback (signature-verified, no bearer auth)
	e.POST("/webhooks/stripe", webhookHandlers.StripeWebhook)

	v1 := e.Group("/v1")

	// Public listing
	v1.GET("/images", imageHandlers.ListPublicImages)

	// Protected routes
	protected := v1.Group("", authMiddleware)
	protected.POST("/images", imageHandlers.CreateImage, ratelimit.Middleware(limiter))
	protected.GET("/me/images", imageHandlers.ListUserImages)
	protected.GET("/me/images/latest", imageHandlers.LatestUserImage)
	protected.POST("/images/:id/show", imageHandlers.ShowImage)
	protected.POST("/images/:id/hide", imageHandlers.HideImage)
	protected.DELETE("/images/:id", imageHandlers.DeleteImage)
	protected.GET("/credits", creditHandlers.GetCredits)
	protected.POST("/checkout", checkoutHandlers.CreateCheckout)

	log.Printf("iconforge server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(fmt.Sprintf(":%s", cfg.Port)))
}
