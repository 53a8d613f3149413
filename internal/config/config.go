package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-derived setting for the service.
type Config struct {
	// Server
	Port string
	Host string // public base URL, used for checkout redirects

	// Database
	DatabaseURL string

	// Auth
	JWKSURL   string // JWKS endpoint of the identity provider (RS256)
	JWTSecret string // HS256 fallback for development

	// Generation provider
	OpenAIAPIKey string

	// Blob storage
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	BlobBucket     string
	StorageDomain  string // public URL is https://<bucket>.<storage-domain>/<key>

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Stripe
	StripeSecretKey     string
	StripePriceID       string
	StripeWebhookSecret string
	CreditsPerPurchase  int

	// Rate limiting
	GenerateRateLimit  int
	GenerateRateWindow time.Duration

	// Orphan blob sweep
	SweepInterval time.Duration
	SweepMinAge   time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Host:                getEnv("HOST", "http://localhost:8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWKSURL:             os.Getenv("AUTH_JWKS_URL"),
		JWTSecret:           os.Getenv("AUTH_JWT_SECRET"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		MinioEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioUseSSL:         getEnvBool("MINIO_USE_SSL", false),
		BlobBucket:          getEnv("BLOB_BUCKET", "iconforge-images"),
		StorageDomain:       getEnv("STORAGE_DOMAIN", "s3.amazonaws.com"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripePriceID:       os.Getenv("STRIPE_CREDIT_PRICE"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CreditsPerPurchase:  getEnvInt("CREDITS_PER_PURCHASE", 100),
		GenerateRateLimit:   getEnvInt("GENERATE_RATE_LIMIT", 5),
		GenerateRateWindow:  getEnvDuration("GENERATE_RATE_WINDOW", time.Minute),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", time.Hour),
		SweepMinAge:         getEnvDuration("SWEEP_MIN_AGE", 24*time.Hour),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWKSURL == "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("either AUTH_JWKS_URL or AUTH_JWT_SECRET must be set")
	}
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return fallback
}
