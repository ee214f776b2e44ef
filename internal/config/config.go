package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"catalog-ingestion-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Catalog API (WooCommerce-compatible REST)
	CatalogBaseURL        string
	CatalogConsumerKey    string
	CatalogConsumerSecret string
	CatalogTimeout        time.Duration

	// AI content service
	ContentServiceURL string
	ContentAPIKey     string
	ContentTimeout    time.Duration

	// Verification
	DuplicateCheckTimeout  time.Duration
	DuplicateCheckFailOpen bool

	// Upload limits
	MaxUploadSize     int64
	MaxFilesPerBatch  int
	SessionTTL        time.Duration
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	failOpen, _ := strconv.ParseBool(getEnv("DUPLICATE_CHECK_FAIL_OPEN", "true"))
	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_SIZE_MB", "256"))
	maxFiles, _ := strconv.Atoi(getEnv("MAX_FILES_PER_BATCH", "500"))

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "ingestion_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://redis.redis-marketplace.svc.cluster.local:6379/0"),

		// Server
		Port:        getEnv("PORT", "8095"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Catalog API
		CatalogBaseURL:        getEnv("CATALOG_BASE_URL", ""),
		CatalogConsumerKey:    getEnv("CATALOG_CONSUMER_KEY", ""),
		CatalogConsumerSecret: secrets.GetSecretOrEnv("CATALOG_CONSUMER_SECRET_NAME", "CATALOG_CONSUMER_SECRET", ""),
		CatalogTimeout:        getDuration("CATALOG_TIMEOUT", 30*time.Second),

		// AI content service
		ContentServiceURL: getEnv("CONTENT_SERVICE_URL", "http://localhost:8090"),
		ContentAPIKey:     secrets.GetSecretOrEnv("CONTENT_API_KEY_NAME", "CONTENT_API_KEY", ""),
		ContentTimeout:    getDuration("CONTENT_TIMEOUT", 60*time.Second),

		// Verification
		DuplicateCheckTimeout:  getDuration("DUPLICATE_CHECK_TIMEOUT", 10*time.Second),
		DuplicateCheckFailOpen: failOpen,

		// Upload limits
		MaxUploadSize:    int64(maxUploadMB) << 20,
		MaxFilesPerBatch: maxFiles,
		SessionTTL:       getDuration("SESSION_TTL", 2*time.Hour),
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(&models.IngestionBatch{}); err != nil {
		return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
