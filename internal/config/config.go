package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort         string
	DatabaseURL      string
	JWTSecret        string
	JWTRefreshSecret string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	AIServiceURL     string
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	port := getEnv("HTTP_PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "cs-simulator-secret-key")           // CHANGE THIS IN PRODUCTION!
	refreshSecret := getEnv("JWT_REFRESH_SECRET", "cs-simulator-refresh-secret")
	aiServiceURL := getEnv("AI_SERVICE_URL", "http://localhost:8000")

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set.")
	}

	accessTTLMin := getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15)
	refreshTTLHours := getEnvInt("REFRESH_TOKEN_TTL_HOURS", 168) // 7 days

	cfg := &Config{
		HTTPPort:         port,
		DatabaseURL:      dbURL,
		JWTSecret:        jwtSecret,
		JWTRefreshSecret: refreshSecret,
		AccessTokenTTL:   time.Duration(accessTTLMin) * time.Minute,
		RefreshTokenTTL:  time.Duration(refreshTTLHours) * time.Hour,
		AIServiceURL:     aiServiceURL,
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, AccessTTL=%s, RefreshTTL=%s, AIServiceURL=%s",
		cfg.HTTPPort, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.AIServiceURL)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, value, fallback, err)
		return fallback
	}
	return n
}
