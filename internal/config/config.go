package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default allowed origins for development
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

// Config holds everything read from the environment. It is built once in main
// and handed to the components that need it; nothing reads os.Getenv after
// startup.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	TokenLifetime  time.Duration
	BcryptCost     int
	AllowedOrigins []string
	UploadDir      string
	UploadMaxBytes int64
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		TokenLifetime:  time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),
		AllowedOrigins: loadAllowedOrigins(),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}

	return parsed
}

func loadAllowedOrigins() []string {
	origins := make([]string, len(defaultOrigins))
	copy(origins, defaultOrigins)

	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		origins = append(origins, clientURL)
	}

	if allowedOrigins := os.Getenv("ALLOWED_ORIGINS"); allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}

	return origins
}
