// Package config loads runtime settings from the environment. Every
// consumer receives an explicit Config value; nothing reads globals
// after startup.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings that are not part of the
// policy table.
type Config struct {
	// CaptionAPIKey authorizes the caption generation endpoint. Empty
	// means caption requests skip straight to the local fallback.
	CaptionAPIKey string
	// CaptionEndpoint is the URL of the caption generation service.
	CaptionEndpoint string
	// CaptionTimeout bounds a single caption HTTP call.
	CaptionTimeout time.Duration
}

// Load reads .env (when present) and the environment.
func Load() Config {
	godotenv.Load(".env")

	return Config{
		CaptionAPIKey:   getEnv("IMGPRESS_CAPTION_API_KEY", ""),
		CaptionEndpoint: getEnv("IMGPRESS_CAPTION_ENDPOINT", ""),
		CaptionTimeout:  getEnvDuration("IMGPRESS_CAPTION_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
