package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port           string
	DatabasePath   string
	MigrationsPath string
	LogLevel       string

	// Transcription settings
	OpenAIAPIKey         string
	TranscriptionURL     string
	TranscriptionModel   string
	TranscriptionTimeout time.Duration

	// Audio upload settings
	MaxUploadSizeBytes   int64
	AudioSpoolDir        string
	AnnotationSessionTTL time.Duration

	// Frontend origins allowed by CORS
	AllowedOrigins []string
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	// The transcription credential is deliberately optional at startup: its
	// absence surfaces as a per-request error, not a refusal to boot.
	apiKey := getEnv("OPENAI_API_KEY", "")
	if strings.TrimSpace(apiKey) == "" {
		log.Println("WARNING: OPENAI_API_KEY is not set. Voice note transcription will be unavailable until it is configured.")
	}

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "26214400") // 25MB, the transcription endpoint's own cap
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 25MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 25 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		Port:           getEnv("PORT", "8080"),
		DatabasePath:   getEnv("DATABASE_PATH", "./pokerledger.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "db/migrations"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		// Transcription
		OpenAIAPIKey:         apiKey,
		TranscriptionURL:     getEnv("TRANSCRIPTION_URL", "https://api.openai.com/v1/audio/transcriptions"),
		TranscriptionModel:   getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		TranscriptionTimeout: getEnvAsDuration("TRANSCRIPTION_TIMEOUT", 60*time.Second),

		// Audio uploads
		MaxUploadSizeBytes:   maxUploadSizeBytes,
		AudioSpoolDir:        getEnv("AUDIO_SPOOL_DIR", os.TempDir()),
		AnnotationSessionTTL: getEnvAsDuration("ANNOTATION_SESSION_TTL", 30*time.Minute),

		// CORS
		AllowedOrigins: getAllowedOrigins("ALLOWED_ORIGINS"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getAllowedOrigins retrieves and parses the comma-separated list of CORS origins.
func getAllowedOrigins(key string) []string {
	originsStr := getEnv(key, "http://localhost:3000")
	if originsStr == "" {
		return []string{}
	}
	origins := strings.Split(originsStr, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return origins
}
