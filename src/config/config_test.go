package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_PATH", "/tmp/test-ledger.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRANSCRIPTION_MODEL", "whisper-large")
	t.Setenv("TRANSCRIPTION_TIMEOUT", "90s")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://ledger.example.com")

	LoadConfig()

	assert.NotNil(t, Cfg)
	assert.Equal(t, "9090", Cfg.Port)
	assert.Equal(t, "/tmp/test-ledger.db", Cfg.DatabasePath)
	assert.Equal(t, "debug", Cfg.LogLevel)
	assert.Equal(t, "sk-test", Cfg.OpenAIAPIKey)
	assert.Equal(t, "whisper-large", Cfg.TranscriptionModel)
	assert.Equal(t, 90*time.Second, Cfg.TranscriptionTimeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://ledger.example.com"}, Cfg.AllowedOrigins)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	LoadConfig()

	assert.NotNil(t, Cfg)
	assert.Equal(t, "./pokerledger.db", Cfg.DatabasePath)
	assert.Equal(t, "https://api.openai.com/v1/audio/transcriptions", Cfg.TranscriptionURL)
	assert.Equal(t, "whisper-1", Cfg.TranscriptionModel)
	assert.Equal(t, 60*time.Second, Cfg.TranscriptionTimeout)
	assert.Equal(t, int64(26214400), Cfg.MaxUploadSizeBytes)
	assert.Equal(t, 30*time.Minute, Cfg.AnnotationSessionTTL)
}
