package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("S3_REGION", "us-east-1")
	t.Setenv("S3_BUCKET", "packs")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg := Load()

	assert.Equal(t, "packvault", cfg.AppName)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, defaultSQLiteConnection, cfg.DBConnection)
	assert.Equal(t, int64(2<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 4<<10, cfg.UploadWindowBytes)
	assert.Equal(t, 1<<10, cfg.UploadReadBytes)
	assert.Equal(t, 30, cfg.UploadRateLimit)
	assert.Equal(t, time.Minute, cfg.UploadRateWindow)
	assert.Equal(t, 15*time.Minute, cfg.S3PresignExpiry)
	assert.Equal(t, time.Hour, cfg.OrphanGracePeriod)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("UPLOAD_WINDOW_BYTES", "8192")
	t.Setenv("UPLOAD_RATE_WINDOW", "30s")
	t.Setenv("ORPHAN_GRACE_PERIOD", "24h")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")

	cfg := Load()

	assert.Equal(t, int64(1<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 8192, cfg.UploadWindowBytes)
	assert.Equal(t, 30*time.Second, cfg.UploadRateWindow)
	assert.Equal(t, 24*time.Hour, cfg.OrphanGracePeriod)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
}

func TestEnvInt64(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"unset", "", 7},
		{"valid", "42", 42},
		{"not a number", "lots", 7},
		{"zero", "0", 7},
		{"negative", "-5", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.value)
			assert.Equal(t, tt.want, envInt64("TEST_INT", 7))
		})
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, envDuration("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, envDuration("TEST_DURATION", time.Minute))
}

func TestLoadDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_CONNECTION", "postgres://localhost/packvault")

	cfg := LoadDatabase()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/packvault", cfg.DBConnection)
	assert.Empty(t, cfg.S3Bucket)
}
