package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	Port    string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret string

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry for download URLs - default: 15 minutes

	// Uploads
	UploadMaxBytes    int64 // Payload ceiling per file
	UploadWindowBytes int   // Memory window of the multipart decoder
	UploadReadBytes   int   // Bytes requested from the body per read
	UploadRateLimit   int
	UploadRateWindow  time.Duration

	// Orphaned blobs younger than this are left alone by the sweeper
	OrphanGracePeriod time.Duration
}

const defaultSQLiteConnection = "./data/packvault.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"

func Load() *Config {
	loadDotEnv()

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "packvault"),
		AppEnv:  envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultSQLiteConnection),

		// Security
		JWTSecret: envRequired("JWT_SECRET"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envRequired("S3_ACCESS_KEY"),
		S3SecretKey:     envRequired("S3_SECRET_KEY"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 15*time.Minute),

		// Uploads
		UploadMaxBytes:    envInt64("UPLOAD_MAX_BYTES", 2<<20),            // 2 MiB
		UploadWindowBytes: int(envInt64("UPLOAD_WINDOW_BYTES", 4<<10)), // 4 KiB
		UploadReadBytes:   int(envInt64("UPLOAD_READ_BYTES", 1<<10)),   // 1 KiB
		UploadRateLimit:   int(envInt64("UPLOAD_RATE_LIMIT", 30)),
		UploadRateWindow:  envDuration("UPLOAD_RATE_WINDOW", time.Minute),

		OrphanGracePeriod: envDuration("ORPHAN_GRACE_PERIOD", time.Hour),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// LoadDatabase reads only the database settings, for tools that never touch storage
func LoadDatabase() *Config {
	loadDotEnv()

	return &Config{
		AppName:      envString("APP_NAME", "packvault"),
		AppEnv:       envString("APP_ENV", "development"),
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", defaultSQLiteConnection),
	}
}

// Load .env file if it exists
func loadDotEnv() {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}
}

// validateProduction rejects settings that are only acceptable for local testing
func validateProduction(cfg *Config) {
	if len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires JWT_SECRET of at least 32 bytes")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("config invalid integer, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
