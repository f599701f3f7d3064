package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Uploads
		Covers
		Export
		CoverAudit
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver   string // sqlite or postgres
		Path     string // SQLite file
		URL      string // PostgreSQL DSN
		LogLevel string
	}
	Uploads struct {
		Dir      string
		MaxBytes int64
	}
	Covers struct {
		Width       int
		Height      int
		JPEGQuality int
		MaxPixels   int64 // uploads with larger declared dimensions are rejected
	}
	Export struct {
		RatePerMinute int // per client IP
		Burst         int
	}
	CoverAudit struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration // stuck tasks go back to the queue after this
		CleanupInterval time.Duration
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
)

// loadDotEnv reads an optional .env file. Variables already present in the
// environment win over the file.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("Failed to load %s: %v", path, err)
	}
}

func NewConfig() *Config {
	loadDotEnv(".env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", "sqlite")
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_url", "")
	v.SetDefault("db_log_level", "warn")

	v.SetDefault("upload_dir", DefaultUploadDir)
	v.SetDefault("max_upload_bytes", DefaultMaxUploadBytes)
	v.SetDefault("cover_width", 512)
	v.SetDefault("cover_height", 800)
	v.SetDefault("cover_jpeg_quality", 95)
	v.SetDefault("cover_max_pixels", 40_000_000)

	v.SetDefault("export_rate_per_minute", 30)
	v.SetDefault("export_burst", 5)

	v.SetDefault("cover_audit_enabled", true)
	v.SetDefault("cover_audit_schedule", "0 3 * * *") // Daily at 03:00

	// Auth defaults
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			URL:      v.GetString("DATABASE_URL"),
			LogLevel: v.GetString("DB_LOG_LEVEL"),
		},
		Uploads: Uploads{
			Dir:      v.GetString("UPLOAD_DIR"),
			MaxBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		},
		Covers: Covers{
			Width:       v.GetInt("COVER_WIDTH"),
			Height:      v.GetInt("COVER_HEIGHT"),
			JPEGQuality: v.GetInt("COVER_JPEG_QUALITY"),
			MaxPixels:   v.GetInt64("COVER_MAX_PIXELS"),
		},
		Export: Export{
			RatePerMinute: v.GetInt("EXPORT_RATE_PER_MINUTE"),
			Burst:         v.GetInt("EXPORT_BURST"),
		},
		CoverAudit: CoverAudit{
			Enabled:  v.GetBool("COVER_AUDIT_ENABLED"),
			Schedule: v.GetString("COVER_AUDIT_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
	}
}
