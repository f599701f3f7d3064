package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestNewConfig_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg := NewConfig()

	assert.Equal(t, int32(8080), cfg.HTTP.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultUploadDir, cfg.Uploads.Dir)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Uploads.MaxBytes)
	assert.Equal(t, 512, cfg.Covers.Width)
	assert.Equal(t, 800, cfg.Covers.Height)
	assert.Equal(t, 95, cfg.Covers.JPEGQuality)
	assert.Equal(t, int64(40_000_000), cfg.Covers.MaxPixels)
	assert.Equal(t, "0 3 * * *", cfg.CoverAudit.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionLifetime)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.True(t, cfg.Tasks.Enabled)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/scribe")
	t.Setenv("EXPORT_RATE_PER_MINUTE", "3")
	t.Setenv("AUTH_LOCKOUT_DURATION", "1m")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/scribe", cfg.Database.URL)
	assert.Equal(t, 3, cfg.Export.RatePerMinute)
	assert.Equal(t, time.Minute, cfg.Auth.LockoutDuration)
}

func TestNewConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SCRIBE_TEST_UPLOAD=1\nCOVER_WIDTH=256\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("SCRIBE_TEST_UPLOAD")
		os.Unsetenv("COVER_WIDTH")
	})

	cfg := NewConfig()

	assert.Equal(t, 256, cfg.Covers.Width)
	assert.Equal(t, "1", os.Getenv("SCRIBE_TEST_UPLOAD"))
}
