package http

import (
	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/config"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database"
	"github.com/mrlokans/scribe/internal/exporters"
	"github.com/mrlokans/scribe/internal/ratelimit"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	Database *database.Database
	Version  string

	// Persistence
	Stories StoryStore
	Ratings RatingStore
	Library LibraryStore
	Users   UserStore
	Tags    TagStore

	// Covers and export
	CoverProcessor *covers.Processor
	Exporter       *exporters.Service
	ExportLimiter  *ratelimit.KeyedRateLimiter // optional
	MaxUploadBytes int64

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthConfig     config.Auth
	CSRFSecret     []byte // CSRF protection is off when empty
	SecureCookies  bool
}
