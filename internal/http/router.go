package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/ratelimit"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// It returns a cleanup func releasing background resources owned by the router.
func NewRouter(cfg RouterConfig) (*gin.Engine, func()) {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	var flasher Flasher
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadAndSave())
		flasher = cfg.SessionManager
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
	}

	requireAuth := denyAnonymous
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
	}

	cleanup := func() {}
	if cfg.AuthService != nil && cfg.SessionManager != nil {
		authController := auth.NewAuthController(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		authController.RegisterRoutes(router)
		cleanup = authController.Stop
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	catalogController := NewCatalogController(cfg.Stories, flasher)
	storiesController := NewStoriesController(cfg.Stories, cfg.Ratings, cfg.Library, cfg.CoverProcessor, flasher)
	ratingsController := NewRatingsController(cfg.Stories, cfg.Ratings, flasher)
	libraryController := NewLibraryController(cfg.Stories, cfg.Library, flasher)
	profileController := NewProfileController(cfg.Users, cfg.Stories, flasher)
	exportController := NewExportController(cfg.Stories, cfg.Exporter, flasher)
	tagsController := NewTagsController(cfg.Tags)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	// Public reads
	router.GET("/", catalogController.Index)
	router.GET("/api/stories", catalogController.Index)
	router.GET("/api/tags", tagsController.List)
	router.GET("/story/:id", storiesController.Show)
	router.GET("/story/:id/cover", storiesController.Cover)
	router.GET("/author/:id", profileController.Author)

	// Signed-in users
	member := router.Group("/", requireAuth)
	uploads := limitBody(cfg.MaxUploadBytes)
	member.POST("/write", uploads, storiesController.Create)
	member.POST("/story/:id/edit", uploads, storiesController.Edit)
	member.POST("/story/:id/delete", storiesController.Delete)
	member.POST("/story/:id/rate", ratingsController.Rate)
	member.POST("/story/:id/remove_rating", ratingsController.Remove)
	member.GET("/profile", profileController.Profile)
	member.POST("/edit_bio", profileController.EditBio)
	member.GET("/library", libraryController.List)
	member.POST("/save_story/:id", libraryController.Toggle)

	download := []gin.HandlerFunc{requireAuth}
	if cfg.ExportLimiter != nil {
		download = append(download, ratelimit.Middleware(cfg.ExportLimiter))
	}
	download = append(download, exportController.Download)
	router.GET("/story/:id/download/:format", download...)

	return router, cleanup
}

// limitBody caps request bodies at max bytes; zero or less disables the cap.
func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if max > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}

// denyAnonymous guards member routes when no auth middleware is configured.
func denyAnonymous(c *gin.Context) {
	if GetUserID(c) == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}
	c.Next()
}
