package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/config"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database"
	"github.com/mrlokans/scribe/internal/database/library"
	"github.com/mrlokans/scribe/internal/database/ratings"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/database/tags"
	"github.com/mrlokans/scribe/internal/database/users"
	"github.com/mrlokans/scribe/internal/exporters"
	http_controllers "github.com/mrlokans/scribe/internal/http"
	"github.com/mrlokans/scribe/internal/ratelimit"
	"github.com/mrlokans/scribe/internal/scheduler"
	"github.com/mrlokans/scribe/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// OpenDatabase connects to the configured database.
func OpenDatabase(cfg *config.Config) (*database.Database, error) {
	return database.Open(database.Options{
		Driver:   cfg.Database.Driver,
		Path:     cfg.Database.Path,
		URL:      cfg.Database.URL,
		LogLevel: cfg.Database.LogLevel,
	})
}

// Serve blocks until SIGINT or SIGTERM, then shuts the server down.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after in-flight requests have drained.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// csrfKey derives the 32-byte CSRF key from the session secret, generating
// a throwaway secret when none is configured.
func csrfKey(sessionSecret string) ([]byte, error) {
	if sessionSecret == "" {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			return nil, err
		}
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		sessionSecret = secret
	}

	key, err := hex.DecodeString(sessionSecret)
	if err != nil {
		// Not hex, use as raw bytes
		key = []byte(sessionSecret)
	}
	if len(key) < 32 {
		return nil, fmt.Errorf("session secret must be at least 32 bytes, got %d", len(key))
	}
	return key[:32], nil
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Scribe v%s", version)

	db, err := OpenDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	storyRepo := stories.NewRepository(db.DB)

	coverStore, err := covers.NewFileStore(cfg.Uploads.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize cover storage: %v", err)
	}
	log.Printf("Cover storage initialized at %s", coverStore.Dir())

	coverProcessor := covers.NewProcessor(coverStore, covers.Options{
		Width:     cfg.Covers.Width,
		Height:    cfg.Covers.Height,
		Quality:   cfg.Covers.JPEGQuality,
		MaxPixels: cfg.Covers.MaxPixels,
	})

	var exportLimiter *ratelimit.KeyedRateLimiter
	if cfg.Export.RatePerMinute > 0 {
		exportLimiter = ratelimit.PerMinute(cfg.Export.RatePerMinute, cfg.Export.Burst)
		defer exportLimiter.Stop()
	}

	auditor := tasks.NewCoverAuditor(storyRepo, coverStore)

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCoverAuditQueue(auditor))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)
	}

	var auditScheduler *scheduler.CoverAuditScheduler
	if cfg.CoverAudit.Enabled {
		var queue scheduler.Enqueuer
		if taskClient != nil {
			queue = taskClient
		}
		auditScheduler = scheduler.NewCoverAuditScheduler(cfg.CoverAudit.Schedule, queue, auditor)
		if err := auditScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: cover audit scheduler not started: %v", err)
			auditScheduler = nil
		}
	} else {
		log.Printf("Cover audit scheduler: disabled")
	}

	authService := auth.NewService(db.DB, cfg.Auth)

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, db.Driver(), cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	csrfSecret, err := csrfKey(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to set up CSRF protection: %v", err)
	}

	router, routerCleanup := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		Version:        version,
		Stories:        storyRepo,
		Ratings:        ratings.NewRepository(db.DB),
		Library:        library.NewRepository(db.DB),
		Users:          users.NewRepository(db.DB),
		Tags:           tags.NewRepository(db.DB),
		CoverProcessor: coverProcessor,
		Exporter:       exporters.NewService(coverStore),
		ExportLimiter:  exportLimiter,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: auth.NewMiddleware(authService, sessionManager),
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
	})

	onShutdown := func(ctx context.Context) {
		routerCleanup()
		if auditScheduler != nil {
			auditScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
