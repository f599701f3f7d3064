// Package auth provides accounts, sessions and request identity.
//
// Readers browse the catalog anonymously; writing, rating, exporting and the
// personal library require a signed-in user. Sessions are cookie based and
// stored server side through scs.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5           # Failures before lockout
//
// # Usage
//
// Initialize authentication in entrypoint:
//
//	authService := auth.NewService(db, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, driver, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessions)
//	router.Use(sessions.LoadAndSave(), authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	user, ok := auth.CurrentUser(c)
package auth
