package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthController serves registration, sign-in and sign-out.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	throttle       *LoginThrottle
}

func NewAuthController(service *Service, sessionManager *SessionManager, cfg config.Auth) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		throttle: NewLoginThrottle(ThrottleConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			Window:          cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/register", ac.RegisterPage)
	router.POST("/register", ac.Register)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout)
}

// Stop releases the throttle's cleanup goroutine.
func (ac *AuthController) Stop() {
	ac.throttle.Stop()
}

func (ac *AuthController) LoginPage(c *gin.Context) {
	ac.formPage(c)
}

func (ac *AuthController) RegisterPage(c *gin.Context) {
	ac.formPage(c)
}

// formPage hands a client what it needs to post the form: a CSRF token and
// any pending flash message.
func (ac *AuthController) formPage(c *gin.Context) {
	if ac.sessionManager.IsAuthenticated(c.Request) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"csrf_token": GetCSRFToken(c),
		"flash":      ac.sessionManager.PopFlash(c.Request),
		"next":       sanitizeRedirectPath(c.Query("next")),
	})
}

// Login handles the login form submission.
func (ac *AuthController) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	if allowed, _ := ac.throttle.Allow(clientIP, username); !allowed {
		ac.fail(c, "/login", "Too many login attempts. Please try again later.")
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		ac.throttle.RecordFailure(clientIP, username)

		msg := "Invalid username or password"
		if errors.Is(err, ErrAccountLocked) {
			msg = "Account is locked. Please try again later."
		}
		ac.fail(c, "/login", msg)
		return
	}
	ac.throttle.RecordSuccess(clientIP, username)

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %s: %v", user.Username, err)
		ac.fail(c, "/login", "Failed to create session")
		return
	}

	c.Redirect(http.StatusSeeOther, next)
}

// Register creates an account and signs it in.
func (ac *AuthController) Register(c *gin.Context) {
	user, err := ac.service.Register(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		msg := "Failed to create account"
		switch {
		case errors.Is(err, ErrUserExists):
			msg = "Username already exists"
		case errors.Is(err, ErrUsernameRequired):
			msg = "Username is required"
		case errors.Is(err, ErrUsernameInvalid):
			msg = "Username must be 3-64 characters, alphanumeric with underscore/hyphen only"
		case errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooShort):
			msg = "Password must be at least 8 characters"
		case errors.Is(err, ErrPasswordTooLong):
			msg = "Password exceeds maximum length of 72 characters"
		default:
			log.Printf("Failed to register user: %v", err)
		}
		ac.fail(c, "/register", msg)
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Printf("Failed to create session for %s: %v", user.Username, err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout destroys the session and returns to the catalog.
func (ac *AuthController) Logout(c *gin.Context) {
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		log.Printf("Failed to destroy session: %v", err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (ac *AuthController) fail(c *gin.Context, target, msg string) {
	ac.sessionManager.Flash(c.Request, msg)
	c.Redirect(http.StatusSeeOther, target)
}
