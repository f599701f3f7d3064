package http

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/config"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database"
	"github.com/mrlokans/scribe/internal/database/library"
	"github.com/mrlokans/scribe/internal/database/ratings"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/database/tags"
	"github.com/mrlokans/scribe/internal/database/users"
	"github.com/mrlokans/scribe/internal/entities"
	"github.com/mrlokans/scribe/internal/exporters"
	"github.com/mrlokans/scribe/internal/ratelimit"
)

// testApp is a fully wired router over a temp-file SQLite database.
type testApp struct {
	t       *testing.T
	router  *gin.Engine
	db      *database.Database
	stories *stories.Repository
	ratings *ratings.Repository
	library *library.Repository
	covers  *covers.FileStore
	authSvc *auth.Service
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Options{
		Path:     filepath.Join(t.TempDir(), "scribe.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := covers.NewFileStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	authCfg := config.Auth{
		SessionLifetime:  time.Hour,
		BcryptCost:       4,
		MaxLoginAttempts: 5,
	}
	authSvc := auth.NewService(db.DB, authCfg)
	sessions, err := auth.NewSessionManager(nil, "memory", authCfg)
	require.NoError(t, err)

	exportLimiter := ratelimit.PerMinute(600, 100)
	t.Cleanup(exportLimiter.Stop)

	app := &testApp{
		t:       t,
		db:      db,
		stories: stories.NewRepository(db.DB),
		ratings: ratings.NewRepository(db.DB),
		library: library.NewRepository(db.DB),
		covers:  store,
		authSvc: authSvc,
	}

	router, cleanup := NewRouter(RouterConfig{
		Database:       db,
		Version:        "test",
		Stories:        app.stories,
		Ratings:        app.ratings,
		Library:        app.library,
		Users:          users.NewRepository(db.DB),
		Tags:           tags.NewRepository(db.DB),
		CoverProcessor: covers.NewProcessor(store, covers.Options{Width: 64, Height: 100, MaxPixels: 100 * 100}),
		Exporter:       exporters.NewService(store),
		ExportLimiter:  exportLimiter,
		MaxUploadBytes: 1 << 20,
		AuthService:    authSvc,
		SessionManager: sessions,
		AuthMiddleware: auth.NewMiddleware(authSvc, sessions),
		AuthConfig:     authCfg,
	})
	t.Cleanup(cleanup)
	app.router = router
	return app
}

// signUp registers username and returns its session cookie.
func (a *testApp) signUp(username string) (*entities.User, *http.Cookie) {
	a.t.Helper()
	w := a.postForm("/register", url.Values{"username": {username}, "password": {"correct-horse"}}, nil)
	require.Equal(a.t, http.StatusSeeOther, w.Code, w.Body.String())

	user, err := users.NewRepository(a.db.DB).GetUserByUsername(context.Background(), username)
	require.NoError(a.t, err)
	return user, sessionCookieOf(a.t, w)
}

func sessionCookieOf(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	resp := http.Response{Header: w.Header()}
	for _, c := range resp.Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatalf("no session cookie in %v", w.Header())
	return nil
}

func (a *testApp) do(req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil), cookie)
}

func (a *testApp) postForm(path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, cookie)
}

// postMultipart sends form fields plus an optional cover upload.
func (a *testApp) postMultipart(path string, form url.Values, coverName string, cover []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			require.NoError(a.t, mw.WriteField(key, v))
		}
	}
	if coverName != "" {
		fw, err := mw.CreateFormFile("cover_image", coverName)
		require.NoError(a.t, err)
		_, err = fw.Write(cover)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.do(req, cookie)
}

// getJSON decodes a 200 response into v.
func (a *testApp) getJSON(path string, cookie *http.Cookie, v any) {
	a.t.Helper()
	w := a.get(path, cookie)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v))
}

func (a *testApp) createStory(userID uint, title string, tagNames []string, chapters ...stories.ChapterDraft) *entities.Story {
	a.t.Helper()
	story, err := a.stories.CreateStory(context.Background(), userID, stories.Draft{
		Title:    title,
		Tags:     tagNames,
		Chapters: chapters,
	})
	require.NoError(a.t, err)
	return story
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 80, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 80; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
