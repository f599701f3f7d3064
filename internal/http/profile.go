package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/database/users"
	"github.com/mrlokans/scribe/internal/entities"
)

type ProfileResponse struct {
	User    UserView           `json:"user"`
	Stats   *users.AuthorStats `json:"stats"`
	Stories PageView           `json:"stories"`
	IsOwn   bool               `json:"is_own"`
	Flash   string             `json:"flash,omitempty"`
}

type UserView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	AboutMe  string `json:"about_me"`
}

type ProfileController struct {
	users   UserStore
	engine  *catalog.Engine
	flasher Flasher
}

func NewProfileController(userStore UserStore, storyStore catalog.Store, flasher Flasher) *ProfileController {
	return &ProfileController{users: userStore, engine: catalog.NewEngine(storyStore), flasher: flasher}
}

// Profile shows the caller's own author page.
// GET /profile
func (pc *ProfileController) Profile(c *gin.Context) {
	pc.render(c, GetUserID(c))
}

// Author shows any author's page.
// GET /author/:id
func (pc *ProfileController) Author(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	pc.render(c, id)
}

func (pc *ProfileController) render(c *gin.Context, userID uint) {
	ctx := c.Request.Context()

	user, err := pc.users.GetUserByID(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		respondNotFound(c, "author")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load author")
		return
	}

	stats, err := pc.users.GetAuthorStats(ctx, user.ID)
	if err != nil {
		respondInternalError(c, err, "author stats")
		return
	}

	page, err := pc.engine.Search(ctx, catalog.Request{
		Query:    catalog.Query{AuthorID: user.ID},
		Page:     pageParam(c),
		PageSize: catalog.ProfilePageSize,
	})
	if err != nil {
		respondInternalError(c, err, "author stories")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		User:    newUserView(user),
		Stats:   stats,
		Stories: newPageView(page),
		IsOwn:   GetUserID(c) == user.ID,
		Flash:   popFlash(c, pc.flasher),
	})
}

// EditBio replaces the caller's biography.
// POST /edit_bio
func (pc *ProfileController) EditBio(c *gin.Context) {
	if err := pc.users.UpdateBio(c.Request.Context(), GetUserID(c), c.PostForm("about_me")); err != nil {
		respondInternalError(c, err, "update bio")
		return
	}
	redirectWithFlash(c, pc.flasher, "/profile", "Bio updated successfully!")
}

func newUserView(u *entities.User) UserView {
	return UserView{ID: u.ID, Username: u.Username, AboutMe: u.AboutMe}
}
