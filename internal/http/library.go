package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/database/stories"
)

type SavedStoryView struct {
	StorySummary
	SavedAt time.Time `json:"saved_at"`
}

type LibraryController struct {
	stories StoryStore
	library LibraryStore
	flasher Flasher
}

func NewLibraryController(storyStore StoryStore, libraryStore LibraryStore, flasher Flasher) *LibraryController {
	return &LibraryController{stories: storyStore, library: libraryStore, flasher: flasher}
}

// List returns the caller's saved stories, most recently saved first.
// GET /library
func (lc *LibraryController) List(c *gin.Context) {
	saved, err := lc.library.ListSaved(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list library")
		return
	}

	views := make([]SavedStoryView, 0, len(saved))
	for i := range saved {
		views = append(views, SavedStoryView{
			StorySummary: newStorySummary(&saved[i].Story),
			SavedAt:      saved[i].SavedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"saved_stories": views,
		"flash":         popFlash(c, lc.flasher),
	})
}

// Toggle saves or unsaves a story.
// POST /save_story/:id
func (lc *LibraryController) Toggle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := lc.stories.GetStoryByID(ctx, id); err != nil {
		if errors.Is(err, stories.ErrNotFound) {
			respondNotFound(c, "story")
			return
		}
		respondInternalError(c, err, "load story")
		return
	}

	saved, err := lc.library.ToggleSaved(ctx, GetUserID(c), id)
	if err != nil {
		respondInternalError(c, err, "toggle saved story")
		return
	}

	msg := "Story removed from your library"
	if saved {
		msg = "Story added to your library"
	}
	redirectWithFlash(c, lc.flasher, storyPath(id), msg)
}
