package http

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/database/ratings"
	"github.com/mrlokans/scribe/internal/database/stories"
)

type RatingsController struct {
	stories StoryStore
	ratings RatingStore
	flasher Flasher
}

func NewRatingsController(storyStore StoryStore, ratingStore RatingStore, flasher Flasher) *RatingsController {
	return &RatingsController{stories: storyStore, ratings: ratingStore, flasher: flasher}
}

// storyID resolves :id to an existing story, responding 400/404 itself when it cannot.
func (rc *RatingsController) storyID(c *gin.Context) (uint, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return 0, false
	}
	if _, err := rc.stories.GetStoryByID(c.Request.Context(), id); err != nil {
		if errors.Is(err, stories.ErrNotFound) {
			respondNotFound(c, "story")
		} else {
			respondInternalError(c, err, "load story")
		}
		return 0, false
	}
	return id, true
}

// Rate records the caller's 1-5 rating, replacing an earlier one.
// POST /story/:id/rate
func (rc *RatingsController) Rate(c *gin.Context) {
	id, ok := rc.storyID(c)
	if !ok {
		return
	}

	value, err := strconv.Atoi(c.PostForm("rating"))
	if err != nil {
		redirectWithFlash(c, rc.flasher, storyPath(id), "Invalid rating value")
		return
	}

	err = rc.ratings.UpsertRating(c.Request.Context(), GetUserID(c), id, value)
	if errors.Is(err, ratings.ErrInvalidValue) {
		redirectWithFlash(c, rc.flasher, storyPath(id), "Invalid rating value")
		return
	}
	if err != nil {
		respondInternalError(c, err, "rate story")
		return
	}

	redirectWithFlash(c, rc.flasher, storyPath(id), "Rating saved successfully!")
}

// Remove deletes the caller's rating.
// POST /story/:id/remove_rating
func (rc *RatingsController) Remove(c *gin.Context) {
	id, ok := rc.storyID(c)
	if !ok {
		return
	}

	removed, err := rc.ratings.RemoveRating(c.Request.Context(), GetUserID(c), id)
	if err != nil {
		respondInternalError(c, err, "remove rating")
		return
	}

	msg := "No rating found to remove."
	if removed {
		msg = "Rating removed successfully!"
	}
	redirectWithFlash(c, rc.flasher, storyPath(id), msg)
}
