package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/auth"
	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/database/ratings"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/entities"
	"github.com/mrlokans/scribe/internal/utils"
)

const (
	coverField       = "cover_image"
	removeCoverField = "remove_cover"

	defaultMultipartMemory = 8 << 20
)

type StoriesController struct {
	stories   StoryStore
	ratings   RatingStore
	library   LibraryStore
	processor *covers.Processor
	flasher   Flasher
}

func NewStoriesController(store StoryStore, ratingStore RatingStore, libraryStore LibraryStore, processor *covers.Processor, flasher Flasher) *StoriesController {
	return &StoriesController{
		stories:   store,
		ratings:   ratingStore,
		library:   libraryStore,
		processor: processor,
		flasher:   flasher,
	}
}

// loadStory resolves :id, responding 400/404 itself when it cannot.
func (sc *StoriesController) loadStory(c *gin.Context) (*entities.Story, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}
	story, err := sc.stories.GetStoryByID(c.Request.Context(), id)
	if errors.Is(err, stories.ErrNotFound) {
		respondNotFound(c, "story")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "load story")
		return nil, false
	}
	return story, true
}

// Show returns a story with its chapters and the caller's rating and saved state.
// GET /story/:id
func (sc *StoriesController) Show(c *gin.Context) {
	story, ok := sc.loadStory(c)
	if !ok {
		return
	}

	detail := newStoryDetail(story)
	if userID := GetUserID(c); userID != 0 {
		ctx := c.Request.Context()
		detail.IsOwner = story.IsOwnedBy(userID)

		rating, err := sc.ratings.GetRating(ctx, userID, story.ID)
		switch {
		case err == nil:
			detail.UserRating = &rating.Value
		case !errors.Is(err, ratings.ErrNotFound):
			log.Printf("Failed to load rating of user %d for story %d: %v", userID, story.ID, err)
		}

		saved, err := sc.library.IsSaved(ctx, userID, story.ID)
		if err != nil {
			log.Printf("Failed to load saved state of story %d: %v", story.ID, err)
		}
		detail.Saved = saved
	}
	detail.Flash = popFlash(c, sc.flasher)

	c.JSON(http.StatusOK, detail)
}

// Create publishes a new story.
// POST /write
func (sc *StoriesController) Create(c *gin.Context) {
	user, _ := auth.CurrentUser(c)

	draft, err := storyDraftFromForm(c)
	if err != nil {
		redirectWithFlash(c, sc.flasher, "/", uploadErrorMessage(err))
		return
	}

	story, err := sc.stories.CreateStory(c.Request.Context(), user.ID, draft)
	if msg := titleErrorMessage(err); msg != "" {
		redirectWithFlash(c, sc.flasher, "/", msg)
		return
	}
	if err != nil {
		respondInternalError(c, err, "create story")
		return
	}

	msg := sc.replaceCover(c, story)
	redirectWithFlash(c, sc.flasher, "/", msg)
}

// Edit updates the caller's own story. Chapters are replaced wholesale and
// the tag list is reset from the form.
// POST /story/:id/edit
func (sc *StoriesController) Edit(c *gin.Context) {
	story, ok := sc.loadStory(c)
	if !ok {
		return
	}
	if !story.IsOwnedBy(GetUserID(c)) {
		redirectWithFlash(c, sc.flasher, storyPath(story.ID), "You can only edit your own stories.")
		return
	}

	draft, err := storyDraftFromForm(c)
	if err != nil {
		redirectWithFlash(c, sc.flasher, storyPath(story.ID), uploadErrorMessage(err))
		return
	}

	ctx := c.Request.Context()
	if _, err := sc.stories.UpdateStory(ctx, story.ID, draft); err != nil {
		if msg := titleErrorMessage(err); msg != "" {
			redirectWithFlash(c, sc.flasher, storyPath(story.ID), msg)
			return
		}
		respondInternalError(c, err, "update story")
		return
	}

	if c.PostForm(removeCoverField) == "1" && story.HasCover() {
		if err := sc.processor.Remove(story.CoverImage); err != nil {
			log.Printf("Error removing cover image of story %d: %v", story.ID, err)
		}
		if err := sc.stories.ClearCover(ctx, story.ID); err != nil {
			log.Printf("Error clearing cover of story %d: %v", story.ID, err)
		}
	}

	msg := "Story updated successfully!"
	if coverMsg := sc.replaceCover(c, story); coverMsg != "" {
		msg = coverMsg
	}
	redirectWithFlash(c, sc.flasher, storyPath(story.ID), msg)
}

// Delete removes the caller's own story and everything hanging off it.
// POST /story/:id/delete
func (sc *StoriesController) Delete(c *gin.Context) {
	story, ok := sc.loadStory(c)
	if !ok {
		return
	}
	if !story.IsOwnedBy(GetUserID(c)) {
		redirectWithFlash(c, sc.flasher, storyPath(story.ID), "You can only delete your own stories.")
		return
	}

	if err := sc.stories.DeleteStory(c.Request.Context(), story.ID); err != nil {
		if errors.Is(err, stories.ErrNotFound) {
			respondNotFound(c, "story")
			return
		}
		respondInternalError(c, err, "delete story")
		return
	}

	msg := "Story deleted successfully!"
	if story.HasCover() {
		if err := sc.processor.Remove(story.CoverImage); err != nil {
			log.Printf("Error removing cover image of story %d: %v", story.ID, err)
			msg = "Story deleted, but its cover image could not be removed."
		}
	}
	redirectWithFlash(c, sc.flasher, "/", msg)
}

// Cover serves the stored cover image.
// GET /story/:id/cover
func (sc *StoriesController) Cover(c *gin.Context) {
	story, ok := sc.loadStory(c)
	if !ok {
		return
	}
	if !story.HasCover() {
		respondNotFound(c, "cover")
		return
	}

	data, err := sc.processor.Store().Read(covers.NameFromStoredPath(story.CoverImage))
	if errors.Is(err, covers.ErrNotFound) {
		respondNotFound(c, "cover")
		return
	}
	if err != nil {
		respondInternalError(c, err, "read cover")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// replaceCover processes an uploaded cover, if any. It returns a message for
// the user when the upload was rejected or failed.
func (sc *StoriesController) replaceCover(c *gin.Context, story *entities.Story) string {
	fh, err := c.FormFile(coverField)
	if err != nil || fh.Filename == "" {
		return ""
	}
	if !covers.AllowedFile(fh.Filename) {
		return "Invalid file type. Allowed types: png, jpg, jpeg, gif, webp"
	}

	f, err := fh.Open()
	if err != nil {
		log.Printf("Error opening cover upload for story %d: %v", story.ID, err)
		return "Error processing cover image."
	}
	defer f.Close()

	result, err := sc.processor.Process(story.ID, fh.Filename, f)
	if errors.Is(err, covers.ErrImageTooLarge) {
		return "Cover image dimensions are too large."
	}
	if err != nil {
		log.Printf("Error processing cover image for story %d: %v", story.ID, err)
		return "Error processing cover image."
	}

	if err := sc.stories.SetCover(c.Request.Context(), story.ID, result.Path, result.BlurHash); err != nil {
		log.Printf("Error saving cover of story %d: %v", story.ID, err)
		return "Error processing cover image."
	}
	return ""
}

func titleErrorMessage(err error) string {
	switch {
	case errors.Is(err, stories.ErrTitleRequired):
		return "Story title is required."
	case errors.Is(err, stories.ErrTitleTooLong):
		return fmt.Sprintf("Story title must be at most %d characters.", entities.MaxTitleLength)
	}
	return ""
}

// storyDraftFromForm reads title, description, tags and the parallel
// chapter_title[] / chapter_content[] lists.
func storyDraftFromForm(c *gin.Context) (stories.Draft, error) {
	if err := c.Request.ParseMultipartForm(defaultMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return stories.Draft{}, err
	}

	titles := c.PostFormArray("chapter_title[]")
	contents := c.PostFormArray("chapter_content[]")
	n := len(titles)
	if len(contents) < n {
		n = len(contents)
	}

	chapters := make([]stories.ChapterDraft, 0, n)
	for i := 0; i < n; i++ {
		chapters = append(chapters, stories.ChapterDraft{Title: titles[i], Content: contents[i]})
	}

	return stories.Draft{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        utils.ParseTagList(c.PostForm("tags"), entities.MaxTagsPerStory),
		Chapters:    chapters,
	}, nil
}

func uploadErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return "Upload is too large."
	}
	log.Printf("Failed to parse story form: %v", err)
	return "Could not read the submitted form."
}
