package http

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/exporters"
	"github.com/mrlokans/scribe/internal/utils"
)

type ExportController struct {
	stories  StoryStore
	exporter *exporters.Service
	flasher  Flasher
}

func NewExportController(storyStore StoryStore, exporter *exporters.Service, flasher Flasher) *ExportController {
	return &ExportController{stories: storyStore, exporter: exporter, flasher: flasher}
}

// Download renders a story as PDF or EPUB. The document is built fully in
// memory, so a failed export never sends a partial file.
// GET /story/:id/download/:format
func (ec *ExportController) Download(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	format := c.Param("format")
	if _, known := exporters.ForFormat(format); !known {
		c.Redirect(http.StatusFound, "/")
		return
	}

	story, err := ec.stories.GetStoryByID(c.Request.Context(), id)
	if errors.Is(err, stories.ErrNotFound) {
		respondNotFound(c, "story")
		return
	}
	if err != nil {
		respondInternalError(c, err, "load story")
		return
	}

	doc, err := ec.exporter.Export(format, story)
	if err != nil {
		log.Printf("Export of story %d as %s failed: %v", story.ID, format, err)
		redirectWithFlash(c, ec.flasher, storyPath(story.ID), "Could not generate the download. Please try again.")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": utils.SanitizeFilename(doc.Filename),
	}))
	c.Header("Content-Length", strconv.Itoa(len(doc.Data)))
	c.Data(http.StatusOK, doc.ContentType, doc.Data)
}
