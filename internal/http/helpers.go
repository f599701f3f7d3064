package http

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/auth"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Flasher carries one-shot messages across a redirect.
type Flasher interface {
	Flash(r *http.Request, message string)
	PopFlash(r *http.Request) string
}

// --- Error Response Helpers ---

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// --- Redirect Helpers ---

// redirectWithFlash stores message for the next page and sends the client to target.
func redirectWithFlash(c *gin.Context, flasher Flasher, target, message string) {
	if message != "" {
		if flasher != nil {
			flasher.Flash(c.Request, message)
		} else {
			log.Printf("Flash (no session): %s", message)
		}
	}
	c.Redirect(http.StatusSeeOther, target)
}

func popFlash(c *gin.Context, flasher Flasher) string {
	if flasher == nil {
		return ""
	}
	return flasher.PopFlash(c.Request)
}

func storyPath(id uint) string {
	return fmt.Sprintf("/story/%d", id)
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// pageParam reads ?page=, treating anything unparsable as the first page.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// GetUserID extracts the signed-in user's ID from the Gin context; 0 when anonymous.
func GetUserID(c *gin.Context) uint {
	return auth.GetUserID(c)
}
