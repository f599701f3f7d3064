package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type TagsController struct {
	store TagStore
}

func NewTagsController(store TagStore) *TagsController {
	return &TagsController{store: store}
}

// List returns every tag with the number of stories carrying it.
// GET /api/tags
func (tc *TagsController) List(c *gin.Context) {
	counts, err := tc.store.ListTagCounts(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, counts)
}
