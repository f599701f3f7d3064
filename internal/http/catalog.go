package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/search"
)

// CatalogResponse is the body of the catalog endpoints.
type CatalogResponse struct {
	PageView
	Search string `json:"search"`
	Sort   string `json:"sort"`
	Flash  string `json:"flash,omitempty"`
}

type CatalogController struct {
	engine  *catalog.Engine
	flasher Flasher
}

func NewCatalogController(store catalog.Store, flasher Flasher) *CatalogController {
	return &CatalogController{engine: catalog.NewEngine(store), flasher: flasher}
}

// Index lists the catalog.
// GET /?search=&sort=&page=
func (cc *CatalogController) Index(c *gin.Context) {
	raw := c.Query("search")
	sort := catalog.ParseSort(c.Query("sort"))

	page, err := cc.engine.Search(c.Request.Context(), catalog.Request{
		Query: catalog.Query{
			Filter: search.Parse(raw),
			Sort:   sort,
		},
		Page:     pageParam(c),
		PageSize: catalog.CatalogPageSize,
	})
	if err != nil {
		respondInternalError(c, err, "catalog search")
		return
	}

	c.JSON(http.StatusOK, CatalogResponse{
		PageView: newPageView(page),
		Search:   raw,
		Sort:     string(sort),
		Flash:    popFlash(c, cc.flasher),
	})
}
