package http

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scribe/internal/database/stories"
)

func TestCatalogController_Index(t *testing.T) {
	app := setupTestApp(t)
	author, _ := app.signUp("marlow")

	app.createStory(author.ID, "Fantasy Story", []string{"fantasy"}, stories.ChapterDraft{Title: "One", Content: "short"})
	app.createStory(author.ID, "Another Tale", []string{"drama"}, stories.ChapterDraft{Title: "One", Content: "a much longer chapter body"})
	app.createStory(author.ID, "Beginning", nil)

	t.Run("lists newest first", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/", nil, &resp)

		require.Len(t, resp.Stories, 3)
		assert.Equal(t, "Beginning", resp.Stories[0].Title)
		assert.Equal(t, int64(3), resp.Total)
		assert.Equal(t, 1, resp.CurrentPage)
		assert.Equal(t, 1, resp.TotalPages)
		assert.Equal(t, "marlow", resp.Stories[0].Author.Username)
	})

	t.Run("applies search modifiers", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/api/stories?search="+url.QueryEscape(`title:"fantasy"`), nil, &resp)

		require.Len(t, resp.Stories, 1)
		assert.Equal(t, "Fantasy Story", resp.Stories[0].Title)
		assert.Equal(t, []string{"fantasy"}, resp.Stories[0].Tags)
	})

	t.Run("unstructured text matches title", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/?search=tale", nil, &resp)

		require.Len(t, resp.Stories, 1)
		assert.Equal(t, "Another Tale", resp.Stories[0].Title)
	})

	t.Run("sorts by content length", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/?sort=words", nil, &resp)

		require.Len(t, resp.Stories, 3)
		assert.Equal(t, "Another Tale", resp.Stories[0].Title)
		assert.Equal(t, "words", resp.Sort)
	})

	t.Run("unknown sort falls back to newest", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/?sort=bogus", nil, &resp)

		assert.Equal(t, "", resp.Sort)
		assert.Equal(t, "Beginning", resp.Stories[0].Title)
	})

	t.Run("clamps out of range page", func(t *testing.T) {
		var resp CatalogResponse
		app.getJSON("/?page=99", nil, &resp)

		assert.Equal(t, 1, resp.CurrentPage)
		assert.Len(t, resp.Stories, 3)
	})
}

func TestCatalogController_Pagination(t *testing.T) {
	app := setupTestApp(t)
	author, _ := app.signUp("marlow")
	for i := 1; i <= 45; i++ {
		app.createStory(author.ID, fmt.Sprintf("Story %d", i), nil)
	}

	var resp CatalogResponse
	app.getJSON("/?page=3", nil, &resp)

	assert.Equal(t, 3, resp.CurrentPage)
	assert.Equal(t, 3, resp.TotalPages)
	assert.True(t, resp.HasPrev)
	assert.False(t, resp.HasNext)
	require.Len(t, resp.Stories, 5)
	assert.Equal(t, "Story 5", resp.Stories[0].Title)
}

func TestCatalogController_EmptyCatalog(t *testing.T) {
	app := setupTestApp(t)

	w := app.get("/?search="+url.QueryEscape(`rating_more_than:"5"`), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp CatalogResponse
	app.getJSON("/?page=4", nil, &resp)
	assert.Empty(t, resp.Stories)
	assert.Equal(t, 1, resp.CurrentPage)
	assert.Equal(t, 0, resp.TotalPages)
}

func TestTagsController_List(t *testing.T) {
	app := setupTestApp(t)
	author, _ := app.signUp("marlow")
	app.createStory(author.ID, "One", []string{"magic", "sea"})
	app.createStory(author.ID, "Two", []string{"magic"})

	var counts []struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	app.getJSON("/api/tags", nil, &counts)

	require.Len(t, counts, 2)
	assert.Equal(t, "magic", counts[0].Name)
	assert.Equal(t, int64(2), counts[0].Count)
}
