package catalog_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/database"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/entities"
	"github.com/mrlokans/scribe/internal/search"
)

func setupEngine(t *testing.T) (*database.Database, *stories.Repository, *catalog.Engine) {
	t.Helper()
	db, err := database.Open(database.Options{
		Path:     filepath.Join(t.TempDir(), "catalog.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := stories.NewRepository(db.DB)
	return db, repo, catalog.NewEngine(repo)
}

func TestEngine_SearchByTitleModifier(t *testing.T) {
	db, repo, engine := setupEngine(t)
	ctx := context.Background()

	author := &entities.User{Username: "author"}
	require.NoError(t, db.DB.Create(author).Error)
	fantasy, err := repo.CreateStory(ctx, author.ID, stories.Draft{Title: "Fantasy Story"})
	require.NoError(t, err)
	_, err = repo.CreateStory(ctx, author.ID, stories.Draft{Title: "Adventure Story"})
	require.NoError(t, err)

	page, err := engine.Search(ctx, catalog.Request{
		Query: catalog.Query{Filter: search.Parse(`title:"Fantasy"`)},
		Page:  1,
	})
	require.NoError(t, err)

	require.Len(t, page.Stories, 1)
	assert.Equal(t, fantasy.ID, page.Stories[0].ID)
	assert.Equal(t, int64(1), page.Total)
}

func TestEngine_RatingModifierBounds(t *testing.T) {
	db, repo, engine := setupEngine(t)
	ctx := context.Background()

	author := &entities.User{Username: "author"}
	require.NoError(t, db.DB.Create(author).Error)
	story, err := repo.CreateStory(ctx, author.ID, stories.Draft{Title: "Rated"})
	require.NoError(t, err)
	for i, v := range []int{4, 5} {
		rater := &entities.User{Username: fmt.Sprintf("rater%d", i)}
		require.NoError(t, db.DB.Create(rater).Error)
		require.NoError(t, db.DB.Create(&entities.Rating{UserID: rater.ID, StoryID: story.ID, Value: v}).Error)
	}

	page, err := engine.Search(ctx, catalog.Request{Query: catalog.Query{Filter: search.Parse(`rating_more_than:"4"`)}})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.Equal(t, story.ID, page.Stories[0].ID)

	page, err = engine.Search(ctx, catalog.Request{Query: catalog.Query{Filter: search.Parse(`rating_more_than:"5"`)}})
	require.NoError(t, err)
	assert.Empty(t, page.Stories)
	assert.Equal(t, 0, page.TotalPages)
	assert.Equal(t, 1, page.CurrentPage)
}

func TestEngine_ClampsPastLastPage(t *testing.T) {
	db, repo, engine := setupEngine(t)
	ctx := context.Background()

	author := &entities.User{Username: "prolific"}
	require.NoError(t, db.DB.Create(author).Error)
	for i := 0; i < 45; i++ {
		_, err := repo.CreateStory(ctx, author.ID, stories.Draft{Title: fmt.Sprintf("Story %d", i+1)})
		require.NoError(t, err)
	}

	page, err := engine.Search(ctx, catalog.Request{Page: 10})
	require.NoError(t, err)

	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Stories, 5)
	assert.Equal(t, "Story 5", page.Stories[0].Title)
}
