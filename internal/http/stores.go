package http

import (
	"context"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/database/library"
	"github.com/mrlokans/scribe/internal/database/ratings"
	"github.com/mrlokans/scribe/internal/database/stories"
	"github.com/mrlokans/scribe/internal/database/tags"
	"github.com/mrlokans/scribe/internal/database/users"
	"github.com/mrlokans/scribe/internal/entities"
)

// Each controller depends on the narrow slice of persistence it uses.
// The repositories under internal/database satisfy these.

// StoryStore provides story reads and authoring writes.
type StoryStore interface {
	catalog.Store
	GetStoryByID(ctx context.Context, id uint) (*entities.Story, error)
	CreateStory(ctx context.Context, userID uint, draft stories.Draft) (*entities.Story, error)
	UpdateStory(ctx context.Context, id uint, draft stories.Draft) (*entities.Story, error)
	DeleteStory(ctx context.Context, id uint) error
	SetCover(ctx context.Context, id uint, path, blurHash string) error
	ClearCover(ctx context.Context, id uint) error
}

// RatingStore manages one rating per user and story.
type RatingStore interface {
	UpsertRating(ctx context.Context, userID, storyID uint, value int) error
	RemoveRating(ctx context.Context, userID, storyID uint) (bool, error)
	GetRating(ctx context.Context, userID, storyID uint) (*entities.Rating, error)
}

// LibraryStore manages saved-story bookmarks.
type LibraryStore interface {
	ToggleSaved(ctx context.Context, userID, storyID uint) (bool, error)
	IsSaved(ctx context.Context, userID, storyID uint) (bool, error)
	ListSaved(ctx context.Context, userID uint) ([]entities.SavedStory, error)
}

// UserStore provides author lookups and profile edits.
type UserStore interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
	UpdateBio(ctx context.Context, userID uint, bio string) error
	GetAuthorStats(ctx context.Context, userID uint) (*users.AuthorStats, error)
}

// TagStore lists tags for suggestions.
type TagStore interface {
	ListTagCounts(ctx context.Context) ([]tags.TagCount, error)
}

var (
	_ StoryStore   = (*stories.Repository)(nil)
	_ RatingStore  = (*ratings.Repository)(nil)
	_ LibraryStore = (*library.Repository)(nil)
	_ UserStore    = (*users.Repository)(nil)
	_ TagStore     = (*tags.Repository)(nil)
)
