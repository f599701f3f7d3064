// Package library provides database operations for users' saved stories.
package library

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/scribe/internal/entities"
)

// Repository handles all library database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new library repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ToggleSaved adds the story to the user's library, or removes it when it
// is already there. It returns the resulting state.
func (r *Repository) ToggleSaved(ctx context.Context, userID, storyID uint) (bool, error) {
	saved := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.SavedStory
		err := tx.Where("user_id = ? AND story_id = ?", userID, storyID).First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = true
			return tx.Omit("Story", "User").Create(&entities.SavedStory{
				UserID:  userID,
				StoryID: storyID,
				SavedAt: time.Now().UTC(),
			}).Error
		default:
			return err
		}
	})
	if err != nil {
		return false, fmt.Errorf("toggle saved story: %w", err)
	}
	return saved, nil
}

// IsSaved reports whether the story is in the user's library.
func (r *Repository) IsSaved(ctx context.Context, userID, storyID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.SavedStory{}).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Count(&count).Error
	return count > 0, err
}

// ListSaved returns the user's library, most recently saved first.
func (r *Repository) ListSaved(ctx context.Context, userID uint) ([]entities.SavedStory, error) {
	var saved []entities.SavedStory
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Story").
		Preload("Story.Author").
		Preload("Story.Tags").
		Preload("Story.Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.chapter_number ASC") }).
		Preload("Story.Ratings").
		Order("saved_at DESC, id DESC").
		Find(&saved).Error
	return saved, err
}
