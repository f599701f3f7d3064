// Package ratings provides database operations for story ratings.
//
// A user holds at most one rating per story; rating again replaces the value.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/scribe/internal/entities"
)

var (
	ErrNotFound     = errors.New("rating not found")
	ErrInvalidValue = errors.New("invalid rating value")
)

// Repository handles all rating database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertRating creates or replaces the user's rating of a story.
func (r *Repository) UpsertRating(ctx context.Context, userID, storyID uint, value int) error {
	if !entities.ValidRatingValue(value) {
		return ErrInvalidValue
	}

	rating := &entities.Rating{
		UserID:    userID,
		StoryID:   storyID,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "story_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(rating).Error
	if err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// RemoveRating deletes the user's rating and reports whether one existed.
func (r *Repository) RemoveRating(ctx context.Context, userID, storyID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		Delete(&entities.Rating{})
	if result.Error != nil {
		return false, fmt.Errorf("remove rating: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetRating returns the user's rating of a story.
func (r *Repository) GetRating(ctx context.Context, userID, storyID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND story_id = ?", userID, storyID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}
