// Package tags provides database operations for tag management.
//
// Tag names are global and stored in normalized form; callers pass names
// through utils.NormalizeTag first. Tags are never garbage-collected.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.GetOrCreateTag(ctx, "fantasy")
package tags

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/scribe/internal/entities"
)

var (
	ErrNotFound    = errors.New("tag not found")
	ErrNameTooLong = errors.New("tag name is too long")
)

// TagCount is a tag name with the number of stories carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetTagByName returns the tag with exactly this (normalized) name.
func (r *Repository) GetTagByName(ctx context.Context, name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// GetOrCreateTag returns the tag named name, creating it if needed. A
// concurrent insert of the same name is absorbed by the unique index.
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*entities.Tag, error) {
	if name == "" {
		return nil, fmt.Errorf("tag name is required")
	}
	if utf8.RuneCountInString(name) > entities.MaxTagLength {
		return nil, ErrNameTooLong
	}

	tag, err := r.GetTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := &entities.Tag{Name: name}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(created).Error
	if err != nil {
		return nil, fmt.Errorf("create tag %q: %w", name, err)
	}
	if created.ID != 0 {
		return created, nil
	}

	// Lost the race; the row exists now.
	return r.GetTagByName(ctx, name)
}

// ListTags returns every tag ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

// ListTagCounts returns tags with the number of stories using each, most used first.
func (r *Repository) ListTagCounts(ctx context.Context) ([]TagCount, error) {
	var counts []TagCount
	err := r.db.WithContext(ctx).
		Table("tags").
		Select("tags.name AS name, COUNT(story_tags.story_id) AS count").
		Joins("LEFT JOIN story_tags ON story_tags.tag_id = tags.id").
		Group("tags.id, tags.name").
		Order("count DESC, tags.name ASC").
		Scan(&counts).Error
	return counts, err
}
