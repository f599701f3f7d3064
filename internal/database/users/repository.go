// Package users provides database operations for user management and
// author statistics.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByUsername(ctx, "alice")
//	stats, err := repo.GetAuthorStats(ctx, user.ID)
package users

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/scribe/internal/entities"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrUserExists = errors.New("username already exists")
)

// TagUsage is a tag name with how many of an author's stories carry it.
type TagUsage struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// AuthorStats summarizes an author's body of work.
type AuthorStats struct {
	TotalStories     int       `json:"total_stories"`
	TotalChapters    int       `json:"total_chapters"`
	TotalWords       int       `json:"total_words"`
	AvgWordsPerStory int       `json:"avg_words_per_story"`
	AvgRating        float64   `json:"avg_rating"` // over every rating of every story, one decimal
	RatingCount      int       `json:"rating_count"`
	MostUsedTag      *TagUsage `json:"most_used_tag,omitempty"`
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user with an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by exact username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateBio stores the trimmed biography.
func (r *Repository) UpdateBio(ctx context.Context, userID uint, bio string) error {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", userID).Update("about_me", strings.TrimSpace(bio))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAuthorStats aggregates over all of the author's stories.
func (r *Repository) GetAuthorStats(ctx context.Context, userID uint) (*AuthorStats, error) {
	var stories []entities.Story
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Chapters").
		Preload("Ratings").
		Preload("Tags").
		Order("id ASC").
		Find(&stories).Error
	if err != nil {
		return nil, fmt.Errorf("load author stories: %w", err)
	}

	stats := &AuthorStats{TotalStories: len(stories)}
	ratingSum := 0
	tagCounts := make(map[string]int)
	var tagOrder []string

	for i := range stories {
		s := &stories[i]
		stats.TotalChapters += len(s.Chapters)
		stats.TotalWords += s.WordCount()
		for _, rating := range s.Ratings {
			ratingSum += rating.Value
			stats.RatingCount++
		}
		for _, tag := range s.Tags {
			if _, seen := tagCounts[tag.Name]; !seen {
				tagOrder = append(tagOrder, tag.Name)
			}
			tagCounts[tag.Name]++
		}
	}

	if stats.TotalStories > 0 {
		stats.AvgWordsPerStory = int(math.Round(float64(stats.TotalWords) / float64(stats.TotalStories)))
	}
	if stats.RatingCount > 0 {
		stats.AvgRating = math.Round(float64(ratingSum)/float64(stats.RatingCount)*10) / 10
	}

	// Ties go to the tag seen first.
	for _, name := range tagOrder {
		if stats.MostUsedTag == nil || tagCounts[name] > stats.MostUsedTag.Count {
			stats.MostUsedTag = &TagUsage{Name: name, Count: tagCounts[name]}
		}
	}

	return stats, nil
}
