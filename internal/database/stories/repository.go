// Package stories provides database operations for the story aggregate:
// catalog queries, chapters, tag links, covers and cascade delete.
//
// # Usage
//
//	repo := stories.NewRepository(db)
//	page, total, err := repo.FindStories(ctx, catalog.Query{Sort: catalog.SortRating}, 0, 20)
package stories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/database/tags"
	"github.com/mrlokans/scribe/internal/entities"
	"github.com/mrlokans/scribe/internal/utils"
)

var (
	ErrNotFound      = errors.New("story not found")
	ErrTitleRequired = errors.New("story title is required")
	ErrTitleTooLong  = errors.New("story title is too long")
)

// Correlated subqueries used for ordering. LENGTH counts characters, so the
// "words" sort orders by content length rather than by word count.
const (
	avgRatingExpr     = "(SELECT AVG(ratings.value) FROM ratings WHERE ratings.story_id = stories.id)"
	contentLengthExpr = "(SELECT COALESCE(SUM(LENGTH(chapters.content)), 0) FROM chapters WHERE chapters.story_id = stories.id)"
	chapterCountExpr  = "(SELECT COUNT(*) FROM chapters WHERE chapters.story_id = stories.id)"
)

var _ catalog.Store = (*Repository)(nil)

// ChapterDraft is one submitted chapter.
type ChapterDraft struct {
	Title   string
	Content string
}

// Draft carries the editable fields of a story.
type Draft struct {
	Title       string
	Description string
	Tags        []string
	Chapters    []ChapterDraft
}

// CoverRef is a story's stored cover path.
type CoverRef struct {
	StoryID    uint
	CoverImage string
}

// Repository handles all story database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new stories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindStories returns one window of stories matching q together with the
// total match count.
func (r *Repository) FindStories(ctx context.Context, q catalog.Query, offset, limit int) ([]entities.Story, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count stories: %w", err)
	}

	query := r.filtered(ctx, q).Select("stories.*")
	query = applySort(query, q.Sort)
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var result []entities.Story
	if err := withDetails(query).Find(&result).Error; err != nil {
		return nil, 0, fmt.Errorf("find stories: %w", err)
	}
	return result, total, nil
}

func (r *Repository) filtered(ctx context.Context, q catalog.Query) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&entities.Story{}).
		Joins("JOIN users ON users.id = stories.user_id")

	f := q.Filter
	if f.Title != "" {
		query = query.Where("LOWER(stories.title) LIKE LOWER(?)", like(f.Title))
	}
	if f.Author != "" {
		query = query.Where("LOWER(users.username) LIKE LOWER(?)", like(f.Author))
	}
	if f.Text != "" {
		pattern := like(f.Text)
		query = query.Where("(LOWER(stories.title) LIKE LOWER(?) OR LOWER(stories.description) LIKE LOWER(?))", pattern, pattern)
	}
	for _, tag := range f.Tags {
		query = query.Where(
			"stories.id IN (SELECT story_tags.story_id FROM story_tags JOIN tags ON tags.id = story_tags.tag_id WHERE tags.name = ?)",
			tag,
		)
	}
	if f.RatingEquals != nil {
		query = query.Where("stories.id IN (SELECT story_id FROM ratings GROUP BY story_id HAVING AVG(value) = ?)", *f.RatingEquals)
	}
	if f.RatingGreaterThan != nil {
		query = query.Where("stories.id IN (SELECT story_id FROM ratings GROUP BY story_id HAVING AVG(value) > ?)", *f.RatingGreaterThan)
	}
	if f.RatingLessThan != nil {
		query = query.Where("stories.id IN (SELECT story_id FROM ratings GROUP BY story_id HAVING AVG(value) < ?)", *f.RatingLessThan)
	}
	if q.AuthorID != 0 {
		query = query.Where("stories.user_id = ?", q.AuthorID)
	}
	return query
}

func applySort(query *gorm.DB, sort catalog.Sort) *gorm.DB {
	switch sort {
	case catalog.SortOldest:
		return query.Order("stories.id ASC")
	case catalog.SortTitle:
		return query.Order("stories.title ASC, stories.id DESC")
	case catalog.SortAuthor:
		return query.Order("users.username ASC, stories.id DESC")
	case catalog.SortWords:
		return query.Order(contentLengthExpr + " DESC, stories.id DESC")
	case catalog.SortChapters:
		return query.Order(chapterCountExpr + " DESC, stories.id DESC")
	case catalog.SortRating:
		return query.Order(avgRatingExpr + " IS NULL, " + avgRatingExpr + " DESC, stories.id DESC")
	default:
		return query.Order("stories.id DESC")
	}
}

func withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.name ASC") }).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("chapters.chapter_number ASC") }).
		Preload("Ratings")
}

func like(s string) string {
	return "%" + s + "%"
}

// GetStoryByID loads a story with its author, tags, ordered chapters and ratings.
func (r *Repository) GetStoryByID(ctx context.Context, id uint) (*entities.Story, error) {
	var story entities.Story
	err := withDetails(r.db.WithContext(ctx)).First(&story, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// StoryExists reports whether a story row with this id is present.
func (r *Repository) StoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Story{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// CreateStory inserts a story with its tags and chapters in one transaction.
func (r *Repository) CreateStory(ctx context.Context, userID uint, draft Draft) (*entities.Story, error) {
	title, err := validTitle(draft.Title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	story := &entities.Story{
		Title:       title,
		Description: strings.TrimSpace(draft.Description),
		UserID:      userID,
		CreatedAt:   now,
		LastUpdated: now,
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(story).Error; err != nil {
			return fmt.Errorf("create story: %w", err)
		}
		if err := setTags(ctx, tx, story.ID, draft.Tags); err != nil {
			return err
		}
		return replaceChapters(tx, story.ID, draft.Chapters)
	})
	if err != nil {
		return nil, err
	}

	return r.GetStoryByID(ctx, story.ID)
}

// UpdateStory rewrites title and description, resets the tag set and
// replaces all chapters. The cover is left untouched.
func (r *Repository) UpdateStory(ctx context.Context, id uint, draft Draft) (*entities.Story, error) {
	title, err := validTitle(draft.Title)
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Story{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":        title,
			"description":  strings.TrimSpace(draft.Description),
			"last_updated": time.Now().UTC(),
		})
		if result.Error != nil {
			return fmt.Errorf("update story: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := setTags(ctx, tx, id, draft.Tags); err != nil {
			return err
		}
		return replaceChapters(tx, id, draft.Chapters)
	})
	if err != nil {
		return nil, err
	}

	return r.GetStoryByID(ctx, id)
}

// ReplaceChapters swaps the story's chapter set for drafts atomically.
func (r *Repository) ReplaceChapters(ctx context.Context, storyID uint, drafts []ChapterDraft) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touch(tx, storyID); err != nil {
			return err
		}
		return replaceChapters(tx, storyID, drafts)
	})
}

// Drafts with an empty title or body are skipped; the rest are numbered from 1.
func replaceChapters(tx *gorm.DB, storyID uint, drafts []ChapterDraft) error {
	if err := tx.Where("story_id = ?", storyID).Delete(&entities.Chapter{}).Error; err != nil {
		return fmt.Errorf("delete chapters: %w", err)
	}

	chapters := make([]entities.Chapter, 0, len(drafts))
	for _, d := range drafts {
		title := strings.TrimSpace(d.Title)
		content := strings.TrimSpace(d.Content)
		if title == "" || content == "" {
			continue
		}
		chapters = append(chapters, entities.Chapter{
			StoryID:       storyID,
			ChapterNumber: len(chapters) + 1,
			Title:         title,
			Content:       content,
		})
	}
	if len(chapters) == 0 {
		return nil
	}

	if err := tx.Create(&chapters).Error; err != nil {
		return fmt.Errorf("create chapters: %w", err)
	}
	return nil
}

// SetTags replaces the story's tag links. Names are normalized, empty and
// duplicate names are dropped and at most entities.MaxTagsPerStory are kept.
func (r *Repository) SetTags(ctx context.Context, storyID uint, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := touch(tx, storyID); err != nil {
			return err
		}
		return setTags(ctx, tx, storyID, names)
	})
}

func setTags(ctx context.Context, tx *gorm.DB, storyID uint, names []string) error {
	if err := tx.Exec("DELETE FROM story_tags WHERE story_id = ?", storyID).Error; err != nil {
		return fmt.Errorf("clear story tags: %w", err)
	}

	tagRepo := tags.NewRepository(tx)
	for _, name := range normalizeTags(names) {
		tag, err := tagRepo.GetOrCreateTag(ctx, name)
		if err != nil {
			return err
		}
		err = tx.Exec(
			"INSERT INTO story_tags (story_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
			storyID, tag.ID,
		).Error
		if err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}
	return nil
}

// validTitle trims the title and checks it fits the title column.
func validTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > entities.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// normalizeTags keeps the first MaxTagsPerStory entries, dropping names
// that normalize to nothing, duplicates and names too long for the column.
func normalizeTags(names []string) []string {
	if len(names) > entities.MaxTagsPerStory {
		names = names[:entities.MaxTagsPerStory]
	}
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, n := range names {
		tag := utils.NormalizeTag(n)
		if tag == "" || seen[tag] || utf8.RuneCountInString(tag) > entities.MaxTagLength {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

func touch(tx *gorm.DB, storyID uint) error {
	result := tx.Model(&entities.Story{}).Where("id = ?", storyID).Update("last_updated", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCover records the stored cover path and its blurhash. It does not
// count as a content update.
func (r *Repository) SetCover(ctx context.Context, id uint, path, blurHash string) error {
	result := r.db.WithContext(ctx).Model(&entities.Story{}).Where("id = ?", id).Updates(map[string]interface{}{
		"cover_image":     path,
		"cover_blur_hash": blurHash,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCover removes the cover reference from a story.
func (r *Repository) ClearCover(ctx context.Context, id uint) error {
	return r.SetCover(ctx, id, "", "")
}

// ListCoverReferences returns every story that has a cover path set.
func (r *Repository) ListCoverReferences(ctx context.Context) ([]CoverRef, error) {
	var refs []CoverRef
	err := r.db.WithContext(ctx).
		Model(&entities.Story{}).
		Select("id AS story_id, cover_image").
		Where("cover_image <> ''").
		Order("id ASC").
		Scan(&refs).Error
	return refs, err
}

// DeleteStory removes the story and everything hanging off it: tag links,
// chapters, ratings and library entries. Cover files are the caller's concern.
func (r *Repository) DeleteStory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM story_tags WHERE story_id = ?", id).Error; err != nil {
			return fmt.Errorf("delete story tags: %w", err)
		}
		if err := tx.Where("story_id = ?", id).Delete(&entities.Chapter{}).Error; err != nil {
			return fmt.Errorf("delete chapters: %w", err)
		}
		if err := tx.Where("story_id = ?", id).Delete(&entities.Rating{}).Error; err != nil {
			return fmt.Errorf("delete ratings: %w", err)
		}
		if err := tx.Where("story_id = ?", id).Delete(&entities.SavedStory{}).Error; err != nil {
			return fmt.Errorf("delete library entries: %w", err)
		}

		result := tx.Delete(&entities.Story{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete story: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
