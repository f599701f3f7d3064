package entities

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTagsPerStory caps how many tags a single story may carry.
	MaxTagsPerStory = 10

	// Column widths, counted in characters.
	MaxTitleLength = 100
	MaxTagLength   = 50

	MinRatingValue = 1
	MaxRatingValue = 5
)

type Story struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Title         string       `gorm:"size:100;not null" json:"title"`
	Description   string       `gorm:"type:text" json:"description,omitempty"`
	UserID        uint         `gorm:"index;not null" json:"user_id"`
	CoverImage    string       `gorm:"size:255" json:"cover_image,omitempty"` // relative to the upload root, e.g. "uploads/12.jpg"
	CoverBlurHash string       `gorm:"size:64" json:"cover_blur_hash,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastUpdated   time.Time    `json:"last_updated"`
	Author        User         `gorm:"foreignKey:UserID" json:"author"`
	Chapters      []Chapter    `gorm:"foreignKey:StoryID" json:"chapters,omitempty"`
	Ratings       []Rating     `gorm:"foreignKey:StoryID" json:"-"`
	SavedBy       []SavedStory `gorm:"foreignKey:StoryID" json:"-"`
	Tags          []Tag        `gorm:"many2many:story_tags;" json:"tags"`
}

type Chapter struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	StoryID       uint   `gorm:"not null;uniqueIndex:idx_story_chapter_number" json:"story_id"`
	ChapterNumber int    `gorm:"not null;uniqueIndex:idx_story_chapter_number" json:"chapter_number"`
	Title         string `gorm:"size:100;not null" json:"title"`
	Content       string `gorm:"type:text;not null" json:"content"`
}

// Tag names are stored normalized (see utils.NormalizeTag) and are shared across stories.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Stories   []Story   `gorm:"many2many:story_tags;" json:"-"`
	CreatedAt time.Time `json:"-"`
}

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rating_user_story" json:"user_id"`
	StoryID   uint      `gorm:"not null;uniqueIndex:idx_rating_user_story" json:"story_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// SavedStory is a library bookmark. It is independent of authorship.
type SavedStory struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uint      `gorm:"not null;uniqueIndex:idx_saved_user_story" json:"user_id"`
	StoryID uint      `gorm:"not null;uniqueIndex:idx_saved_user_story" json:"story_id"`
	SavedAt time.Time `json:"saved_at"`
	Story   Story     `gorm:"foreignKey:StoryID" json:"story"`
	User    User      `gorm:"foreignKey:UserID" json:"-"`
}

func (Story) TableName() string {
	return "stories"
}

func (Chapter) TableName() string {
	return "chapters"
}

func (Tag) TableName() string {
	return "tags"
}

func (Rating) TableName() string {
	return "ratings"
}

func (SavedStory) TableName() string {
	return "saved_stories"
}

// WordCount returns the number of whitespace-delimited tokens across all chapters.
func (s *Story) WordCount() int {
	total := 0
	for _, ch := range s.Chapters {
		total += len(strings.Fields(ch.Content))
	}
	return total
}

// ContentLength returns the total character count of all chapter bodies.
// This is the metric behind the "words" catalog sort and is NOT interchangeable
// with WordCount.
func (s *Story) ContentLength() int {
	total := 0
	for _, ch := range s.Chapters {
		total += utf8.RuneCountInString(ch.Content)
	}
	return total
}

// AverageRating returns the mean rating value, or 0 when the story is unrated.
func (s *Story) AverageRating() float64 {
	if len(s.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range s.Ratings {
		sum += r.Value
	}
	return float64(sum) / float64(len(s.Ratings))
}

func (s *Story) RatingCount() int {
	return len(s.Ratings)
}

func (s *Story) TagNames() []string {
	names := make([]string, 0, len(s.Tags))
	for _, t := range s.Tags {
		names = append(names, t.Name)
	}
	return names
}

func (s *Story) HasCover() bool {
	return s.CoverImage != ""
}

// IsOwnedBy reports whether userID authored the story.
func (s *Story) IsOwnedBy(userID uint) bool {
	return userID != 0 && s.UserID == userID
}

// ValidRatingValue reports whether v is an accepted rating.
func ValidRatingValue(v int) bool {
	return v >= MinRatingValue && v <= MaxRatingValue
}
