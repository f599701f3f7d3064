package http

import (
	"fmt"
	"math"
	"time"

	"github.com/mrlokans/scribe/internal/catalog"
	"github.com/mrlokans/scribe/internal/entities"
)

type AuthorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// StorySummary is a story as listed in the catalog, profiles and the library.
type StorySummary struct {
	ID            uint       `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Author        AuthorView `json:"author"`
	Tags          []string   `json:"tags"`
	ChapterCount  int        `json:"chapter_count"`
	WordCount     int        `json:"word_count"`
	AverageRating float64    `json:"average_rating"`
	RatingCount   int        `json:"rating_count"`
	CoverURL      string     `json:"cover_url,omitempty"`
	CoverBlurHash string     `json:"cover_blur_hash,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUpdated   time.Time  `json:"last_updated"`
}

type ChapterView struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StoryDetail adds chapters and the caller's relation to the story.
type StoryDetail struct {
	StorySummary
	Chapters   []ChapterView `json:"chapters"`
	UserRating *int          `json:"user_rating"`
	Saved      bool          `json:"saved"`
	IsOwner    bool          `json:"is_owner"`
	Flash      string        `json:"flash,omitempty"`
}

// PageView is one page of stories plus navigation state.
type PageView struct {
	Stories     []StorySummary `json:"stories"`
	CurrentPage int            `json:"current_page"`
	TotalPages  int            `json:"total_pages"`
	Total       int64          `json:"total"`
	HasPrev     bool           `json:"has_prev"`
	HasNext     bool           `json:"has_next"`
}

func coverURL(story *entities.Story) string {
	if !story.HasCover() {
		return ""
	}
	return fmt.Sprintf("/story/%d/cover", story.ID)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func newStorySummary(story *entities.Story) StorySummary {
	return StorySummary{
		ID:            story.ID,
		Title:         story.Title,
		Description:   story.Description,
		Author:        AuthorView{ID: story.Author.ID, Username: story.Author.Username},
		Tags:          story.TagNames(),
		ChapterCount:  len(story.Chapters),
		WordCount:     story.WordCount(),
		AverageRating: roundTenth(story.AverageRating()),
		RatingCount:   story.RatingCount(),
		CoverURL:      coverURL(story),
		CoverBlurHash: story.CoverBlurHash,
		CreatedAt:     story.CreatedAt,
		LastUpdated:   story.LastUpdated,
	}
}

func newStoryDetail(story *entities.Story) StoryDetail {
	chapters := make([]ChapterView, 0, len(story.Chapters))
	for _, ch := range story.Chapters {
		chapters = append(chapters, ChapterView{Number: ch.ChapterNumber, Title: ch.Title, Content: ch.Content})
	}
	return StoryDetail{
		StorySummary: newStorySummary(story),
		Chapters:     chapters,
	}
}

func newPageView(page *catalog.Page) PageView {
	summaries := make([]StorySummary, 0, len(page.Stories))
	for i := range page.Stories {
		summaries = append(summaries, newStorySummary(&page.Stories[i]))
	}
	return PageView{
		Stories:     summaries,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
		Total:       page.Total,
		HasPrev:     page.HasPrev(),
		HasNext:     page.HasNext(),
	}
}
