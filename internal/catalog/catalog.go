// Package catalog turns a parsed search filter and a sort option into a
// filtered, sorted, paginated page of stories.
package catalog

import (
	"context"
	"fmt"

	"github.com/mrlokans/scribe/internal/entities"
	"github.com/mrlokans/scribe/internal/search"
)

const (
	// CatalogPageSize is the page size of the public catalog.
	CatalogPageSize = 20
	// ProfilePageSize is the page size of author and profile listings.
	ProfilePageSize = 10
)

// Sort selects the catalog ordering.
type Sort string

const (
	SortNewest   Sort = ""         // creation order, newest first
	SortOldest   Sort = "asc"      // creation order, oldest first
	SortWords    Sort = "words"    // total chapter character length, longest first
	SortChapters Sort = "chapters" // chapter count, most first
	SortRating   Sort = "rating"   // average rating, highest first, unrated last
	SortTitle    Sort = "title"    // title A-Z
	SortAuthor   Sort = "author"   // author username A-Z
)

// ParseSort maps a request parameter to a Sort. Unknown values fall back to SortNewest.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortWords, SortChapters, SortRating, SortTitle, SortAuthor:
		return Sort(s)
	default:
		return SortNewest
	}
}

// Query is what the store needs to select and order stories.
type Query struct {
	Filter search.Filter
	Sort   Sort

	// AuthorID restricts results to one author's stories when non-zero.
	AuthorID uint
}

// Store is the persistence contract consumed by the engine. total is the
// number of stories matching q regardless of offset and limit.
type Store interface {
	FindStories(ctx context.Context, q Query, offset, limit int) (stories []entities.Story, total int64, err error)
}

// Request describes one catalog page lookup.
type Request struct {
	Query
	Page     int // 1-based; out-of-range values are clamped
	PageSize int // defaults to CatalogPageSize
}

// Page is one slice of the catalog.
type Page struct {
	Stories     []entities.Story
	CurrentPage int
	TotalPages  int
	Total       int64
	PageSize    int
}

func (p *Page) HasPrev() bool {
	return p.CurrentPage > 1
}

func (p *Page) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Search returns the requested page, clamped into [1, TotalPages].
// With no results the page is 1 and TotalPages is 0.
func (e *Engine) Search(ctx context.Context, req Request) (*Page, error) {
	size := req.PageSize
	if size <= 0 {
		size = CatalogPageSize
	}
	requested := req.Page
	if requested < 1 {
		requested = 1
	}

	stories, total, err := e.store.FindStories(ctx, req.Query, offsetFor(requested, size), size)
	if err != nil {
		return nil, fmt.Errorf("find stories: %w", err)
	}

	totalPages := TotalPages(total, size)
	page := ClampPage(requested, totalPages)

	if page != requested {
		stories, total, err = e.store.FindStories(ctx, req.Query, offsetFor(page, size), size)
		if err != nil {
			return nil, fmt.Errorf("find stories: %w", err)
		}
		totalPages = TotalPages(total, size)
	}

	return &Page{
		Stories:     stories,
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		PageSize:    size,
	}, nil
}

// TotalPages returns ceil(total/size).
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// ClampPage forces page into [1, totalPages], or 1 when there are no pages.
func ClampPage(page, totalPages int) int {
	if totalPages <= 0 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func offsetFor(page, size int) int {
	return (page - 1) * size
}
