// Package exporters renders a fully loaded story into downloadable documents.
//
// Exporters are pure: they read the story and optional cover bytes and
// return the finished document in memory. Nothing is written to the client
// until generation has succeeded.
package exporters

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mrlokans/scribe/internal/covers"
	"github.com/mrlokans/scribe/internal/entities"
)

const (
	FormatPDF  = "pdf"
	FormatEPUB = "epub"

	// Human-readable UTC timestamp used on information pages.
	displayTimeLayout = "January 02, 2006 at 03:04 PM UTC"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Document is a rendered export.
type Document struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Exporter renders one story. cover may be nil.
type Exporter interface {
	Export(story *entities.Story, cover []byte) (*Document, error)
}

// ForFormat returns the exporter for a format token.
func ForFormat(format string) (Exporter, bool) {
	switch strings.ToLower(format) {
	case FormatPDF:
		return NewPDFExporter(), true
	case FormatEPUB:
		return NewEPUBExporter(), true
	default:
		return nil, false
	}
}

// Service loads the cover from the store and delegates to the format's exporter.
type Service struct {
	covers covers.Store
}

func NewService(store covers.Store) *Service {
	return &Service{covers: store}
}

// Export renders story in format. A cover that cannot be read is logged
// and the document is produced without it.
func (s *Service) Export(format string, story *entities.Story) (*Document, error) {
	exporter, ok := ForFormat(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var cover []byte
	if story.HasCover() && s.covers != nil {
		data, err := s.covers.Read(covers.NameFromStoredPath(story.CoverImage))
		if err != nil {
			log.Printf("Error adding cover image for story %d: %v", story.ID, err)
		} else {
			cover = data
		}
	}

	doc, err := exporter.Export(story, cover)
	if err != nil {
		return nil, fmt.Errorf("export story %d as %s: %w", story.ID, format, err)
	}
	return doc, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(displayTimeLayout)
}

func ratingLine(story *entities.Story) string {
	return fmt.Sprintf("Average Rating: %.1f (%d ratings)", story.AverageRating(), story.RatingCount())
}
