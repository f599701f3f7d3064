package exporters

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log"
	"strings"

	"github.com/go-pdf/fpdf"
	_ "golang.org/x/image/webp" // Register WebP decoder
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/mrlokans/scribe/internal/entities"
)

const (
	pdfMargin      = 50.0
	coverSideSpace = 100.0 // horizontal room left around the cover
)

// PDFExporter renders a Letter-sized PDF with the core Helvetica font.
type PDFExporter struct {
	compress bool
}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{compress: true}
}

type pdfWriter struct {
	pdf *fpdf.Fpdf
	enc *encoding.Encoder
}

// The core fonts are cp1252; anything outside it becomes '?'.
func (w *pdfWriter) text(s string) string {
	out, err := w.enc.String(s)
	if err != nil {
		return s
	}
	return out
}

func (w *pdfWriter) paragraph(s string, style string, size, lineHeight float64, align string) {
	w.pdf.SetFont("Helvetica", style, size)
	w.pdf.MultiCell(0, lineHeight, w.text(s), "", align, false)
}

func (w *pdfWriter) space(h float64) {
	w.pdf.Ln(h)
}

func (e *PDFExporter) Export(story *entities.Story, cover []byte) (*Document, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle(story.Title, true)
	pdf.SetAuthor(story.Author.Username, true)
	pdf.AddPage()

	w := &pdfWriter{
		pdf: pdf,
		enc: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}

	if len(cover) > 0 {
		if err := addCover(pdf, cover); err != nil {
			log.Printf("Error adding cover image: %v", err)
		}
	}

	w.paragraph(story.Title, "B", 24, 30, "C")
	w.space(12)
	w.paragraph("by "+story.Author.Username, "", 16, 20, "C")
	w.space(48)

	w.paragraph("Story Information", "B", 18, 24, "C")
	w.space(24)

	if len(story.Tags) > 0 {
		w.paragraph("Tags:", "B", 14, 18, "L")
		w.paragraph(strings.Join(story.TagNames(), ", "), "", 12, 15, "L")
		w.space(12)
	}
	if story.Description != "" {
		w.paragraph("Description:", "B", 14, 18, "L")
		w.paragraph(story.Description, "", 12, 15, "L")
		w.space(12)
	}

	w.paragraph("Statistics:", "B", 14, 18, "L")
	w.paragraph(fmt.Sprintf("Chapters: %d", len(story.Chapters)), "", 12, 15, "L")
	w.paragraph(fmt.Sprintf("Word Count: %d", story.WordCount()), "", 12, 15, "L")
	if story.RatingCount() > 0 {
		w.paragraph(ratingLine(story), "", 12, 15, "L")
	}
	w.paragraph("Upload Date: "+formatTimestamp(story.CreatedAt), "", 12, 15, "L")
	w.paragraph("Last Updated: "+formatTimestamp(story.LastUpdated), "", 12, 15, "L")
	w.space(24)

	w.paragraph("Story Content", "B", 18, 24, "C")
	w.space(24)

	for _, ch := range story.Chapters {
		w.paragraph(fmt.Sprintf("Chapter %d: %s", ch.ChapterNumber, ch.Title), "B", 16, 20, "L")
		w.space(12)
		for _, para := range paragraphs(ch.Content) {
			w.paragraph(para, "", 12, 15, "L")
			w.space(6)
		}
		w.space(18)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return &Document{
		Data:        buf.Bytes(),
		Filename:    story.Title + ".pdf",
		ContentType: "application/pdf",
	}, nil
}

// addCover scales the cover to fit the page width minus margins and half
// the page height, keeping its aspect ratio. The image is re-encoded as
// JPEG first so undecodable data never reaches fpdf.
func addCover(pdf *fpdf.Fpdf, data []byte) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode cover: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return fmt.Errorf("encode cover: %w", err)
	}

	pageW, pageH := pdf.GetPageSize()
	maxW := pageW - coverSideSpace
	maxH := pageH / 2

	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	if w <= 0 || h <= 0 {
		return fmt.Errorf("cover has no pixels")
	}
	aspect := h / w
	if w > maxW {
		w = maxW
		h = w * aspect
	}
	if h > maxH {
		h = maxH
		w = h / aspect
	}

	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader("cover", opts, &buf)
	y := pdf.GetY()
	pdf.ImageOptions("cover", (pageW-w)/2, y, w, h, false, opts, 0, "")
	pdf.SetY(y + h + 24)
	return nil
}

// paragraphs splits chapter text on blank lines, keeping single newlines.
func paragraphs(content string) []string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	var result []string
	for _, p := range strings.Split(normalized, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
