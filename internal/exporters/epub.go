package exporters

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"image"
	"log"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/scribe/internal/entities"
)

const epubTimeLayout = "2006-01-02T15:04:05Z"

// epubStyle is shared by every content document.
const epubStyle = `body {
    font-family: Cambria, Liberation Serif, Bitstream Vera Serif, Georgia, Times, Times New Roman, serif;
}
.title-page {
    text-align: center;
    margin: 4em 0;
}
.title-page .title {
    font-size: 2em;
    margin-bottom: 0.5em;
}
.title-page .author {
    font-size: 1.5em;
    color: #666;
}
.metadata {
    margin: 2em 0;
}
.metadata h2 {
    color: #666;
    margin-top: 1em;
    margin-bottom: 0.5em;
}
.metadata p {
    margin: 0 0 1em 0;
}
`

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// xmlChar reports whether r is allowed by the XML 1.0 Char production.
func xmlChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// xmlText drops characters XML cannot carry and escapes the rest.
func xmlText(s string) string {
	return html.EscapeString(strings.Map(func(r rune) rune {
		if xmlChar(r) {
			return r
		}
		return -1
	}, s))
}

var epubTemplates = template.Must(template.New("epub").Funcs(template.FuncMap{
	"esc": xmlText,
}).Parse(`
{{define "opf"}}<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:identifier id="id">{{.Identifier}}</dc:identifier>
    <dc:title>{{esc .Title}}</dc:title>
    <dc:language>en</dc:language>
    <dc:creator id="creator">{{esc .Author}}</dc:creator>
    <dc:date>{{.Created}}</dc:date>
    <meta property="dcterms:modified">{{.Modified}}</meta>
{{- range .Tags}}
    <dc:subject>{{esc .}}</dc:subject>
{{- end}}
{{- if .Rated}}
    <meta name="scribe:rating" content="{{.Rating}}"/>
    <meta name="scribe:rating_count" content="{{.RatingCount}}"/>
{{- end}}
{{- if .Cover}}
    <meta name="cover" content="cover-image"/>
{{- end}}
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="style_nav" href="style/nav.css" media-type="text/css"/>
{{- if .Cover}}
    <item id="cover-image" href="{{.Cover.Name}}" media-type="{{.Cover.MediaType}}" properties="cover-image"/>
{{- end}}
    <item id="title" href="title.xhtml" media-type="application/xhtml+xml"/>
    <item id="metadata" href="metadata.xhtml" media-type="application/xhtml+xml"/>
{{- range .Chapters}}
    <item id="{{.ID}}" href="{{.File}}" media-type="application/xhtml+xml"/>
{{- end}}
  </manifest>
  <spine toc="ncx">
    <itemref idref="nav"/>
    <itemref idref="title"/>
    <itemref idref="metadata"/>
{{- range .Chapters}}
    <itemref idref="{{.ID}}"/>
{{- end}}
  </spine>
</package>
{{end}}

{{define "ncx"}}<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="{{.Identifier}}"/>
    <meta name="dtb:depth" content="2"/>
    <meta name="dtb:totalPageCount" content="0"/>
    <meta name="dtb:maxPageNumber" content="0"/>
  </head>
  <docTitle><text>{{esc .Title}}</text></docTitle>
  <navMap>
    <navPoint id="title" playOrder="1"><navLabel><text>Title Page</text></navLabel><content src="title.xhtml"/></navPoint>
    <navPoint id="metadata" playOrder="2"><navLabel><text>Story Information</text></navLabel><content src="metadata.xhtml"/></navPoint>
{{- if .Chapters}}
    <navPoint id="chapters" playOrder="{{(index .Chapters 0).PlayOrder}}"><navLabel><text>Chapters</text></navLabel><content src="{{(index .Chapters 0).File}}"/>
{{- range $i, $c := .Chapters}}
      <navPoint id="{{$c.ID}}" playOrder="{{$c.PlayOrder}}"><navLabel><text>{{esc $c.Title}}</text></navLabel><content src="{{$c.File}}"/></navPoint>
{{- end}}
    </navPoint>
{{- end}}
  </navMap>
</ncx>
{{end}}

{{define "head"}}<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="en" xml:lang="en">
<head>
  <title>{{esc .}}</title>
  <link rel="stylesheet" type="text/css" href="style/nav.css"/>
</head>
{{end}}

{{define "nav"}}{{template "head" .Title}}<body>
  <nav epub:type="toc" id="toc">
    <h1>{{esc .Title}}</h1>
    <ol>
      <li><a href="title.xhtml">Title Page</a></li>
      <li><a href="metadata.xhtml">Story Information</a></li>
{{- if .Chapters}}
      <li><span>Chapters</span>
        <ol>
{{- range .Chapters}}
          <li><a href="{{.File}}">{{esc .Title}}</a></li>
{{- end}}
        </ol>
      </li>
{{- end}}
    </ol>
  </nav>
</body>
</html>
{{end}}

{{define "title"}}{{template "head" "Title Page"}}<body>
  <div class="title-page">
    <h1 class="title">{{esc .Title}}</h1>
    <h2 class="author">by {{esc .Author}}</h2>
  </div>
</body>
</html>
{{end}}

{{define "metadata"}}{{template "head" "Story Information"}}<body>
  <h1>Story Information</h1>
  <div class="metadata">
    <h2>Tags</h2>
    <p>{{if .Tags}}{{esc .TagList}}{{else}}No tags{{end}}</p>

    <h2>Description</h2>
    <p>{{if .Description}}{{esc .Description}}{{else}}No description{{end}}</p>

    <h2>Statistics</h2>
    <p>Chapters: {{len .Chapters}}</p>
    <p>Word Count: {{.WordCount}}</p>
{{- if .Rated}}
    <p>{{.RatingLine}}</p>
{{- end}}
    <p>Upload Date: {{.CreatedDisplay}}</p>
    <p>Last Updated: {{.UpdatedDisplay}}</p>
  </div>
</body>
</html>
{{end}}

{{define "chapter"}}{{template "head" .Title}}<body>
  <h1>Chapter {{.Number}}: {{esc .Title}}</h1>
{{- range .Paragraphs}}
  <p>{{esc .}}</p>
{{- end}}
</body>
</html>
{{end}}
`))

type epubCover struct {
	Name      string
	MediaType string
	Data      []byte
}

type epubChapter struct {
	ID         string
	File       string
	Title      string
	Number     int
	PlayOrder  int
	Paragraphs []string
}

type epubBook struct {
	Identifier     string
	Title          string
	Author         string
	Created        string
	Modified       string
	CreatedDisplay string
	UpdatedDisplay string
	Description    string
	Tags           []string
	TagList        string
	WordCount      int
	Rated          bool
	Rating         string
	RatingCount    int
	RatingLine     string
	Cover          *epubCover
	Chapters       []epubChapter
}

// EPUBExporter packages the story as an EPUB 3 book that also carries an
// NCX table of contents for EPUB 2 readers.
type EPUBExporter struct{}

func NewEPUBExporter() *EPUBExporter {
	return &EPUBExporter{}
}

// StoryIdentifier is the stable book identifier for a story.
func StoryIdentifier(storyID uint) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("story_%d", storyID))).String()
}

func (e *EPUBExporter) Export(story *entities.Story, cover []byte) (*Document, error) {
	book := newEPUBBook(story, cover)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := story.LastUpdated.UTC()
	if modified.IsZero() {
		modified = time.Now().UTC()
	}

	// The mimetype entry must come first and be stored uncompressed.
	if err := writeZipEntry(zw, "mimetype", []byte("application/epub+zip"), zip.Store, modified); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "META-INF/container.xml", []byte(containerXML), zip.Deflate, modified); err != nil {
		return nil, err
	}

	entries := []struct {
		name string
		tmpl string
		data interface{}
	}{
		{"OEBPS/content.opf", "opf", book},
		{"OEBPS/toc.ncx", "ncx", book},
		{"OEBPS/nav.xhtml", "nav", book},
		{"OEBPS/title.xhtml", "title", book},
		{"OEBPS/metadata.xhtml", "metadata", book},
	}
	for _, ch := range book.Chapters {
		entries = append(entries, struct {
			name string
			tmpl string
			data interface{}
		}{"OEBPS/" + ch.File, "chapter", ch})
	}

	for _, entry := range entries {
		var content bytes.Buffer
		if err := epubTemplates.ExecuteTemplate(&content, entry.tmpl, entry.data); err != nil {
			return nil, fmt.Errorf("render %s: %w", entry.name, err)
		}
		if err := writeZipEntry(zw, entry.name, content.Bytes(), zip.Deflate, modified); err != nil {
			return nil, err
		}
	}

	if err := writeZipEntry(zw, "OEBPS/style/nav.css", []byte(epubStyle), zip.Deflate, modified); err != nil {
		return nil, err
	}
	if book.Cover != nil {
		if err := writeZipEntry(zw, "OEBPS/"+book.Cover.Name, book.Cover.Data, zip.Store, modified); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish epub: %w", err)
	}

	return &Document{
		Data:        buf.Bytes(),
		Filename:    story.Title + ".epub",
		ContentType: "application/epub+zip",
	}, nil
}

func newEPUBBook(story *entities.Story, cover []byte) *epubBook {
	book := &epubBook{
		Identifier:     StoryIdentifier(story.ID),
		Title:          story.Title,
		Author:         story.Author.Username,
		Created:        story.CreatedAt.UTC().Format(epubTimeLayout),
		Modified:       story.LastUpdated.UTC().Format(epubTimeLayout),
		CreatedDisplay: formatTimestamp(story.CreatedAt),
		UpdatedDisplay: formatTimestamp(story.LastUpdated),
		Description:    story.Description,
		Tags:           story.TagNames(),
		TagList:        strings.Join(story.TagNames(), ", "),
		WordCount:      story.WordCount(),
		Rated:          story.RatingCount() > 0,
		RatingCount:    story.RatingCount(),
	}
	if book.Rated {
		book.Rating = fmt.Sprintf("%.1f", story.AverageRating())
		book.RatingLine = ratingLine(story)
	}

	for i, ch := range story.Chapters {
		book.Chapters = append(book.Chapters, epubChapter{
			ID:         fmt.Sprintf("chapter_%d", ch.ChapterNumber),
			File:       fmt.Sprintf("chapter_%d.xhtml", ch.ChapterNumber),
			Title:      ch.Title,
			Number:     ch.ChapterNumber,
			PlayOrder:  i + 3, // the Chapters group shares the first chapter's slot
			Paragraphs: paragraphs(ch.Content),
		})
	}

	if len(cover) > 0 {
		c, err := epubCoverFor(cover)
		if err != nil {
			log.Printf("Error adding cover image: %v", err)
		} else {
			book.Cover = c
		}
	}
	return book
}

func epubCoverFor(data []byte) (*epubCover, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	switch format {
	case "jpeg":
		return &epubCover{Name: "cover.jpg", MediaType: "image/jpeg", Data: data}, nil
	case "png":
		return &epubCover{Name: "cover.png", MediaType: "image/png", Data: data}, nil
	case "gif":
		return &epubCover{Name: "cover.gif", MediaType: "image/gif", Data: data}, nil
	default:
		return nil, fmt.Errorf("unsupported cover format %q", format)
	}
}

func writeZipEntry(zw *zip.Writer, name string, data []byte, method uint16, modified time.Time) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: modified,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
