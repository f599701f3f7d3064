// Package covers normalizes uploaded cover images and stores them.
//
// Every accepted upload is cropped to the cover aspect ratio, resized,
// re-encoded as JPEG and saved as {story_id}.jpg. A BlurHash is computed
// from the processed image so clients can render a placeholder.
package covers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"io"
	"path/filepath"
	"strings"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultWidth   = 512
	DefaultHeight  = 800
	DefaultQuality = 95

	// DefaultMaxPixels bounds the decoded size of an upload.
	DefaultMaxPixels = 40_000_000

	// blurHashSize bounds the thumbnail the hash is computed from.
	blurHashSize = 64
)

var (
	ErrUnsupportedType = errors.New("unsupported cover image type")
	ErrImageTooLarge   = errors.New("cover image dimensions too large")
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// AllowedFile reports whether filename has an accepted image extension.
func AllowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Options controls the output dimensions and JPEG quality.
type Options struct {
	Width   int
	Height  int
	Quality int

	// MaxPixels rejects uploads whose declared width*height exceeds it,
	// before any pixel data is decoded.
	MaxPixels int64
}

// Result describes a stored cover.
type Result struct {
	Path     string // value for the story's cover_image column
	BlurHash string
}

// Processor turns uploads into stored covers.
type Processor struct {
	store Store
	opts  Options
}

// NewProcessor fills zero options with the defaults.
func NewProcessor(store Store, opts Options) *Processor {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultQuality
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Processor{store: store, opts: opts}
}

// Store returns the underlying cover store.
func (p *Processor) Store() Store {
	return p.store
}

// Process validates, normalizes and stores the cover for storyID.
func (p *Processor) Process(storyID uint, filename string, r io.Reader) (*Result, error) {
	if !AllowedFile(filename) {
		return nil, ErrUnsupportedType
	}

	// The header is read through a tee so the full decode can replay it.
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > p.opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	cover := Fit(src, p.opts.Width, p.opts.Height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cover, &jpeg.Options{Quality: p.opts.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	if err := p.store.Save(FileName(storyID), buf.Bytes()); err != nil {
		return nil, fmt.Errorf("save cover: %w", err)
	}

	hash, err := BlurHash(cover)
	if err != nil {
		// The cover is usable without a placeholder.
		hash = ""
	}

	return &Result{Path: StoredPath(storyID), BlurHash: hash}, nil
}

// Remove deletes the cover file referenced by a stored path.
func (p *Processor) Remove(storedPath string) error {
	name := NameFromStoredPath(storedPath)
	if name == "" {
		return nil
	}
	return p.store.Remove(name)
}

// Fit center-crops src to the width:height aspect ratio and scales it to
// exactly width x height.
func Fit(src image.Image, width, height int) image.Image {
	crop := centerCrop(src.Bounds(), width, height)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

func centerCrop(b image.Rectangle, width, height int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()

	if srcW*height > srcH*width {
		// Too wide: trim the sides.
		w := max(srcH*width/height, 1)
		left := b.Min.X + (srcW-w)/2
		return image.Rect(left, b.Min.Y, left+w, b.Max.Y)
	}

	h := max(srcW*height/width, 1)
	top := b.Min.Y + (srcH-h)/2
	return image.Rect(b.Min.X, top, b.Max.X, top+h)
}

// BlurHash encodes img with 4x3 components from a small thumbnail.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

func thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= blurHashSize && h <= blurHashSize {
		return img
	}

	var dw, dh int
	if w > h {
		dw = blurHashSize
		dh = max(h*blurHashSize/w, 1)
	} else {
		dh = blurHashSize
		dw = max(w*blurHashSize/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
