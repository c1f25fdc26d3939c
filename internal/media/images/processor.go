package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/shelfwise/catalog-server/internal/domain"
)

// jpegQuality is used for every stored rendition.
const jpegQuality = 85

// Rendition describes how a cover size is derived from the original.
// Height 0 keeps the aspect ratio. Crop fills the exact box from the center.
type Rendition struct {
	Width  int
	Height int
	Crop   bool
}

// Renditions are the derived sizes written for every cover.
var Renditions = map[domain.CoverSize]Rendition{
	domain.CoverThumbnail: {Width: 100, Height: 100, Crop: true},
	domain.CoverSmall:     {Width: 65},
	domain.CoverMedium:    {Width: 225},
	domain.CoverLarge:     {Width: 1024},
}

// Result is what Ingest stored.
type Result struct {
	Ref      string
	Width    int
	Height   int
	BlurHash string
	Sizes    []domain.CoverSize
}

// Processor decodes uploaded covers and writes every rendition to storage.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Storage returns the underlying cover storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Ingest stores data under ref: the full image re-encoded as JPEG, each
// thumbnail rendition, and a blurhash of the original.
func (p *Processor) Ingest(ctx context.Context, ref string, data []byte) (*Result, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode cover: %w", err)
	}
	bounds := src.Bounds()
	result := &Result{Ref: ref, Width: bounds.Dx(), Height: bounds.Dy()}

	full, err := encodeJPEG(src)
	if err != nil {
		return nil, err
	}
	if err := p.storage.Save(ref, domain.CoverFull, full); err != nil {
		return nil, fmt.Errorf("save full cover: %w", err)
	}
	result.Sizes = append(result.Sizes, domain.CoverFull)

	for _, size := range domain.ThumbnailSizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		encoded, err := encodeJPEG(Render(src, Renditions[size]))
		if err != nil {
			return nil, err
		}
		if err := p.storage.Save(ref, size, encoded); err != nil {
			return nil, fmt.Errorf("save %s cover: %w", size, err)
		}
		result.Sizes = append(result.Sizes, size)
	}

	hash, err := EncodeBlurHash(src)
	if err != nil {
		// A missing placeholder is not worth failing the upload for.
		p.logger.Warn("failed to compute blurhash", "cover_ref", ref, "error", err)
	}
	result.BlurHash = hash

	p.logger.Debug("stored cover",
		"cover_ref", ref,
		"format", format,
		"width", result.Width,
		"height", result.Height,
	)
	return result, nil
}

// Render scales src into the rendition box. Images are never upscaled
// except by a crop rendition.
func Render(src image.Image, r Rendition) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}

	if r.Crop {
		side := min(w, h)
		x0 := b.Min.X + (w-side)/2
		y0 := b.Min.Y + (h-side)/2
		dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, image.Rect(x0, y0, x0+side, y0+side), draw.Over, nil)
		return dst
	}

	if w <= r.Width {
		return src
	}
	dw := r.Width
	dh := r.Height
	if dh == 0 {
		dh = max(1, h*dw/w)
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
