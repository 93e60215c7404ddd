// Package preview turns a selected file into a bounded raster for interactive cropping.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/imgcrop/canvas"
	"github.com/imgcrop/crop"
	"github.com/imgcrop/model"
)

const (
	DefaultMaxDimension = 1920
	DefaultMaxFileSize  = 20 << 20
	DefaultQuality      = 0.8
)

// AcceptedTypes are the MIME types a selected file may have.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Pipeline builds previews. Zero fields fall back to the defaults.
type Pipeline struct {
	MaxDimension int
	MaxFileSize  int64
	Quality      float64
}

// Preview is the bounded raster shown in the crop UI.
type Preview struct {
	Name     string
	MIME     string      // type of the selected file
	Original image.Point // natural size of the selected file
	Image    image.Image // bounded raster crops are drawn from
	Data     []byte      // JPEG encoding of Image for display
}

// Size returns the size of the bounded raster.
func (p *Preview) Size() crop.Size {
	return crop.SizeOf(p.Image.Bounds())
}

// Scaled reports whether the raster was downscaled.
func (p *Preview) Scaled() bool {
	return p.Image.Bounds().Dx() != p.Original.X
}

func (p Pipeline) maxDimension() int {
	if p.MaxDimension <= 0 {
		return DefaultMaxDimension
	}
	return p.MaxDimension
}

func (p Pipeline) maxFileSize() int64 {
	if p.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return p.MaxFileSize
}

func (p Pipeline) quality() float64 {
	if p.Quality <= 0 || p.Quality > 1 {
		return DefaultQuality
	}
	return p.Quality
}

// Open builds a preview from a file on disk. Oversized files are rejected
// from their stat size before they are read.
func (p Pipeline) Open(path string) (*Preview, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, &model.PreviewError{File: path, Err: err}
	}
	if st.Size() > p.maxFileSize() {
		return nil, &model.PreviewError{File: path, Err: fmt.Errorf("%w: %d > %d bytes", model.ErrFileTooLarge, st.Size(), p.maxFileSize())}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.PreviewError{File: path, Err: err}
	}
	defer f.Close()
	return p.Build(path, f)
}

// Build reads a selected file from r and returns its preview.
func (p Pipeline) Build(name string, r io.Reader) (*Preview, error) {
	limit := p.maxFileSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &model.PreviewError{File: name, Err: fmt.Errorf("reading file: %w", err)}
	}
	if int64(len(data)) > limit {
		return nil, &model.PreviewError{File: name, Err: fmt.Errorf("%w: more than %d bytes", model.ErrFileTooLarge, limit)}
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), AcceptedTypes...) {
		return nil, &model.PreviewError{File: name, Err: fmt.Errorf("%w: %s", model.ErrUnsupportedType, mime.String())}
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &model.PreviewError{File: name, Err: fmt.Errorf("decoding %s: %w", mime.String(), err)}
	}

	bounded := Downscale(src, p.maxDimension())

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, bounded, imaging.JPEG, imaging.JPEGQuality(canvas.JPEGQuality(p.quality()))); err != nil {
		return nil, &model.PreviewError{File: name, Err: fmt.Errorf("encoding preview: %w", err)}
	}

	b := src.Bounds()
	log.Debug().
		Str("file", name).
		Str("mime", mime.String()).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("previewWidth", bounded.Bounds().Dx()).
		Msg("preview built")

	return &Preview{
		Name:     name,
		MIME:     mime.String(),
		Original: image.Pt(b.Dx(), b.Dy()),
		Image:    bounded,
		Data:     buf.Bytes(),
	}, nil
}

// Downscale shrinks src uniformly so its width is exactly maxWidth. Images
// whose width is already within the bound are returned as is.
func Downscale(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth {
		return src
	}
	newH := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if newH < 1 {
		newH = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
