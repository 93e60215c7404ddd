// Package canvas draws a cropped region of a raster and encodes it into a blob.
package canvas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/imgcrop/crop"
	"github.com/imgcrop/model"
)

// DefaultQuality is used for lossy output when the caller does not pick one.
const DefaultQuality = 0.92

// Encoding selects output format and quality in [0,1].
type Encoding struct {
	Format  imaging.Format
	Quality float64
}

// Blob is an encoded image.
type Blob struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// EncodingFor picks the output encoding from the source MIME type so that
// lossless input stays lossless. WebP is written as PNG.
func EncodingFor(mime string) Encoding {
	switch mime {
	case "image/png", "image/webp":
		return Encoding{Format: imaging.PNG, Quality: 1}
	case "image/gif":
		return Encoding{Format: imaging.GIF, Quality: 1}
	case "image/tiff":
		return Encoding{Format: imaging.TIFF, Quality: 1}
	case "image/bmp":
		return Encoding{Format: imaging.BMP, Quality: 1}
	}
	return Encoding{Format: imaging.JPEG, Quality: DefaultQuality}
}

// MIMEType returns the content type written for f.
func MIMEType(f imaging.Format) string {
	switch f {
	case imaging.PNG:
		return "image/png"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	}
	return "image/jpeg"
}

// Options converts the encoding into imaging encode options.
func (e Encoding) Options() []imaging.EncodeOption {
	return []imaging.EncodeOption{
		imaging.JPEGQuality(JPEGQuality(e.Quality)),
		imaging.PNGCompressionLevel(png.DefaultCompression),
	}
}

// JPEGQuality maps q in [0,1] onto the 1..100 JPEG scale.
func JPEGQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// Resample draws the natural-space rect r of src at 1:1 scale into a new
// surface and encodes it.
func Resample(ctx context.Context, src image.Image, r crop.Rect, enc Encoding) (Blob, error) {
	if src == nil {
		return Blob{}, &model.EncodingError{Err: errors.New("no source raster")}
	}
	if math.IsNaN(enc.Quality) || enc.Quality < 0 || enc.Quality > 1 {
		return Blob{}, &model.EncodingError{Err: fmt.Errorf("quality %v out of range [0,1]", enc.Quality)}
	}
	region, err := r.Image(src.Bounds())
	if err != nil {
		return Blob{}, &model.EncodingError{Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Blob{}, &model.EncodingError{Err: err}
	}

	dst := imaging.Crop(src, region)
	if dst.Bounds().Empty() {
		return Blob{}, &model.EncodingError{Err: errors.New("empty drawing surface")}
	}

	if err := ctx.Err(); err != nil {
		return Blob{}, &model.EncodingError{Err: err}
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, dst, enc.Format, enc.Options()...); err != nil {
		return Blob{}, &model.EncodingError{Err: fmt.Errorf("encode %s: %w", enc.Format, err)}
	}
	if buf.Len() == 0 {
		return Blob{}, &model.EncodingError{Err: errors.New("encoder produced no data")}
	}

	return Blob{
		Data:   buf.Bytes(),
		MIME:   MIMEType(enc.Format),
		Width:  dst.Bounds().Dx(),
		Height: dst.Bounds().Dy(),
	}, nil
}
