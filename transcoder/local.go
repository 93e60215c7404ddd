package transcoder

import (
	"bytes"
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"

	"github.com/imgcrop/canvas"
	"github.com/imgcrop/web/uploader"
)

// Local transcodes in-process and pushes the result to object storage.
type Local struct {
	uploader uploader.Service
}

// NewLocal returns a transcoder storing variants through u.
func NewLocal(u uploader.Service) *Local {
	return &Local{uploader: u}
}

// Transcode resizes and re-encodes the blob per variant and uploads it.
func (l *Local) Transcode(ctx context.Context, req Request) (Result, error) {
	img, err := imaging.Decode(bytes.NewReader(req.Blob))
	if err != nil {
		return Result{}, fmt.Errorf("error decoding blob into image: %w", err)
	}

	if req.Variant.Scale > 0 && req.Variant.Scale < 1 {
		b := img.Bounds()
		w := scaled(b.Dx(), req.Variant.Scale)
		h := scaled(b.Dy(), req.Variant.Scale)
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	enc := encodingFor(req.MIME, req.Variant.Quality)
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, enc.Format, enc.Options()...); err != nil {
		return Result{}, fmt.Errorf("error encoding %s variant: %w", req.Variant.Name, err)
	}

	hash, err := calculateMD5(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Result{}, err
	}

	key := objectKey(req.UploadID, req.Variant.Name, hash, enc.Format)
	url, err := l.uploader.Upload(ctx, key, canvas.MIMEType(enc.Format), buf)
	if err != nil {
		return Result{}, fmt.Errorf("error uploading %s variant: %w", req.Variant.Name, err)
	}

	log.Debug().
		Str("uploadId", req.UploadID).
		Str("variant", req.Variant.Name).
		Str("key", key).
		Msg("variant stored")

	return Result{URL: url, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

// encodingFor keeps the source format for full quality variants and
// falls back to JPEG when a lossless source must be compressed.
func encodingFor(mime string, quality float64) canvas.Encoding {
	enc := canvas.EncodingFor(mime)
	switch {
	case enc.Format == imaging.JPEG:
		enc.Quality = quality
	case quality < 1:
		enc = canvas.Encoding{Format: imaging.JPEG, Quality: quality}
	}
	return enc
}

func scaled(n int, f float64) int {
	v := int(math.Round(float64(n) * f))
	if v < 1 {
		return 1
	}
	return v
}

func calculateMD5(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("calculating md5 was failed with error: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func objectKey(uploadID, variant, hash string, f imaging.Format) string {
	return fmt.Sprintf("%s/%s-%s.%s", uploadID, variant, hash, strings.ToLower(f.String()))
}
