// Package transcoder produces the stored variants of an uploaded image and
// returns where they can be fetched from.
package transcoder

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Variant names, also used as object key prefixes.
const (
	Original = "original"
	Size60   = "size60"
	Size30   = "size30"
)

// Policy decides how the 60% and 30% variants differ from the original.
type Policy string

const (
	// QualityPolicy keeps pixel size and lowers encoding quality.
	QualityPolicy Policy = "quality"
	// DimensionPolicy scales linear size to 60% and 30%.
	DimensionPolicy Policy = "dimension"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case QualityPolicy, DimensionPolicy:
		return p, nil
	case "":
		return QualityPolicy, nil
	}
	return "", fmt.Errorf("unknown variant policy %q", s)
}

// Variant describes one derived copy.
type Variant struct {
	Name    string
	Scale   float64 // linear size factor, 1 keeps the size
	Quality float64 // encoding quality in [0,1]
}

// Variants returns original, 60% and 30% variants in that order.
func (p Policy) Variants() [3]Variant {
	if p == DimensionPolicy {
		return [3]Variant{
			{Name: Original, Scale: 1, Quality: 1},
			{Name: Size60, Scale: 0.6, Quality: 0.8},
			{Name: Size30, Scale: 0.3, Quality: 0.6},
		}
	}
	return [3]Variant{
		{Name: Original, Scale: 1, Quality: 1},
		{Name: Size60, Scale: 1, Quality: 0.6},
		{Name: Size30, Scale: 1, Quality: 0.3},
	}
}

// Request is one transcode call. All variants of an upload share UploadID and Blob.
type Request struct {
	UploadID string
	Blob     []byte
	MIME     string
	Variant  Variant
}

// Result is what the transcoder reports for a stored variant.
type Result struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Validate rejects results that can't be referenced from a record.
func (r Result) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return errors.New("transcode result has no url")
	}
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("transcode result has negative size %dx%d", r.Width, r.Height)
	}
	return nil
}

// Service describes transcoder interface.
type Service interface {
	Transcode(ctx context.Context, req Request) (Result, error)
}
