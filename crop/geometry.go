// Package crop maps crop selections between display and natural pixel space
// and tracks the interactive crop session of one image.
package crop

import (
	"fmt"
	"image"
	"math"

	"github.com/imgcrop/model"
)

// Unit tags the coordinate space of a Rect.
type Unit string

const (
	Percent Unit = "%"
	Pixel   Unit = "px"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// SizeOf returns the size of an image.Rectangle.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: float64(r.Dx()), Height: float64(r.Dy())}
}

func (s Size) validate(name string) error {
	if !positive(s.Width) || !positive(s.Height) {
		return &model.GeometryError{Reason: fmt.Sprintf("%s size must be positive, got %vx%v", name, s.Width, s.Height)}
	}
	return nil
}

// Rect is a crop rectangle. Unit must always be set.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   Unit    `json:"unit"`
}

// ToPixels resolves a percent rect against size. Pixel rects are returned unchanged.
func (r Rect) ToPixels(size Size) (Rect, error) {
	switch r.Unit {
	case Pixel:
		return r, nil
	case Percent:
		if err := size.validate("reference"); err != nil {
			return Rect{}, err
		}
		return Rect{
			X:      r.X / 100 * size.Width,
			Y:      r.Y / 100 * size.Height,
			Width:  r.Width / 100 * size.Width,
			Height: r.Height / 100 * size.Height,
			Unit:   Pixel,
		}, nil
	}
	return Rect{}, &model.GeometryError{Reason: fmt.Sprintf("unknown unit %q", r.Unit)}
}

// ToPercent expresses r as percentages of size.
func (r Rect) ToPercent(size Size) (Rect, error) {
	switch r.Unit {
	case Percent:
		return r, nil
	case Pixel:
		if err := size.validate("reference"); err != nil {
			return Rect{}, err
		}
		return Rect{
			X:      r.X / size.Width * 100,
			Y:      r.Y / size.Height * 100,
			Width:  r.Width / size.Width * 100,
			Height: r.Height / size.Height * 100,
			Unit:   Percent,
		}, nil
	}
	return Rect{}, &model.GeometryError{Reason: fmt.Sprintf("unknown unit %q", r.Unit)}
}

// ToNatural maps r, given in displayed space, onto the natural raster.
// Each axis is scaled independently by natural/displayed.
func ToNatural(r Rect, displayed, natural Size) (Rect, error) {
	if err := displayed.validate("displayed"); err != nil {
		return Rect{}, err
	}
	if err := natural.validate("natural"); err != nil {
		return Rect{}, err
	}
	px, err := r.ToPixels(displayed)
	if err != nil {
		return Rect{}, err
	}
	sx := natural.Width / displayed.Width
	sy := natural.Height / displayed.Height
	return Rect{
		X:      px.X * sx,
		Y:      px.Y * sy,
		Width:  px.Width * sx,
		Height: px.Height * sy,
		Unit:   Pixel,
	}, nil
}

// ToDisplayed is the inverse of ToNatural for a natural pixel rect.
func ToDisplayed(r Rect, displayed, natural Size) (Rect, error) {
	if err := displayed.validate("displayed"); err != nil {
		return Rect{}, err
	}
	if err := natural.validate("natural"); err != nil {
		return Rect{}, err
	}
	if r.Unit != Pixel {
		return Rect{}, &model.GeometryError{Reason: "natural rect must be in pixels"}
	}
	sx := displayed.Width / natural.Width
	sy := displayed.Height / natural.Height
	return Rect{
		X:      r.X * sx,
		Y:      r.Y * sy,
		Width:  r.Width * sx,
		Height: r.Height * sy,
		Unit:   Pixel,
	}, nil
}

// Image rounds a pixel rect to integer coordinates inside bounds.
func (r Rect) Image(bounds image.Rectangle) (image.Rectangle, error) {
	if r.Unit != Pixel {
		return image.Rectangle{}, &model.GeometryError{Reason: "rect must be in pixels"}
	}
	x0 := int(math.Round(r.X)) + bounds.Min.X
	y0 := int(math.Round(r.Y)) + bounds.Min.Y
	x1 := int(math.Round(r.X+r.Width)) + bounds.Min.X
	y1 := int(math.Round(r.Y+r.Height)) + bounds.Min.Y
	out := image.Rect(x0, y0, x1, y1).Intersect(bounds)
	if out.Empty() {
		return image.Rectangle{}, &model.GeometryError{Reason: fmt.Sprintf("rect %v is outside %v", out, bounds)}
	}
	return out, nil
}

// DefaultRect returns the selection shown right after an image is loaded or
// the aspect ratio changes. Values are percentages of the displayed image,
// and the tag ratio holds between those percentages, not between pixels:
// on a non-square image the pixel ratio differs until the first Adjust.
func DefaultRect(tag model.AspectRatio) Rect {
	ratio, ok := tag.Value()
	switch {
	case !ok || ratio == 1:
		return Rect{X: 25, Y: 25, Width: 50, Height: 50, Unit: Percent}
	case ratio > 1:
		h := 60 / ratio
		return Rect{X: 20, Y: (100 - h) / 2, Width: 60, Height: h, Unit: Percent}
	default:
		w := 60 * ratio
		return Rect{X: (100 - w) / 2, Y: 20, Width: w, Height: 60, Unit: Percent}
	}
}

// Constrain fits r (any unit) inside an image of the given size and, for
// constrained tags, forces its pixel width/height to the tag's ratio.
// The result is in percent.
func Constrain(r Rect, tag model.AspectRatio, size Size) (Rect, error) {
	if err := size.validate("image"); err != nil {
		return Rect{}, err
	}
	p, err := r.ToPercent(size)
	if err != nil {
		return Rect{}, err
	}
	if !positive(p.Width) || !positive(p.Height) {
		return Rect{}, &model.GeometryError{Reason: fmt.Sprintf("crop size must be positive, got %vx%v", p.Width, p.Height)}
	}

	p.Width = math.Min(p.Width, 100)
	p.Height = math.Min(p.Height, 100)

	if ratio, ok := tag.Value(); ok {
		// height in percent that keeps widthPx/heightPx == ratio
		p.Height = p.Width * size.Width / ratio / size.Height
		if p.Height > 100 {
			p.Width *= 100 / p.Height
			p.Height = 100
		}
	}

	p.X = clamp(p.X, 0, 100-p.Width)
	p.Y = clamp(p.Y, 0, 100-p.Height)
	return p, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
