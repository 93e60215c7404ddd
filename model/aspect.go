package model

import "fmt"

// AspectRatio is the crop constraint tag stored with every record.
type AspectRatio string

const (
	Square    AspectRatio = "1:1"
	Landscape AspectRatio = "4:3"
	Portrait  AspectRatio = "3:4"
	Free      AspectRatio = "free"
)

// AspectRatios lists the accepted tags in display order.
var AspectRatios = []AspectRatio{Square, Landscape, Portrait, Free}

// ParseAspectRatio validates s against the fixed tag set.
func ParseAspectRatio(s string) (AspectRatio, error) {
	for _, a := range AspectRatios {
		if string(a) == s {
			return a, nil
		}
	}
	return "", &ValidationError{Field: "aspectRatio", Err: fmt.Errorf("unknown aspect ratio %q", s)}
}

// Value returns width/height of the tag. ok is false for Free.
func (a AspectRatio) Value() (ratio float64, ok bool) {
	switch a {
	case Square:
		return 1, true
	case Landscape:
		return 4.0 / 3.0, true
	case Portrait:
		return 3.0 / 4.0, true
	}
	return 0, false
}

func (a AspectRatio) String() string {
	return string(a)
}
