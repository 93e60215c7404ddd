package model

import (
	"context"
	"time"
)

// Dimensions describes pixel size of one stored variant.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// VariantDimensions holds dimensions of all three variants.
type VariantDimensions struct {
	Original Dimensions `json:"original"`
	Size60   Dimensions `json:"size60"`
	Size30   Dimensions `json:"size30"`
}

// ImageRecord describes one uploaded image with its three derived variants.
type ImageRecord struct {
	ID              string            `json:"_id"`
	OriginalURL     string            `json:"originalUrl"`
	CompressedURL60 string            `json:"compressedUrl60"`
	CompressedURL30 string            `json:"compressedUrl30"`
	Dimensions      VariantDimensions `json:"dimensions"`
	AspectRatio     AspectRatio       `json:"aspectRatio"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// Complete reports whether all three variant URLs are populated.
func (r ImageRecord) Complete() bool {
	return r.OriginalURL != "" && r.CompressedURL60 != "" && r.CompressedURL30 != ""
}

// ImagesRepository describes methods for working with the document store.
type ImagesRepository interface {
	Save(context.Context, ImageRecord) (ImageRecord, error)
	All(context.Context) ([]ImageRecord, error)
	GetOne(context.Context, string) (ImageRecord, error)
	Delete(context.Context, string) error
}

// ImagesUploader turns a cropped blob into a persisted record.
type ImagesUploader interface {
	Upload(ctx context.Context, blob []byte, mime string, tag AspectRatio) (ImageRecord, error)
}
