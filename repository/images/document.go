// Package images stores gallery records in a document store.
package images

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/imgcrop/model"
)

// Document field names shared by every store.
const (
	fieldID              = "_id"
	fieldOriginalURL     = "originalUrl"
	fieldCompressedURL60 = "compressedUrl60"
	fieldCompressedURL30 = "compressedUrl30"
	fieldDimensions      = "dimensions"
	fieldAspectRatio     = "aspectRatio"
	fieldCreatedAt       = "createdAt"
)

// checkSave rejects records that don't reference all three variants.
func checkSave(rec model.ImageRecord) error {
	if !rec.Complete() {
		return &model.ValidationError{Field: "record", Err: errors.New("all three variant urls are required")}
	}
	if _, err := model.ParseAspectRatio(string(rec.AspectRatio)); err != nil {
		return err
	}
	return nil
}

// DecodeDocument builds a record from a raw stored document. Absent fields
// take their zero value and an absent aspect ratio reads as free. Fields of
// the wrong type and unknown aspect ratios yield *model.ValidationError.
func DecodeDocument(doc map[string]any) (model.ImageRecord, error) {
	var (
		rec model.ImageRecord
		err error
	)

	if rec.ID, err = stringField(doc, fieldID); err != nil {
		return model.ImageRecord{}, err
	}
	if rec.OriginalURL, err = stringField(doc, fieldOriginalURL); err != nil {
		return model.ImageRecord{}, err
	}
	if rec.CompressedURL60, err = stringField(doc, fieldCompressedURL60); err != nil {
		return model.ImageRecord{}, err
	}
	if rec.CompressedURL30, err = stringField(doc, fieldCompressedURL30); err != nil {
		return model.ImageRecord{}, err
	}

	tag, err := stringField(doc, fieldAspectRatio)
	if err != nil {
		return model.ImageRecord{}, err
	}
	if tag == "" {
		rec.AspectRatio = model.Free
	} else if rec.AspectRatio, err = model.ParseAspectRatio(tag); err != nil {
		return model.ImageRecord{}, err
	}

	if rec.CreatedAt, err = timeField(doc, fieldCreatedAt); err != nil {
		return model.ImageRecord{}, err
	}

	dims, err := objectField(doc, fieldDimensions, fieldDimensions)
	if err != nil {
		return model.ImageRecord{}, err
	}
	variants := []struct {
		key string
		dst *model.Dimensions
	}{
		{"original", &rec.Dimensions.Original},
		{"size60", &rec.Dimensions.Size60},
		{"size30", &rec.Dimensions.Size30},
	}
	for _, v := range variants {
		path := fieldDimensions + "." + v.key
		d, err := objectField(dims, v.key, path)
		if err != nil {
			return model.ImageRecord{}, err
		}
		if v.dst.Width, err = intField(d, "width", path+".width"); err != nil {
			return model.ImageRecord{}, err
		}
		if v.dst.Height, err = intField(d, "height", path+".height"); err != nil {
			return model.ImageRecord{}, err
		}
	}

	return rec, nil
}

// EncodeDocument is the inverse of DecodeDocument. The id is left to the store.
func EncodeDocument(rec model.ImageRecord) map[string]any {
	dims := func(d model.Dimensions) map[string]any {
		return map[string]any{"width": d.Width, "height": d.Height}
	}
	return map[string]any{
		fieldOriginalURL:     rec.OriginalURL,
		fieldCompressedURL60: rec.CompressedURL60,
		fieldCompressedURL30: rec.CompressedURL30,
		fieldDimensions: map[string]any{
			"original": dims(rec.Dimensions.Original),
			"size60":   dims(rec.Dimensions.Size60),
			"size30":   dims(rec.Dimensions.Size30),
		},
		fieldAspectRatio: rec.AspectRatio.String(),
		fieldCreatedAt:   rec.CreatedAt.UTC(),
	}
}

func invalid(field string, v any) error {
	return &model.ValidationError{Field: field, Err: fmt.Errorf("unexpected type %T", v)}
}

func stringField(doc map[string]any, key string) (string, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(key, v)
	}
	return s, nil
}

func objectField(doc map[string]any, key, path string) (map[string]any, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(path, v)
	}
	return m, nil
}

func intField(doc map[string]any, key, path string) (int, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return 0, nil
	}
	var f float64
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		f = n
	case json.Number:
		var err error
		if f, err = n.Float64(); err != nil {
			return 0, &model.ValidationError{Field: path, Err: err}
		}
	default:
		return 0, invalid(path, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &model.ValidationError{Field: path, Err: fmt.Errorf("%v is not a whole number", f)}
	}
	return int(f), nil
}

func timeField(doc map[string]any, key string) (time.Time, error) {
	v, ok := doc[key]
	if !ok || v == nil {
		return time.Time{}, nil
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, &model.ValidationError{Field: key, Err: err}
		}
		return parsed.UTC(), nil
	}
	return time.Time{}, invalid(key, v)
}
