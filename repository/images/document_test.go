package images

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgcrop/model"
)

func jsonDoc(t *testing.T, s string) map[string]any {
	t.Helper()
	doc := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&doc))
	return doc
}

func TestDecodeDocument(t *testing.T) {
	created := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	t.Run("complete", func(t *testing.T) {
		doc := jsonDoc(t, `{
			"_id": "abc",
			"originalUrl": "https://cdn/o.jpg",
			"compressedUrl60": "https://cdn/60.jpg",
			"compressedUrl30": "https://cdn/30.jpg",
			"dimensions": {
				"original": {"width": 1200, "height": 900},
				"size60": {"width": 720, "height": 540},
				"size30": {"width": 360, "height": 270}
			},
			"aspectRatio": "4:3",
			"createdAt": "2024-03-09T10:00:00Z"
		}`)
		rec, err := DecodeDocument(doc)
		require.NoError(t, err)
		assert.Equal(t, model.ImageRecord{
			ID:              "abc",
			OriginalURL:     "https://cdn/o.jpg",
			CompressedURL60: "https://cdn/60.jpg",
			CompressedURL30: "https://cdn/30.jpg",
			Dimensions: model.VariantDimensions{
				Original: model.Dimensions{Width: 1200, Height: 900},
				Size60:   model.Dimensions{Width: 720, Height: 540},
				Size30:   model.Dimensions{Width: 360, Height: 270},
			},
			AspectRatio: model.Landscape,
			CreatedAt:   created,
		}, rec)
	})

	t.Run("absent fields default", func(t *testing.T) {
		rec, err := DecodeDocument(jsonDoc(t, `{"_id": "abc", "dimensions": {"size60": {"width": 10}}}`))
		require.NoError(t, err)
		assert.Equal(t, "abc", rec.ID)
		assert.Empty(t, rec.OriginalURL)
		assert.Equal(t, model.Free, rec.AspectRatio)
		assert.Equal(t, model.Dimensions{Width: 10}, rec.Dimensions.Size60)
		assert.Equal(t, model.Dimensions{}, rec.Dimensions.Original)
		assert.True(t, rec.CreatedAt.IsZero())
	})

	t.Run("native values", func(t *testing.T) {
		rec, err := DecodeDocument(map[string]any{
			"createdAt": created,
			"dimensions": map[string]any{
				"original": map[string]any{"width": int32(4), "height": int64(3)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, created, rec.CreatedAt)
		assert.Equal(t, model.Dimensions{Width: 4, Height: 3}, rec.Dimensions.Original)
	})

	invalid := []struct {
		name  string
		doc   string
		field string
	}{
		{name: "url not a string", doc: `{"originalUrl": 5}`, field: "originalUrl"},
		{name: "unknown tag", doc: `{"aspectRatio": "16:9"}`, field: "aspectRatio"},
		{name: "tag not a string", doc: `{"aspectRatio": 1}`, field: "aspectRatio"},
		{name: "dimensions not an object", doc: `{"dimensions": "big"}`, field: "dimensions"},
		{name: "variant not an object", doc: `{"dimensions": {"size30": [1, 2]}}`, field: "dimensions.size30"},
		{name: "width not a number", doc: `{"dimensions": {"original": {"width": "wide"}}}`, field: "dimensions.original.width"},
		{name: "fractional height", doc: `{"dimensions": {"size60": {"height": 1.5}}}`, field: "dimensions.size60.height"},
		{name: "bad timestamp", doc: `{"createdAt": "yesterday"}`, field: "createdAt"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeDocument(jsonDoc(t, tc.doc))
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestEncodeDocumentRoundTrip(t *testing.T) {
	rec := model.ImageRecord{
		OriginalURL:     "o",
		CompressedURL60: "a",
		CompressedURL30: "b",
		Dimensions: model.VariantDimensions{
			Original: model.Dimensions{Width: 3, Height: 4},
		},
		AspectRatio: model.Portrait,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(EncodeDocument(rec))
	require.NoError(t, err)
	got, err := DecodeDocument(jsonDoc(t, string(raw)))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}
