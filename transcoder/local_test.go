package transcoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_uploader "github.com/imgcrop/mock/uploader"
)

func testBlob(t *testing.T, w, h int, f imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 90, A: 255})
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, img, f))
	return buf.Bytes()
}

func TestLocalTranscode(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type tc struct {
		name       string
		req        Request
		getTest    func() *Local
		wantKey    string
		wantMIME   string
		wantWidth  int
		wantHeight int
		wantErr    bool
	}

	png := testBlob(t, 100, 50, imaging.PNG)
	jpg := testBlob(t, 100, 50, imaging.JPEG)
	dims := DimensionPolicy.Variants()
	quality := QualityPolicy.Variants()

	var gotKey, gotMIME string
	capture := func(_ context.Context, key, contentType string, r io.Reader) (string, error) {
		gotKey, gotMIME = key, contentType
		b, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		if _, _, err := image.Decode(bytes.NewReader(b)); err != nil {
			return "", err
		}
		return "https://cdn.example.com/" + key, nil
	}

	tcs := []tc{
		{
			name: "original png keeps format",
			req:  Request{UploadID: "u1", Blob: png, MIME: "image/png", Variant: dims[0]},
			getTest: func() *Local {
				u := mock_uploader.NewMockService(mockCtrl)
				u.EXPECT().Upload(gomock.Any(), gomock.Any(), "image/png", gomock.Any()).DoAndReturn(capture)
				return NewLocal(u)
			},
			wantKey:    "u1/original-",
			wantMIME:   "image/png",
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name: "size60 png scaled to jpeg",
			req:  Request{UploadID: "u1", Blob: png, MIME: "image/png", Variant: dims[1]},
			getTest: func() *Local {
				u := mock_uploader.NewMockService(mockCtrl)
				u.EXPECT().Upload(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).DoAndReturn(capture)
				return NewLocal(u)
			},
			wantKey:    "u1/size60-",
			wantMIME:   "image/jpeg",
			wantWidth:  60,
			wantHeight: 30,
		},
		{
			name: "size30 jpeg keeps pixel size under quality policy",
			req:  Request{UploadID: "u2", Blob: jpg, MIME: "image/jpeg", Variant: quality[2]},
			getTest: func() *Local {
				u := mock_uploader.NewMockService(mockCtrl)
				u.EXPECT().Upload(gomock.Any(), gomock.Any(), "image/jpeg", gomock.Any()).DoAndReturn(capture)
				return NewLocal(u)
			},
			wantKey:    "u2/size30-",
			wantMIME:   "image/jpeg",
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name: "upload error",
			req:  Request{UploadID: "u1", Blob: png, MIME: "image/png", Variant: dims[0]},
			getTest: func() *Local {
				u := mock_uploader.NewMockService(mockCtrl)
				u.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("error"))
				return NewLocal(u)
			},
			wantErr: true,
		},
		{
			name: "decode error",
			req:  Request{UploadID: "u1", Blob: []byte("not an image"), MIME: "image/png", Variant: dims[0]},
			getTest: func() *Local {
				return NewLocal(mock_uploader.NewMockService(mockCtrl))
			},
			wantErr: true,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			gotKey, gotMIME = "", ""
			res, err := tc.getTest().Transcode(context.Background(), tc.req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, res.Validate())
			assert.True(t, strings.HasPrefix(gotKey, tc.wantKey), gotKey)
			assert.Equal(t, tc.wantMIME, gotMIME)
			assert.Equal(t, "https://cdn.example.com/"+gotKey, res.URL)
			assert.Equal(t, tc.wantWidth, res.Width)
			assert.Equal(t, tc.wantHeight, res.Height)
		})
	}
}

func TestScaled(t *testing.T) {
	assert.Equal(t, 60, scaled(100, 0.6))
	assert.Equal(t, 1, scaled(1, 0.3))
	assert.Equal(t, 599, scaled(1997, 0.3))
}
