package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_model "github.com/imgcrop/mock/model"
	"github.com/imgcrop/model"
)

func testImage(t *testing.T) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	img := imaging.New(40, 30, color.NRGBA{R: 10, G: 120, B: 200, A: 255})
	require.NoError(t, imaging.Encode(buf, img, imaging.PNG))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, image []byte, aspectRatio string) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if image != nil {
		w, err := mw.CreateFormFile("image", "crop.png")
		require.NoError(t, err)
		_, err = w.Write(image)
		require.NoError(t, err)
	}
	if aspectRatio != "" {
		require.NoError(t, mw.WriteField("aspectRatio", aspectRatio))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/upload", body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestAll(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type tc struct {
		name               string
		getTest            func(r *http.Request) *Service
		expectedStatusCode int
		expectedBody       string
	}

	tcs := []tc{
		{
			name: "http.StatusOK",
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().All(r.Context()).Return([]model.ImageRecord{}, nil)
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusOK,
			expectedBody:       `[]`,
		},
		{
			name: "http.StatusInternalServerError",
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().All(r.Context()).Return(nil, errors.New("error"))
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody:       `{"error":"Failed to fetch images"}`,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			wr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/images", nil)
			tc.getTest(r).All(wr, r)
			statusCode := wr.Result().StatusCode
			if statusCode != tc.expectedStatusCode {
				t.Fatalf("expected status code is: %d but got: %d", tc.expectedStatusCode, statusCode)
			}
			assert.JSONEq(t, tc.expectedBody, wr.Body.String())
			assert.Equal(t, "application/json", wr.Header().Get("Content-Type"))
		})
	}
}

func TestOne(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type tc struct {
		name               string
		getTest            func(r *http.Request) *Service
		expectedStatusCode int
	}

	tcs := []tc{
		{
			name: "http.StatusOK",
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().GetOne(r.Context(), "abc").Return(model.ImageRecord{ID: "abc"}, nil)
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusOK,
		},
		{
			name: "http.StatusNotFound",
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().GetOne(r.Context(), "abc").Return(model.ImageRecord{}, model.ErrNotFound)
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name: "http.StatusInternalServerError",
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().GetOne(r.Context(), "abc").Return(model.ImageRecord{}, errors.New("error"))
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			wr := httptest.NewRecorder()
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/images/abc", nil), map[string]string{"id": "abc"})
			tc.getTest(r).One(wr, r)
			statusCode := wr.Result().StatusCode
			if statusCode != tc.expectedStatusCode {
				t.Fatalf("expected status code is: %d but got: %d", tc.expectedStatusCode, statusCode)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type tc struct {
		name               string
		body               string
		getTest            func(r *http.Request) *Service
		expectedStatusCode int
		expectedBody       string
	}

	tcs := []tc{
		{
			name: "http.StatusBadRequest: malformed body",
			body: `{"imageId":`,
			getTest: func(r *http.Request) *Service {
				return NewService(nil, nil)
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "http.StatusBadRequest: missing id",
			body: `{}`,
			getTest: func(r *http.Request) *Service {
				return NewService(nil, nil)
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "http.StatusNotFound",
			body: `{"imageId":"missing"}`,
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().Delete(r.Context(), "missing").Return(model.ErrNotFound)
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusNotFound,
		},
		{
			name: "http.StatusInternalServerError",
			body: `{"imageId":"abc"}`,
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().Delete(r.Context(), "abc").Return(errors.New("error"))
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusInternalServerError,
			expectedBody:       `{"error":"Failed to delete image"}`,
		},
		{
			name: "http.StatusOK",
			body: `{"imageId":"abc"}`,
			getTest: func(r *http.Request) *Service {
				imagesSvc := mock_model.NewMockImagesRepository(mockCtrl)
				imagesSvc.EXPECT().Delete(r.Context(), "abc").Return(nil)
				return NewService(imagesSvc, nil)
			},
			expectedStatusCode: http.StatusOK,
			expectedBody:       `{"success":true}`,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			wr := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodDelete, "/images", strings.NewReader(tc.body))
			tc.getTest(r).Delete(wr, r)
			statusCode := wr.Result().StatusCode
			if statusCode != tc.expectedStatusCode {
				t.Fatalf("expected status code is: %d but got: %d", tc.expectedStatusCode, statusCode)
			}
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, wr.Body.String())
			}
		})
	}
}

func TestUpload(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	type tc struct {
		name               string
		getTest            func() (*Service, *http.Request)
		expectedStatusCode int
	}

	img := testImage(t)
	created := model.ImageRecord{
		ID:              "abc",
		OriginalURL:     "https://cdn/o.png",
		CompressedURL60: "https://cdn/60.jpg",
		CompressedURL30: "https://cdn/30.jpg",
		AspectRatio:     model.Landscape,
	}

	tcs := []tc{
		{
			name: "http.StatusBadRequest: no image",
			getTest: func() (*Service, *http.Request) {
				return NewService(nil, nil), uploadRequest(t, nil, "4:3")
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "http.StatusBadRequest: unknown aspect ratio",
			getTest: func() (*Service, *http.Request) {
				return NewService(nil, nil), uploadRequest(t, img, "16:9")
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "http.StatusBadRequest: not multipart",
			getTest: func() (*Service, *http.Request) {
				return NewService(nil, nil), httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("x"))
			},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "http.StatusUnsupportedMediaType",
			getTest: func() (*Service, *http.Request) {
				return NewService(nil, nil), uploadRequest(t, []byte("plain text, not an image"), "4:3")
			},
			expectedStatusCode: http.StatusUnsupportedMediaType,
		},
		{
			name: "http.StatusRequestEntityTooLarge",
			getTest: func() (*Service, *http.Request) {
				return NewService(nil, nil).WithMaxUploadSize(16), uploadRequest(t, img, "4:3")
			},
			expectedStatusCode: http.StatusRequestEntityTooLarge,
		},
		{
			name: "http.StatusBadGateway: transcode failed",
			getTest: func() (*Service, *http.Request) {
				r := uploadRequest(t, img, "4:3")
				uploadSvc := mock_model.NewMockImagesUploader(mockCtrl)
				uploadSvc.EXPECT().Upload(r.Context(), img, "image/png", model.Landscape).
					Return(model.ImageRecord{}, &model.UploadError{Stage: "transcode size60", Err: errors.New("error")})
				return NewService(nil, uploadSvc), r
			},
			expectedStatusCode: http.StatusBadGateway,
		},
		{
			name: "http.StatusInternalServerError",
			getTest: func() (*Service, *http.Request) {
				r := uploadRequest(t, img, "4:3")
				uploadSvc := mock_model.NewMockImagesUploader(mockCtrl)
				uploadSvc.EXPECT().Upload(r.Context(), img, "image/png", model.Landscape).
					Return(model.ImageRecord{}, errors.New("error"))
				return NewService(nil, uploadSvc), r
			},
			expectedStatusCode: http.StatusInternalServerError,
		},
		{
			name: "http.StatusCreated: free when aspect ratio omitted",
			getTest: func() (*Service, *http.Request) {
				r := uploadRequest(t, img, "")
				uploadSvc := mock_model.NewMockImagesUploader(mockCtrl)
				uploadSvc.EXPECT().Upload(r.Context(), img, "image/png", model.Free).Return(created, nil)
				return NewService(nil, uploadSvc), r
			},
			expectedStatusCode: http.StatusCreated,
		},
		{
			name: "http.StatusCreated",
			getTest: func() (*Service, *http.Request) {
				r := uploadRequest(t, img, "4:3")
				uploadSvc := mock_model.NewMockImagesUploader(mockCtrl)
				uploadSvc.EXPECT().Upload(r.Context(), img, "image/png", model.Landscape).Return(created, nil)
				return NewService(nil, uploadSvc), r
			},
			expectedStatusCode: http.StatusCreated,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := tc.getTest()
			wr := httptest.NewRecorder()
			svc.Upload(wr, r)
			statusCode := wr.Result().StatusCode
			if statusCode != tc.expectedStatusCode {
				t.Fatalf("expected status code is: %d but got: %d (%s)", tc.expectedStatusCode, statusCode, wr.Body.String())
			}
			if statusCode == http.StatusCreated {
				var got model.ImageRecord
				require.NoError(t, json.Unmarshal(wr.Body.Bytes(), &got))
				assert.Equal(t, created, got)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	wr := httptest.NewRecorder()
	NewService(nil, nil).Health(wr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, wr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, wr.Body.String())
}
