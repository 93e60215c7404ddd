package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mock_model "github.com/imgcrop/mock/model"
	"github.com/imgcrop/model"
	"github.com/imgcrop/repository/images"
	"github.com/imgcrop/router"
)

func TestClientAgainstServer(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	ctx := context.Background()
	repo := images.NewMemory()
	blob := []byte("\x89PNG\r\n\x1a\n" + "rest of png")

	uploadSvc := mock_model.NewMockImagesUploader(mockCtrl)
	uploadSvc.EXPECT().Upload(gomock.Any(), blob, "image/png", model.Portrait).DoAndReturn(
		func(ctx context.Context, _ []byte, _ string, tag model.AspectRatio) (model.ImageRecord, error) {
			return repo.Save(ctx, model.ImageRecord{
				OriginalURL: "o", CompressedURL60: "a", CompressedURL30: "b", AspectRatio: tag,
			})
		})

	srv := httptest.NewServer(router.New(zerolog.Nop(), repo, uploadSvc, router.Options{}))
	defer srv.Close()
	c := New(srv.URL+"/", srv.Client())

	rec, err := c.Upload(ctx, blob, "image/png", model.Portrait)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, model.Portrait, rec.AspectRatio)

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	got, err := c.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Complete())

	require.NoError(t, c.Delete(ctx, rec.ID))
	assert.ErrorIs(t, c.Delete(ctx, rec.ID), model.ErrNotFound)
	_, err = c.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)

	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantStage string
	}{
		{name: "bad gateway", status: http.StatusBadGateway, body: `{"error":"Failed to upload image"}`, wantStage: "server"},
		{name: "unexpected body", status: http.StatusCreated, body: `not json`, wantStage: "response"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tc.status)
				_, err := w.Write([]byte(tc.body))
				assert.NoError(t, err)
			}))
			defer srv.Close()

			_, err := New(srv.URL, srv.Client()).Upload(context.Background(), []byte("x"), "image/jpeg", model.Free)
			var uploadErr *model.UploadError
			require.ErrorAs(t, err, &uploadErr)
			assert.Equal(t, tc.wantStage, uploadErr.Stage)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := New(url, nil).Upload(context.Background(), []byte("x"), "image/jpeg", model.Free)
		var uploadErr *model.UploadError
		require.ErrorAs(t, err, &uploadErr)
		assert.Equal(t, "request", uploadErr.Stage)
	})

	t.Run("empty blob", func(t *testing.T) {
		_, err := New("http://localhost", nil).Upload(context.Background(), nil, "image/jpeg", model.Free)
		var uploadErr *model.UploadError
		require.ErrorAs(t, err, &uploadErr)
	})
}

func TestStatusError(t *testing.T) {
	err := statusError(&http.Response{StatusCode: 500}, []byte(`{"error":"Failed to fetch images"}`))
	assert.EqualError(t, err, "server returned 500: Failed to fetch images")
	assert.EqualError(t, statusError(&http.Response{StatusCode: 502}, nil), "server returned 502")
	assert.False(t, errors.Is(err, model.ErrNotFound))
}
