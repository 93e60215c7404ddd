// Package upload turns one cropped blob into three stored variants and a
// single gallery record.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/imgcrop/model"
	"github.com/imgcrop/transcoder"
)

// Service orchestrates transcoding and persistence of an upload.
type Service struct {
	repo       model.ImagesRepository
	transcoder transcoder.Service
	policy     transcoder.Policy
	now        func() time.Time
}

var _ model.ImagesUploader = (*Service)(nil)

// NewService returns new upload service.
func NewService(repo model.ImagesRepository, t transcoder.Service, policy transcoder.Policy) *Service {
	return &Service{repo: repo, transcoder: t, policy: policy, now: time.Now}
}

// Upload transcodes blob into the original, 60% and 30% variants and saves
// one record referencing all three. Nothing is persisted unless every
// variant succeeded. Failures are returned as *model.UploadError.
func (s *Service) Upload(ctx context.Context, blob []byte, mime string, tag model.AspectRatio) (model.ImageRecord, error) {
	if len(blob) == 0 {
		return model.ImageRecord{}, &model.ValidationError{Field: "image", Err: errors.New("empty blob")}
	}
	if _, err := model.ParseAspectRatio(string(tag)); err != nil {
		return model.ImageRecord{}, err
	}

	uploadID := uuid.NewString()
	logger := log.With().Str("uploadId", uploadID).Str("aspectRatio", tag.String()).Logger()

	results, err := s.transcodeAll(ctx, uploadID, blob, mime)
	if err != nil {
		logger.Error().Err(err).Msg("transcode failed, nothing persisted")
		return model.ImageRecord{}, err
	}

	rec := model.ImageRecord{
		OriginalURL:     results[0].URL,
		CompressedURL60: results[1].URL,
		CompressedURL30: results[2].URL,
		Dimensions: model.VariantDimensions{
			Original: dimensions(results[0]),
			Size60:   dimensions(results[1]),
			Size30:   dimensions(results[2]),
		},
		AspectRatio: tag,
		CreatedAt:   s.now().UTC(),
	}

	saved, err := s.repo.Save(ctx, rec)
	if err != nil {
		logger.Error().Err(err).Msg("error saving image record")
		return model.ImageRecord{}, &model.UploadError{Stage: "persist", Err: err}
	}

	logger.Info().Str("id", saved.ID).Msg("image uploaded")
	return saved, nil
}

// transcodeAll runs the three variants concurrently. The first failure
// cancels the others.
func (s *Service) transcodeAll(ctx context.Context, uploadID string, blob []byte, mime string) ([3]transcoder.Result, error) {
	var results [3]transcoder.Result
	g, gctx := errgroup.WithContext(ctx)

	for i, v := range s.policy.Variants() {
		g.Go(func() error {
			res, err := s.transcoder.Transcode(gctx, transcoder.Request{
				UploadID: uploadID,
				Blob:     blob,
				MIME:     mime,
				Variant:  v,
			})
			if err == nil {
				err = res.Validate()
			}
			if err != nil {
				return &model.UploadError{Stage: fmt.Sprintf("transcode %s", v.Name), Err: err}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func dimensions(r transcoder.Result) model.Dimensions {
	return model.Dimensions{Width: r.Width, Height: r.Height}
}
