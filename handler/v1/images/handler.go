package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"github.com/imgcrop/model"
	"github.com/imgcrop/preview"
)

// DefaultMaxUploadSize bounds the image part of an upload.
const DefaultMaxUploadSize = preview.DefaultMaxFileSize

// multipart framing and the aspectRatio field on top of the image itself
const formOverhead = 1 << 20

// Service represents handler service.
type Service struct {
	repo          model.ImagesRepository
	uploader      model.ImagesUploader
	maxUploadSize int64
}

// NewService returns new handler service.
func NewService(repo model.ImagesRepository, uploader model.ImagesUploader) *Service {
	return &Service{repo: repo, uploader: uploader, maxUploadSize: DefaultMaxUploadSize}
}

// WithMaxUploadSize overrides the upload size ceiling.
func (s *Service) WithMaxUploadSize(n int64) *Service {
	if n > 0 {
		s.maxUploadSize = n
	}
	return s
}

type deleteRequest struct {
	ImageID string `json:"imageId"`
}

// All returns all images, newest first.
func (s *Service) All(w http.ResponseWriter, r *http.Request) {
	data, statusCode := func() ([]byte, int) {
		images, err := s.repo.All(r.Context())
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("error getting images from db")
			return errorBody("Failed to fetch images"), http.StatusInternalServerError
		}
		return marshal(r, images, http.StatusOK)
	}()
	response(w, data, statusCode)
}

// One returns a single image by id.
func (s *Service) One(w http.ResponseWriter, r *http.Request) {
	data, statusCode := func() ([]byte, int) {
		id := mux.Vars(r)["id"]
		img, err := s.repo.GetOne(r.Context(), id)
		if errors.Is(err, model.ErrNotFound) {
			return errorBody("Image not found"), http.StatusNotFound
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("id", id).Msg("error getting image from db")
			return errorBody("Failed to fetch image"), http.StatusInternalServerError
		}
		return marshal(r, img, http.StatusOK)
	}()
	response(w, data, statusCode)
}

// Delete removes exactly one image named by {"imageId": ...} in the body.
func (s *Service) Delete(w http.ResponseWriter, r *http.Request) {
	data, statusCode := func() ([]byte, int) {
		var req deleteRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
			return errorBody("Invalid request body"), http.StatusBadRequest
		}
		req.ImageID = strings.TrimSpace(req.ImageID)
		if req.ImageID == "" {
			return errorBody("imageId is required"), http.StatusBadRequest
		}

		err := s.repo.Delete(r.Context(), req.ImageID)
		if errors.Is(err, model.ErrNotFound) {
			return errorBody("Image not found"), http.StatusNotFound
		}
		if err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("id", req.ImageID).Msg("error deleting image")
			return errorBody("Failed to delete image"), http.StatusInternalServerError
		}

		hlog.FromRequest(r).Info().Str("id", req.ImageID).Msg("image deleted")
		return marshal(r, map[string]bool{"success": true}, http.StatusOK)
	}()
	response(w, data, statusCode)
}

// Upload accepts a multipart form with the cropped "image" and its "aspectRatio".
func (s *Service) Upload(w http.ResponseWriter, r *http.Request) {
	data, statusCode := func() ([]byte, int) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize+formOverhead)
		if err := r.ParseMultipartForm(formOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return errorBody("Image too large"), http.StatusRequestEntityTooLarge
			}
			return errorBody("Invalid multipart form"), http.StatusBadRequest
		}
		defer r.MultipartForm.RemoveAll()

		tag := model.Free
		if v := r.FormValue("aspectRatio"); v != "" {
			parsed, err := model.ParseAspectRatio(v)
			if err != nil {
				return errorBody(err.Error()), http.StatusBadRequest
			}
			tag = parsed
		}

		file, h, err := r.FormFile("image")
		if err != nil {
			return errorBody("No image provided"), http.StatusBadRequest
		}
		defer file.Close()

		blob, err := io.ReadAll(io.LimitReader(file, s.maxUploadSize+1))
		if err != nil {
			return errorBody(fmt.Sprintf("error reading file %s", h.Filename)), http.StatusBadRequest
		}
		if int64(len(blob)) > s.maxUploadSize {
			return errorBody("Image too large"), http.StatusRequestEntityTooLarge
		}
		if len(blob) == 0 {
			return errorBody("No image provided"), http.StatusBadRequest
		}

		mt := mimetype.Detect(blob)
		if !mimetype.EqualsAny(mt.String(), preview.AcceptedTypes...) {
			return errorBody(fmt.Sprintf("Unsupported image type %s", mt.String())), http.StatusUnsupportedMediaType
		}

		rec, err := s.uploader.Upload(r.Context(), blob, mt.String(), tag)
		if err != nil {
			return uploadFailure(r, err)
		}
		return marshal(r, rec, http.StatusCreated)
	}()
	response(w, data, statusCode)
}

// Health reports that the process is serving.
func (s *Service) Health(w http.ResponseWriter, _ *http.Request) {
	response(w, []byte(`{"status":"ok"}`), http.StatusOK)
}

func uploadFailure(r *http.Request, err error) ([]byte, int) {
	var (
		validationErr *model.ValidationError
		uploadErr     *model.UploadError
	)
	switch {
	case errors.As(err, &validationErr):
		return errorBody(validationErr.Error()), http.StatusBadRequest
	case errors.As(err, &uploadErr):
		hlog.FromRequest(r).Error().Err(err).Str("stage", uploadErr.Stage).Msg("upload failed")
		return errorBody("Failed to upload image"), http.StatusBadGateway
	}
	hlog.FromRequest(r).Error().Err(err).Msg("upload failed")
	return errorBody("Failed to upload image"), http.StatusInternalServerError
}

func marshal(r *http.Request, v any, statusCode int) ([]byte, int) {
	b, err := json.Marshal(v)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("error marshaling response")
		return errorBody("Internal error"), http.StatusInternalServerError
	}
	return b, statusCode
}

func errorBody(msg string) []byte {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

func response(w http.ResponseWriter, data []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}
