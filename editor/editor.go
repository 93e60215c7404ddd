// Package editor drives one image through preview, crop and upload.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/imgcrop/canvas"
	"github.com/imgcrop/crop"
	"github.com/imgcrop/model"
	"github.com/imgcrop/preview"
)

// Editor is the client-side crop workflow. It is safe for concurrent use.
type Editor struct {
	pipeline preview.Pipeline
	uploader model.ImagesUploader
	session  *crop.Session

	mu      sync.Mutex
	preview *preview.Preview
}

// New returns an editor starting with aspect ratio tag.
func New(p preview.Pipeline, u model.ImagesUploader, tag model.AspectRatio) *Editor {
	return &Editor{pipeline: p, uploader: u, session: crop.NewSession(tag)}
}

// Open builds the preview of the file at path and starts a selection on it.
func (e *Editor) Open(path string) (*preview.Preview, error) {
	p, err := e.pipeline.Open(path)
	if err != nil {
		return nil, err
	}
	return p, e.load(p)
}

// Load is Open for an already opened file.
func (e *Editor) Load(name string, r io.Reader) (*preview.Preview, error) {
	p, err := e.pipeline.Build(name, r)
	if err != nil {
		return nil, err
	}
	return p, e.load(p)
}

func (e *Editor) load(p *preview.Preview) error {
	if err := e.session.Load(p.Size()); err != nil {
		return err
	}
	e.mu.Lock()
	e.preview = p
	e.mu.Unlock()

	log.Debug().
		Str("file", p.Name).
		Int("width", p.Image.Bounds().Dx()).
		Int("height", p.Image.Bounds().Dy()).
		Bool("scaled", p.Scaled()).
		Msg("preview ready")
	return nil
}

// SetAspectRatio switches the crop constraint.
func (e *Editor) SetAspectRatio(tag model.AspectRatio) error {
	return e.session.SetAspectRatio(tag)
}

// Adjust replaces the selection with r, constrained to the current aspect ratio.
func (e *Editor) Adjust(r crop.Rect) error {
	return e.session.Adjust(r)
}

// AdjustNatural is Adjust for a rect in pixels of the original file.
func (e *Editor) AdjustNatural(r crop.Rect) error {
	p, err := e.loaded()
	if err != nil {
		return err
	}
	if r.Unit != crop.Pixel {
		return &model.GeometryError{Reason: "natural rect must be in pixels"}
	}
	d, err := crop.ToDisplayed(r, p.Size(), originalSize(p))
	if err != nil {
		return err
	}
	return e.session.Adjust(d)
}

// NaturalSelection returns the current selection in pixels of the original file.
func (e *Editor) NaturalSelection() (crop.Rect, error) {
	p, err := e.loaded()
	if err != nil {
		return crop.Rect{}, err
	}
	return crop.ToNatural(e.session.Rect(), p.Size(), originalSize(p))
}

func (e *Editor) loaded() (*preview.Preview, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preview == nil {
		return nil, errors.New("no image loaded")
	}
	return e.preview, nil
}

func originalSize(p *preview.Preview) crop.Size {
	return crop.SizeOf(image.Rectangle{Max: p.Original})
}

// Selection returns the current selection in percent of the preview.
func (e *Editor) Selection() crop.Rect {
	return e.session.Rect()
}

// State returns the session state.
func (e *Editor) State() crop.State {
	return e.session.State()
}

// Save crops the preview raster to the selection, uploads it and clears the
// editor. On failure the selection is kept so the save can be retried.
// A save while another is in flight fails with model.ErrSaveInProgress.
func (e *Editor) Save(ctx context.Context) (model.ImageRecord, error) {
	rect, tag, err := e.session.BeginSave()
	if err != nil {
		return model.ImageRecord{}, err
	}

	e.mu.Lock()
	p := e.preview
	e.mu.Unlock()

	rec, err := e.save(ctx, p, rect, tag)
	if err != nil {
		e.session.Fail()
		log.Error().Err(err).Msg("save failed")
		return model.ImageRecord{}, err
	}

	e.session.Reset()
	e.mu.Lock()
	e.preview = nil
	e.mu.Unlock()
	return rec, nil
}

// Render draws the current selection without uploading it.
func (e *Editor) Render(ctx context.Context) (canvas.Blob, error) {
	if st := e.session.State(); st != crop.Editing {
		return canvas.Blob{}, fmt.Errorf("render in state %s", st)
	}
	p, err := e.loaded()
	if err != nil {
		return canvas.Blob{}, err
	}
	return render(ctx, p, e.session.Rect())
}

func render(ctx context.Context, p *preview.Preview, rect crop.Rect) (canvas.Blob, error) {
	if p == nil {
		return canvas.Blob{}, errors.New("no image loaded")
	}
	size := p.Size()
	natural, err := crop.ToNatural(rect, size, size)
	if err != nil {
		return canvas.Blob{}, err
	}
	return canvas.Resample(ctx, p.Image, natural, canvas.EncodingFor(p.MIME))
}

func (e *Editor) save(ctx context.Context, p *preview.Preview, rect crop.Rect, tag model.AspectRatio) (model.ImageRecord, error) {
	blob, err := render(ctx, p, rect)
	if err != nil {
		return model.ImageRecord{}, err
	}

	rec, err := e.uploader.Upload(ctx, blob.Data, blob.MIME, tag)
	if err != nil {
		var uploadErr *model.UploadError
		if !errors.As(err, &uploadErr) {
			err = &model.UploadError{Stage: "upload", Err: err}
		}
		return model.ImageRecord{}, err
	}

	log.Info().Str("id", rec.ID).Str("aspectRatio", tag.String()).
		Int("width", blob.Width).Int("height", blob.Height).Msg("crop saved")
	return rec, nil
}
