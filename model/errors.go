package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("image not found")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrSaveInProgress  = errors.New("save already in progress")
)

// GeometryError is returned when display or natural dimensions can't be used for mapping.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return "geometry: " + e.Reason
}

// PreviewError wraps failures to read, sniff or decode a selected file.
type PreviewError struct {
	File string
	Err  error
}

func (e *PreviewError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("preview: %v", e.Err)
	}
	return fmt.Sprintf("preview %s: %v", e.File, e.Err)
}

func (e *PreviewError) Unwrap() error { return e.Err }

// EncodingError wraps failures to draw or encode a cropped region.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding: %v", e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// UploadError wraps any remote-call or persistence failure of an upload.
// Stage names the step that failed, e.g. "transcode size60" or "persist".
type UploadError struct {
	Stage string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed at %s: %v", e.Stage, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError is returned when a stored document or request field has the wrong shape.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
