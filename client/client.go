// Package client talks to the imgcrop HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/imgcrop/model"
)

// Client provides a wrapper for the gallery and upload endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ model.ImagesUploader = (*Client)(nil)

// New returns a client for the server at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Upload posts a cropped blob with its aspect tag and returns the created record.
// Transport and server failures are returned as *model.UploadError.
func (c *Client) Upload(ctx context.Context, blob []byte, mime string, tag model.AspectRatio) (model.ImageRecord, error) {
	body, contentType, err := uploadForm(blob, mime, tag)
	if err != nil {
		return model.ImageRecord{}, &model.UploadError{Stage: "request", Err: err}
	}

	res, raw, err := c.do(ctx, http.MethodPost, "/upload", contentType, body)
	if err != nil {
		return model.ImageRecord{}, &model.UploadError{Stage: "request", Err: err}
	}
	if res.StatusCode != http.StatusCreated {
		return model.ImageRecord{}, &model.UploadError{Stage: "server", Err: statusError(res, raw)}
	}

	var rec model.ImageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ImageRecord{}, &model.UploadError{Stage: "response", Err: err}
	}
	log.Debug().Str("id", rec.ID).Msg("upload accepted")
	return rec, nil
}

// List returns all records, newest first.
func (c *Client) List(ctx context.Context) ([]model.ImageRecord, error) {
	res, raw, err := c.do(ctx, http.MethodGet, "/images", "", nil)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, statusError(res, raw)
	}
	var recs []model.ImageRecord
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("error unmarshalling images: %w", err)
	}
	return recs, nil
}

// Get returns one record or model.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (model.ImageRecord, error) {
	res, raw, err := c.do(ctx, http.MethodGet, "/images/"+id, "", nil)
	if err != nil {
		return model.ImageRecord{}, err
	}
	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return model.ImageRecord{}, model.ErrNotFound
	default:
		return model.ImageRecord{}, statusError(res, raw)
	}
	var rec model.ImageRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.ImageRecord{}, fmt.Errorf("error unmarshalling image: %w", err)
	}
	return rec, nil
}

// Delete removes the record with id. Unknown ids yield model.ErrNotFound.
func (c *Client) Delete(ctx context.Context, id string) error {
	payload, err := json.Marshal(map[string]string{"imageId": id})
	if err != nil {
		return fmt.Errorf("error encoding delete request: %w", err)
	}
	res, raw, err := c.do(ctx, http.MethodDelete, "/images", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return model.ErrNotFound
	}
	return statusError(res, raw)
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating %s request: %w", method, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("error executing %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading response: %w", err)
	}
	return res, raw, nil
}

func uploadForm(blob []byte, mime string, tag model.AspectRatio) (io.Reader, string, error) {
	if len(blob) == 0 {
		return nil, "", errors.New("empty blob")
	}
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename(mime)))
	h.Set("Content-Type", mime)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(blob); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("aspectRatio", tag.String()); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func filename(mime string) string {
	if _, ext, ok := strings.Cut(mime, "/"); ok && ext != "" {
		return "cropped-image." + ext
	}
	return "cropped-image"
}

func statusError(res *http.Response, raw []byte) error {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Error != "" {
		return fmt.Errorf("server returned %d: %s", res.StatusCode, e.Error)
	}
	return fmt.Errorf("server returned %d", res.StatusCode)
}
