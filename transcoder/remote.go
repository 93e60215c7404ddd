package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"

	"github.com/imgcrop/canvas"
	"github.com/imgcrop/web/downloader"
)

const remoteFolder = "image-uploader"

// Remote delegates transcoding to an image CDN reachable over HTTP.
type Remote struct {
	endpoint   string
	apiKey     string
	client     *http.Client
	downloader downloader.Service
}

// NewRemote returns a transcoder posting to endpoint. When d is not nil it is
// used to read variant dimensions the CDN did not report.
func NewRemote(endpoint, apiKey string, client *http.Client, d downloader.Service) *Remote {
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{endpoint: endpoint, apiKey: apiKey, client: client, downloader: d}
}

type remoteResponse struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Transcode uploads the blob along with the variant parameters.
func (r *Remote) Transcode(ctx context.Context, req Request) (Result, error) {
	body, contentType, err := r.form(req)
	if err != nil {
		return Result{}, fmt.Errorf("error encoding transcode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("error creating transcode request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+r.apiKey)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	res, err := r.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("error executing transcode request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return Result{}, fmt.Errorf("error reading transcode response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Result{}, fmt.Errorf("transcode of %s failed with status %d: %s", req.Variant.Name, res.StatusCode, truncate(raw, 200))
	}

	var parsed remoteResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("error unmarshalling transcode response: %w", err)
	}

	result := Result{URL: parsed.SecureURL, Width: parsed.Width, Height: parsed.Height}
	if result.URL == "" {
		result.URL = parsed.URL
	}
	if err := result.Validate(); err != nil {
		return Result{}, err
	}

	if (result.Width == 0 || result.Height == 0) && r.downloader != nil {
		r.probe(ctx, &result)
	}
	return result, nil
}

func (r *Remote) form(req Request) (io.Reader, string, error) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"folder":    remoteFolder,
		"public_id": req.UploadID + "/" + req.Variant.Name,
		"quality":   strconv.Itoa(canvas.JPEGQuality(req.Variant.Quality)),
		"scale":     strconv.FormatFloat(req.Variant.Scale, 'f', -1, 64),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, req.Variant.Name))
	h.Set("Content-Type", req.MIME)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Blob); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// probe fills missing dimensions from the stored object. Failures leave them zero.
func (r *Remote) probe(ctx context.Context, result *Result) {
	b, err := r.downloader.Download(ctx, result.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", result.URL).Msg("could not download variant for dimensions")
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		log.Warn().Err(err).Str("url", result.URL).Msg("could not read variant dimensions")
		return
	}
	result.Width, result.Height = cfg.Width, cfg.Height
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
