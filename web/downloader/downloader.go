package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Service fetches stored variants back by url.
type Service interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

type impl struct {
	client *http.Client
}

// New returns a downloader using client. A nil client means http.DefaultClient.
func New(client *http.Client) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &impl{client}
}

// Download GETs url and returns the whole body of a 200 response. Any other
// status is an error carrying the status code.
func (s *impl) Download(ctx context.Context, url string) ([]byte, error) {
	const op = "downloader.Download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s answered with status %d", op, url, res.StatusCode)
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: reading %s: %w", op, url, err)
	}
	return b, nil
}
