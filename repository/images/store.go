package images

import (
	"context"
	"fmt"
	"net/url"

	"github.com/imgcrop/model"
)

// Store is a repository holding a connection that must be released.
type Store interface {
	model.ImagesRepository
	Close(ctx context.Context) error
}

// Open picks the store implementation by the scheme of rawURL:
// postgres/postgresql, mongodb/mongodb+srv or memory.
func Open(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing store url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return OpenPostgres(ctx, rawURL)
	case "mongodb", "mongodb+srv":
		return OpenMongo(ctx, rawURL)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unsupported store scheme %q", u.Scheme)
}
