package uploader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

const defaultACL = "public-read"

// Service describes uploader interface.
type Service interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// Config names the bucket objects go to. When PublicURL is set, returned
// links are built from it instead of the S3 location (CDN in front of the bucket).
type Config struct {
	Bucket    string
	ACL       string
	PublicURL string
}

type impl struct {
	s3manager s3manageriface.UploaderAPI
	cfg       Config
}

// New returns uploader implementation using s3 manager.
func New(s3manager s3manageriface.UploaderAPI, cfg Config) Service {
	if cfg.ACL == "" {
		cfg.ACL = defaultACL
	}
	return &impl{s3manager, cfg}
}

// Upload uploads object to s3 bucket and returns link for download.
func (s *impl) Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	result, err := s.s3manager.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        r,
		ACL:         aws.String(s.cfg.ACL),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("can't upload %s with error: %w", key, err)
	}

	if s.cfg.PublicURL != "" {
		return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key, nil
	}
	return result.Location, nil
}
