package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore writes finished results to a file:// path, a plain path or an s3:// URI.
type ObjectStore interface {
	// Put writes content to uri and returns the final URI.
	Put(ctx context.Context, uri string, body io.Reader) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// newUploader builds the multipart uploader used for s3:// destinations; overridden in tests.
// Env support: AWS_REGION, AWS_ENDPOINT_URL_S3, AWS_S3_FORCE_PATH_STYLE.
var newUploader = func(ctx context.Context) (uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	})
	return manager.NewUploader(client), nil
}

// Sink is the default ObjectStore. The S3 uploader is created on first use.
type Sink struct {
	up uploader
}

func NewSink() *Sink { return &Sink{} }

func parseS3(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("invalid s3 uri")
	}
	return
}

func (s *Sink) Put(ctx context.Context, uri string, body io.Reader) (string, error) {
	if !strings.Contains(uri, "://") || strings.HasPrefix(uri, "file://") {
		p := strings.TrimPrefix(uri, "file://")
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
		}
		f, err := os.Create(p)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(f, body); err != nil {
			f.Close()
			return "", err
		}
		return uri, f.Close()
	}
	b, k, err := parseS3(uri)
	if err != nil {
		return "", err
	}
	if s.up == nil {
		if s.up, err = newUploader(ctx); err != nil {
			return "", err
		}
	}
	if _, err = s.up.Upload(ctx, &s3.PutObjectInput{Bucket: &b, Key: &k, Body: body}); err != nil {
		return "", err
	}
	return uri, nil
}
