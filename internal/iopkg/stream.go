package iopkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrUnsupportedScheme is returned for URIs other than plain paths, file:// and s3://.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// s3iface is the minimal subset of s3 client methods we use; allows test fakes.
type s3iface interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// newS3Client constructs an s3 client; overridden in tests.
// Env support: AWS_REGION, AWS_ENDPOINT_URL_S3, AWS_S3_FORCE_PATH_STYLE.
var newS3Client = func(ctx context.Context) (s3iface, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("AWS_ENDPOINT_URL_S3"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		if strings.EqualFold(os.Getenv("AWS_S3_FORCE_PATH_STYLE"), "true") {
			o.UsePathStyle = true
		}
	}), nil
}

// ReadSeekCloser is a seekable input handle.
type ReadSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

type location struct {
	path   string // local path
	bucket string
	key    string
}

func parse(uri string) (location, error) {
	if !strings.Contains(uri, "://") {
		return location{path: uri}, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return location{}, err
	}
	switch u.Scheme {
	case "file":
		return location{path: strings.TrimPrefix(uri, "file://")}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return location{}, fmt.Errorf("invalid s3 uri %q", uri)
		}
		return location{bucket: u.Host, key: key}, nil
	default:
		return location{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
}

// Open returns a ReadCloser and (if known) size for plain paths, file:// or s3:// URIs.
func Open(ctx context.Context, uri string) (io.ReadCloser, int64, error) {
	loc, err := parse(uri)
	if err != nil {
		return nil, 0, err
	}
	if loc.path != "" {
		f, err := os.Open(loc.path)
		if err != nil {
			return nil, 0, err
		}
		st, _ := f.Stat()
		var sz int64
		if st != nil {
			sz = st.Size()
		}
		return f, sz, nil
	}
	cl, err := newS3Client(ctx)
	if err != nil {
		return nil, 0, err
	}
	resp, err := cl.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.bucket), Key: aws.String(loc.key),
	})
	if err != nil {
		return nil, 0, err
	}
	var sz int64
	if resp.ContentLength != nil {
		sz = *resp.ContentLength
	}
	return resp.Body, sz, nil
}

// OpenSeeker is Open for consumers that push bytes back with a negative seek. Local files
// are returned as is; object-store bodies are buffered in memory.
func OpenSeeker(ctx context.Context, uri string) (ReadSeekCloser, int64, error) {
	rc, sz, err := Open(ctx, uri)
	if err != nil {
		return nil, 0, err
	}
	if f, ok := rc.(*os.File); ok {
		return f, sz, nil
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, 0, err
	}
	return nopSeekCloser{bytes.NewReader(b)}, int64(len(b)), nil
}

// Exists checks that uri names a readable object without reading it.
func Exists(ctx context.Context, uri string) error {
	loc, err := parse(uri)
	if err != nil {
		return err
	}
	if loc.path != "" {
		st, err := os.Stat(loc.path)
		if err != nil {
			return err
		}
		if st.IsDir() {
			return fmt.Errorf("%s is a directory", loc.path)
		}
		return nil
	}
	cl, err := newS3Client(ctx)
	if err != nil {
		return err
	}
	_, err = cl.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(loc.bucket), Key: aws.String(loc.key)})
	return err
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }
