package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Source supplies the raw CSV dataset.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Load opens src and decodes its records.
func Load(ctx context.Context, src Source) ([]Record, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src, err)
	}
	defer rc.Close()

	records, err := Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	return records, nil
}

// FileSource reads the dataset from the local filesystem.
type FileSource struct {
	Path string
}

func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

func (s FileSource) String() string { return "file:" + s.Path }

// HTTPSource fetches the dataset from a URL, e.g. a static /resources.csv.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s HTTPSource) String() string { return s.URL }

// S3Options configures an S3-compatible bucket holding the dataset.
type S3Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	Key       string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Source reads the dataset object from S3-compatible storage.
type S3Source struct {
	api    *minio.Client
	bucket string
	key    string
}

// NewS3Source creates a minio client for opts. No request is made until Open.
func NewS3Source(opts S3Options) (*S3Source, error) {
	api, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio.New: %w", err)
	}
	return &S3Source{api: api, bucket: opts.Bucket, key: opts.Key}, nil
}

func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before decoding starts.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (s *S3Source) String() string { return "s3://" + s.bucket + "/" + s.key }
