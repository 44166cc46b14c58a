// Package store reads and writes layout payloads and persists results.
package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures the S3 client.
type S3Options struct {
	Region string
	// Endpoint overrides the AWS endpoint, e.g. for MinIO. Path-style
	// addressing is used when set.
	Endpoint string
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, s3Opts...), nil
}

// ParseS3URI splits s3://bucket/key. ok is false for other URIs.
func ParseS3URI(uri string) (bucket, key string, ok bool, err error) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false, nil
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", true, fmt.Errorf("invalid S3 URI %q: want s3://bucket/key", uri)
	}
	return bucket, key, true, nil
}

// Blobs reads and writes byte payloads addressed by a local path or an
// s3://bucket/key URI. The S3 client is created on first use.
type Blobs struct {
	opts S3Options

	mu     sync.Mutex
	client ObjectAPI
}

// NewBlobs returns Blobs that create an S3 client from opts when needed.
func NewBlobs(opts S3Options) *Blobs {
	return &Blobs{opts: opts}
}

// NewBlobsWithClient returns Blobs using client for s3:// URIs.
func NewBlobsWithClient(client ObjectAPI) *Blobs {
	return &Blobs{client: client}
}

func (b *Blobs) s3(ctx context.Context) (ObjectAPI, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		c, err := NewS3Client(ctx, b.opts)
		if err != nil {
			return nil, err
		}
		b.client = c
	}
	return b.client, nil
}

// Read returns the payload at uri.
func (b *Blobs) Read(ctx context.Context, uri string) ([]byte, error) {
	bucket, key, isS3, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if !isS3 {
		data, err := os.ReadFile(uri)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", uri, err)
		}
		return data, nil
	}

	client, err := b.s3(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", uri, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	return data, nil
}

// Write stores data at uri, creating parent directories for local paths.
func (b *Blobs) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	bucket, key, isS3, err := ParseS3URI(uri)
	if err != nil {
		return err
	}
	if !isS3 {
		if dir := filepath.Dir(uri); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(uri, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", uri, err)
		}
		return nil
	}

	client, err := b.s3(ctx)
	if err != nil {
		return err
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("failed to put %s: %w", uri, err)
	}
	return nil
}
