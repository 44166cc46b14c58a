package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/itsmostafa/docai/internal/export"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[k] = data
	f.types[k] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		isS3    bool
		wantErr bool
	}{
		{"s3://layouts/2024/lease.pb", "layouts", "2024/lease.pb", true, false},
		{"testdata/lease.pb", "", "", false, false},
		{"/abs/path.pb", "", "", false, false},
		{"s3://bucket-only", "", "", true, true},
		{"s3:///key", "", "", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, isS3, err := ParseS3URI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.bucket || key != tt.key || isS3 != tt.isS3 {
				t.Errorf("ParseS3URI() = %q, %q, %v", bucket, key, isS3)
			}
		})
	}
}

func TestBlobsLocal(t *testing.T) {
	b := NewBlobs(S3Options{})
	path := filepath.Join(t.TempDir(), "nested", "doc.pb")
	ctx := context.Background()

	if err := b.Write(ctx, path, []byte{1, 2, 3}, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := b.Read(ctx, path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("Read() = %v", got)
	}

	if _, err := b.Read(ctx, filepath.Join(t.TempDir(), "missing.pb")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestBlobsS3(t *testing.T) {
	fake := newFakeS3()
	b := NewBlobsWithClient(fake)
	ctx := context.Background()

	if err := b.Write(ctx, "s3://bucket/a/doc.pb", []byte("payload"), "application/x-protobuf"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if fake.types["bucket/a/doc.pb"] != "application/x-protobuf" {
		t.Errorf("content type = %q", fake.types["bucket/a/doc.pb"])
	}

	got, err := b.Read(ctx, "s3://bucket/a/doc.pb")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Read() = %q", got)
	}

	if _, err := b.Read(ctx, "s3://bucket/missing"); err == nil {
		t.Error("expected error for missing object")
	}
}

func TestResultSink(t *testing.T) {
	dsn := os.Getenv("DOCAI_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("DOCAI_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	sink, err := OpenResultSink(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenResultSink: %v", err)
	}
	defer sink.Close()

	rows := []export.Row{
		{Filename: "alpha.pdf", Language: "English", FieldName: "Title", Page: "1", Text: "LEASE"},
		{Filename: "beta.pdf"},
	}
	runID, err := sink.Save(ctx, rows)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	n, err := sink.Count(ctx, runID)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != len(rows) {
		t.Errorf("stored %d rows, want %d", n, len(rows))
	}
}
