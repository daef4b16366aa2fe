package fsxs3_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/Abraxas-365/pagelift/pkg/fsx/fsxs3"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var _ fsx.FileSystem = (*fsxs3.S3FileSystem)(nil)

type object struct {
	data        []byte
	contentType string
}

type fakeS3 struct {
	bucket  string
	objects map[string]object
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]object{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = object{data: data, contentType: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ContentType:   aws.String(obj.contentType),
		LastModified:  aws.Time(time.Unix(0, 0)),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestRoundTripUnderPrefix(t *testing.T) {
	ctx := context.Background()
	api := newFakeS3()
	sfs := fsxs3.NewS3FileSystem(api, "decks", "/pagelift/")

	name := sfs.Join("uploads", "doc-1", "deck.pdf")
	if err := sfs.WriteFile(ctx, name, []byte("%PDF-1.7\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	obj, ok := api.objects["pagelift/uploads/doc-1/deck.pdf"]
	if !ok {
		t.Fatalf("unexpected keys %v", api.objects)
	}
	if obj.contentType != "application/pdf" {
		t.Fatalf("content type should be sniffed, got %q", obj.contentType)
	}

	data, err := sfs.ReadFile(ctx, name)
	if err != nil || string(data) != "%PDF-1.7\n" {
		t.Fatalf("unexpected read %q %v", data, err)
	}
	if api.bucket != "decks" {
		t.Fatalf("wrong bucket %q", api.bucket)
	}

	info, err := sfs.Stat(ctx, name)
	if err != nil || info.Name != "deck.pdf" || info.Size != 9 {
		t.Fatalf("unexpected stat %+v %v", info, err)
	}
}

func TestMissingObjects(t *testing.T) {
	ctx := context.Background()
	sfs := fsxs3.NewS3FileSystem(newFakeS3(), "decks", "")

	if _, err := sfs.ReadFile(ctx, "nope.json"); !errx.HasCode(err, fsx.ErrNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	ok, err := sfs.Exists(ctx, "nope.json")
	if err != nil || ok {
		t.Fatalf("expected missing object, got %v %v", ok, err)
	}
	if err := sfs.DeleteFile(ctx, "nope.json"); err != nil {
		t.Fatalf("delete of a missing object should succeed: %v", err)
	}
}
