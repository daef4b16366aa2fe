package fsxs3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
)

// API is the subset of *s3.Client used here
type API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3FileSystem implements fsx.FileSystem on one bucket, optionally under a
// key prefix
type S3FileSystem struct {
	client API
	bucket string
	prefix string
}

func NewS3FileSystem(client API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (sfs *S3FileSystem) key(name string) string {
	clean := strings.TrimPrefix(path.Clean("/"+name), "/")
	if sfs.prefix == "" {
		return clean
	}
	return sfs.prefix + "/" + clean
}

func (sfs *S3FileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	out, err := sfs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(sfs.bucket),
		Key:    aws.String(sfs.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fsx.NotFound(name)
		}
		return nil, fsx.ReadFailure(name, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fsx.ReadFailure(name, err)
	}
	return data, nil
}

func (sfs *S3FileSystem) Stat(ctx context.Context, name string) (fsx.FileInfo, error) {
	out, err := sfs.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(sfs.bucket),
		Key:    aws.String(sfs.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return fsx.FileInfo{}, fsx.NotFound(name)
		}
		return fsx.FileInfo{}, fsx.ReadFailure(name, err)
	}

	return fsx.FileInfo{
		Name:        path.Base(name),
		Size:        aws.ToInt64(out.ContentLength),
		ModTime:     aws.ToTime(out.LastModified),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

func (sfs *S3FileSystem) Exists(ctx context.Context, name string) (bool, error) {
	if _, err := sfs.Stat(ctx, name); err != nil {
		if errx.HasCode(err, fsx.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (sfs *S3FileSystem) WriteFile(ctx context.Context, name string, data []byte) error {
	_, err := sfs.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(sfs.bucket),
		Key:         aws.String(sfs.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimetype.Detect(data).String()),
	})
	if err != nil {
		return fsx.WriteFailure(name, err)
	}
	return nil
}

func (sfs *S3FileSystem) DeleteFile(ctx context.Context, name string) error {
	_, err := sfs.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(sfs.bucket),
		Key:    aws.String(sfs.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return fsx.DeleteFailure(name, err)
	}
	return nil
}

func (sfs *S3FileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// isNotFound covers GetObject (NoSuchKey) and HeadObject, which has no body
// and reports a bare NotFound code
func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
