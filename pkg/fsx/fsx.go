// Package fsx abstracts the blob storage that holds uploaded documents and
// extraction results.
package fsx

import (
	"context"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/errx"
)

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound    = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrInvalidPath = fsxErrors.Register("INVALID_PATH", errx.TypeValidation, 400, "Path escapes the storage root")
	ErrRead        = fsxErrors.Register("READ", errx.TypeExternal, 500, "Failed to read file")
	ErrWrite       = fsxErrors.Register("WRITE", errx.TypeExternal, 500, "Failed to write file")
	ErrDelete      = fsxErrors.Register("DELETE", errx.TypeExternal, 500, "Failed to delete file")
)

// NotFound, ReadFailure, WriteFailure and DeleteFailure build the shared
// codes for implementations
func NotFound(path string) *errx.Error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

func InvalidPath(path string) *errx.Error {
	return fsxErrors.New(ErrInvalidPath).WithDetail("path", path)
}

func ReadFailure(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrRead, cause).WithDetail("path", path)
}

func WriteFailure(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrWrite, cause).WithDetail("path", path)
}

func DeleteFailure(path string, cause error) *errx.Error {
	return fsxErrors.NewWithCause(ErrDelete, cause).WithDetail("path", path)
}

// FileInfo represents information about a file
type FileInfo struct {
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// FileReader provides read-only operations
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Stat(ctx context.Context, path string) (FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileDeleter provides deletion operations
type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
}

// FileSystem combines all file operations. Paths are slash separated and
// relative to the storage root.
type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
	Join(elem ...string) string
}
