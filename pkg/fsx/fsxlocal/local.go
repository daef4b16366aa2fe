package fsxlocal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/gabriel-vasile/mimetype"
)

// LocalFileSystem implements fsx.FileSystem using local disk
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates basePath if needed (e.g. "./uploads")
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fsx.WriteFailure(basePath, err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.InvalidPath(basePath)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

// ============================================================================
// FileReader Implementation
// ============================================================================

func (lfs *LocalFileSystem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	fullPath, err := lfs.fullPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fsx.NotFound(name)
		}
		return nil, fsx.ReadFailure(name, err)
	}
	return data, nil
}

func (lfs *LocalFileSystem) Stat(ctx context.Context, name string) (fsx.FileInfo, error) {
	fullPath, err := lfs.fullPath(name)
	if err != nil {
		return fsx.FileInfo{}, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fsx.FileInfo{}, fsx.NotFound(name)
		}
		return fsx.FileInfo{}, fsx.ReadFailure(name, err)
	}

	contentType := "application/octet-stream"
	if !info.IsDir() {
		if mt, err := mimetype.DetectFile(fullPath); err == nil {
			contentType = mt.String()
		}
	}

	return fsx.FileInfo{
		Name:        info.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
	}, nil
}

func (lfs *LocalFileSystem) Exists(ctx context.Context, name string) (bool, error) {
	fullPath, err := lfs.fullPath(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fsx.ReadFailure(name, err)
	}
	return true, nil
}

// ============================================================================
// FileWriter Implementation
// ============================================================================

// WriteFile writes through a temp file and a rename so readers never see a
// partial result
func (lfs *LocalFileSystem) WriteFile(ctx context.Context, name string, data []byte) error {
	fullPath, err := lfs.fullPath(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fsx.WriteFailure(name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return fsx.WriteFailure(name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fsx.WriteFailure(name, err)
	}
	if err := tmp.Close(); err != nil {
		return fsx.WriteFailure(name, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fsx.WriteFailure(name, err)
	}
	return nil
}

// ============================================================================
// FileDeleter Implementation
// ============================================================================

func (lfs *LocalFileSystem) DeleteFile(ctx context.Context, name string) error {
	fullPath, err := lfs.fullPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // Already deleted
		}
		return fsx.DeleteFailure(name, err)
	}
	return nil
}

func (lfs *LocalFileSystem) Join(elem ...string) string {
	return path.Join(elem...)
}

// BasePath returns the storage root
func (lfs *LocalFileSystem) BasePath() string {
	return lfs.basePath
}

// fullPath resolves name under the base path, rejecting anything that
// would land outside it
func (lfs *LocalFileSystem) fullPath(name string) (string, error) {
	full := filepath.Join(lfs.basePath, filepath.FromSlash(path.Clean("/"+name)))
	if full != lfs.basePath && !strings.HasPrefix(full, lfs.basePath+string(filepath.Separator)) {
		return "", fsx.InvalidPath(name)
	}
	return full, nil
}
