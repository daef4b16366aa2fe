package nativepdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDPI           = 150
	DefaultRenderTimeout = 60 * time.Second
)

// Renderer rasterizes one page of a PDF file to PNG bytes. page is 1-based.
type Renderer interface {
	RenderPage(ctx context.Context, pdfPath string, page int) ([]byte, error)
}

// Poppler renders pages with pdftoppm
type Poppler struct {
	Binary  string
	DPI     int
	Timeout time.Duration
}

func NewPoppler(binary string, dpi int, timeout time.Duration) *Poppler {
	if strings.TrimSpace(binary) == "" {
		binary = "pdftoppm"
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &Poppler{Binary: binary, DPI: dpi, Timeout: timeout}
}

func (p *Poppler) RenderPage(ctx context.Context, pdfPath string, page int) ([]byte, error) {
	if page < 1 {
		return nil, fmt.Errorf("invalid page number: %d (must be >= 1)", page)
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	outDir, err := os.MkdirTemp("", "pagelift-render-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(outDir)

	prefix := filepath.Join(outDir, "page")
	cmd := exec.CommandContext(ctx,
		p.Binary,
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		"-r", strconv.Itoa(p.DPI),
		"-png",
		"-singlefile",
		pdfPath,
		prefix,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("pdftoppm timed out after %s on page %d", p.Timeout, page)
		}
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w: %s", page, err, strings.TrimSpace(stderr.String()))
	}

	return os.ReadFile(prefix + ".png")
}
