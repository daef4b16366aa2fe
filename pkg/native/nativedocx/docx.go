// Package nativedocx converts DOCX files to PDF with LibreOffice and reads
// the result through a PDF opener.
package nativedocx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/native"
)

const DefaultTimeout = 120 * time.Second

// Converter turns a DOCX file into a PDF file inside outDir and returns the
// PDF path.
type Converter interface {
	Convert(ctx context.Context, docxPath, outDir string) (string, error)
}

// LibreOffice converts with soffice --headless
type LibreOffice struct {
	Binary  string
	Timeout time.Duration
}

func NewLibreOffice(binary string, timeout time.Duration) *LibreOffice {
	if strings.TrimSpace(binary) == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LibreOffice{Binary: binary, Timeout: timeout}
}

func (l *LibreOffice) Convert(ctx context.Context, docxPath, outDir string) (string, error) {
	localCtx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	cmd := exec.CommandContext(localCtx, l.Binary, "--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("libreoffice conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return strings.TrimSuffix(filepath.Join(outDir, filepath.Base(docxPath)), filepath.Ext(docxPath)) + ".pdf", nil
}

// Opener implements native.Opener for DOCX
type Opener struct {
	converter Converter
	pdf       native.Opener
}

func New(converter Converter, pdfOpener native.Opener) *Opener {
	return &Opener{converter: converter, pdf: pdfOpener}
}

func (o *Opener) Open(ctx context.Context, data []byte) (native.Document, error) {
	dir, err := os.MkdirTemp("", "pagelift-docx-*")
	if err != nil {
		return nil, native.LoadFailure(err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input.docx")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, native.LoadFailure(err)
	}

	pdfPath, err := o.converter.Convert(ctx, in, dir)
	if err != nil {
		return nil, native.LoadFailure(err).WithDetail("format", string(native.FormatDOCX))
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, native.LoadFailure(err).WithDetail("format", string(native.FormatDOCX))
	}

	doc, err := o.pdf.Open(ctx, pdfData)
	if err != nil {
		return nil, err
	}
	return &document{Document: doc}, nil
}

// document reports DOCX as its format; everything else is the converted PDF
type document struct {
	native.Document
}

func (d *document) Format() native.Format { return native.FormatDOCX }
