package native

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/gabriel-vasile/mimetype"
)

// Loader detects the format of an input and hands it to the matching Opener
type Loader struct {
	openers map[Format]Opener
}

func NewLoader() *Loader {
	return &Loader{openers: make(map[Format]Opener)}
}

// Register sets the opener for a format and returns the loader for chaining
func (l *Loader) Register(format Format, opener Opener) *Loader {
	l.openers[format] = opener
	return l
}

// Formats returns the registered formats
func (l *Loader) Formats() []Format {
	formats := make([]Format, 0, len(l.openers))
	for f := range l.openers {
		formats = append(formats, f)
	}
	return formats
}

// Detect returns the format of data, using the filename extension only to
// disambiguate zip containers.
func Detect(filename string, data []byte) (Format, bool) {
	mt := mimetype.Detect(data)

	switch {
	case mt.Is("application/pdf"):
		return FormatPDF, true
	case mt.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return FormatDOCX, true
	case mt.Is("image/png"):
		return FormatPNG, true
	case mt.Is("image/jpeg"):
		return FormatJPEG, true
	case mt.Is("image/webp"):
		return FormatWEBP, true
	case mt.Is("application/zip") && strings.EqualFold(filepath.Ext(filename), ".docx"):
		return FormatDOCX, true
	}
	return "", false
}

// Load opens data. Unknown formats and container failures are returned as
// document load failures.
func (l *Loader) Load(ctx context.Context, filename string, data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, errorRegistry.NewWithMessage(ErrDocumentLoadFailure, "Document is empty").
			WithDetail("filename", filename)
	}

	format, ok := Detect(filename, data)
	if !ok {
		return nil, errorRegistry.New(ErrUnsupportedFormat).
			WithDetail("filename", filename).
			WithDetail("mime_type", mimetype.Detect(data).String())
	}

	opener, ok := l.openers[format]
	if !ok {
		return nil, errorRegistry.New(ErrUnsupportedFormat).
			WithDetail("filename", filename).
			WithDetail("format", string(format))
	}

	doc, err := opener.Open(ctx, data)
	if err != nil {
		if IsDocumentLoadFailure(err) {
			return nil, err
		}
		return nil, LoadFailure(err).WithDetail("filename", filename).WithDetail("format", string(format))
	}

	logx.WithContext(ctx).WithFields(logx.Fields{
		"filename": filename,
		"format":   format,
		"pages":    doc.NumPages(),
	}).Debug("native: document opened")

	return doc, nil
}
