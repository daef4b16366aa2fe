package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Abraxas-365/pagelift/pkg/config"
	"github.com/Abraxas-365/pagelift/pkg/errx"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/pipeline"
	"github.com/Abraxas-365/pagelift/pkg/slide"
)

// runExtract processes one file in-process and writes the document JSON
func runExtract(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	in := fs.String("in", "", "input file (pdf, docx, png, jpeg, webp)")
	out := fs.String("out", "", "output JSON file; stdout when empty")
	lang := fs.String("lang", "", "active-language marker recorded on the document")
	output := fs.String("output", string(slide.OutputPPTX), "target output kind: pptx, docx or pdf")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		fs.Usage()
		return errx.Validation("extract: -in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return errx.Wrapf(err, errx.TypeValidation, "extract: read %s", *in)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := NewExtractionContainer(cfg)
	doc, err := container.Pipeline.Process(ctx, pipeline.Request{
		Filename:   filepath.Base(*in),
		Data:       data,
		Language:   *lang,
		OutputKind: slide.OutputKind(*output),
	})
	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errx.Wrap(err, "extract: encode document", errx.TypeInternal)
	}

	if *out == "" {
		_, err = os.Stdout.Write(append(encoded, '\n'))
		return err
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		return errx.Wrapf(err, errx.TypeInternal, "extract: write %s", *out)
	}

	logx.WithFields(logx.Fields{
		"pages":    len(doc.Pages),
		"warnings": len(doc.Warnings),
		"out":      *out,
	}).Info("document extracted")
	return nil
}
