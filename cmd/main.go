// Command pagelift extracts editable slide content from PDF, DOCX and image
// files. "serve" (the default) runs the HTTP API with its job workers;
// "extract" processes a single file from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/Abraxas-365/pagelift/pkg/config"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	logx.SetDefaultLogger(logx.NewLogger(logx.LoadFromEnv()))

	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		runServe(cfg)
	case "extract":
		if err := runExtract(cfg, args); err != nil {
			logx.Fatalf("%v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: %s [serve | extract -in FILE [-out FILE] [-lang LANG] [-output pptx|docx|pdf]]\n", os.Args[0])
		os.Exit(2)
	}
}
