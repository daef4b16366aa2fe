package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/Abraxas-365/pagelift/pkg/kernel"
	"github.com/Abraxas-365/pagelift/pkg/logx"
)

func newBufferedLogger(format logx.Format, level logx.Level) (*logx.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.Level = level
	cfg.EnableColors = false
	cfg.EnableTimestamp = false
	cfg.Output = buf
	return logx.NewLogger(cfg), buf
}

func TestJSONFormatterIncludesFields(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatJSON, logx.LevelInfo)

	logger.WithFields(logx.Fields{"backend": "local", "page": 3}).Warn("probe failed")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if got["level"] != "WARN" || got["message"] != "probe failed" {
		t.Fatalf("unexpected entry: %v", got)
	}
	if got["backend"] != "local" || got["page"].(float64) != 3 {
		t.Fatalf("missing fields: %v", got)
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatJSON, logx.LevelWarn)

	logger.WithField("k", "v").Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.SetLevel(logx.LevelDebug)
	logger.WithField("k", "v").Debug("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("debug should pass after SetLevel, got %q", buf.String())
	}
}

func TestConsoleFieldsAreSorted(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatConsole, logx.LevelInfo)

	logger.WithFields(logx.Fields{"zeta": 1, "alpha": 2, "mid": 3}).Info("hello")

	line := buf.String()
	if !strings.HasPrefix(line, "[INFO] hello alpha=2 mid=3 zeta=1") {
		t.Fatalf("unexpected console line %q", line)
	}
}

func TestWithContextLiftsIDs(t *testing.T) {
	logger, buf := newBufferedLogger(logx.FormatJSON, logx.LevelInfo)

	ctx := kernel.WithDocumentID(context.Background(), kernel.DocumentID("doc-1"))
	ctx = kernel.WithJobID(ctx, kernel.NewJobID("job-9"))

	logger.WithField("page", 1).WithContext(ctx).Info("page done")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["document_id"] != "doc-1" || got["job_id"] != "job-9" {
		t.Fatalf("context ids not lifted: %v", got)
	}
}

func TestFatalUsesExitFunc(t *testing.T) {
	logger, _ := newBufferedLogger(logx.FormatJSON, logx.LevelInfo)
	code := -1
	logger.SetExitFunc(func(c int) { code = c })

	logger.WithField("k", "v").Fatal("stop")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logx.Level{
		"debug":    logx.LevelDebug,
		"WARNING":  logx.LevelWarn,
		"off":      logx.LevelOff,
		"nonsense": logx.LevelInfo,
	}
	for in, want := range cases {
		if got := logx.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
