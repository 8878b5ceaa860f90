package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"startrails/internal/config"
)

func TestTraditionalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", "text")
	l.With("run", "r1").Info("processing image", "index", 3)
	l.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "[INFO] processing image [run=r1 index=3]") {
		t.Fatalf("unexpected log line: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
}

func TestSetupWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Logging.FileOutput = true
	cfg.Logging.LogDir = dir

	l, err := Setup(cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Warn("to file")

	matches, _ := filepath.Glob(filepath.Join(dir, "startrails-*.log"))
	var found bool
	for _, m := range matches {
		b, _ := os.ReadFile(m)
		if bytes.Contains(b, []byte("[WARN] to file")) {
			found = true
		}
	}
	if !found {
		t.Fatalf("log line not written to %v", matches)
	}
}
