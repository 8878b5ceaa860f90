package tasks

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"startrails/internal/config"
)

func TestExtractVersion(t *testing.T) {
	cases := map[string]string{
		"ffmpeg version 6.1.1 Copyright (c) 2000-2023\nbuilt with gcc": "ffmpeg version 6.1.1 Copyright (c) 2000-2023",
		"Version: ImageMagick 7.1.1-21 Q16-HDRI":                       "Version: ImageMagick 7.1.1-21 Q16-HDRI",
		"tool 1.0\nmore":                                               "tool 1.0",
	}
	for in, want := range cases {
		if got := extractVersion(in); got != want {
			t.Fatalf("extractVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckToolUsesConfiguredEncoder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "my-ffmpeg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho 'ffmpeg version 9.9'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Video.Binary = bin

	status := NewToolManager(cfg, nil).CheckTool("ffmpeg")
	if !status.Available || status.Path != bin || status.Version != "ffmpeg version 9.9" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestCheckToolMissing(t *testing.T) {
	status := NewToolManager(config.Default(), nil).CheckTool("definitely-not-installed-tool")
	if status.Available || status.Error == nil {
		t.Fatalf("expected missing tool, got %+v", status)
	}
}
