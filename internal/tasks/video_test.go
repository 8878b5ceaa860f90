package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"startrails/internal/config"
)

func TestFFmpegArgs(t *testing.T) {
	enc := NewFFmpegEncoder(config.Default().Video, nil)
	got := enc.Args("/out/trails_%05d.jpg", "/out/trails_final.mp4")
	want := []string{
		"-y", "-framerate", "30", "-i", "/out/trails_%05d.jpg",
		"-s", "hd1080", "-c:v", "libx264", "-pix_fmt", "yuvj420p",
		"/out/trails_final.mp4",
	}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAssembleVideoReportsExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-ffmpeg")
	script := "#!/bin/sh\necho 'Could not open file' >&2\nexit 3\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	enc := &FFmpegEncoder{Binary: bin}

	err := enc.AssembleVideo(context.Background(), filepath.Join(dir, "x_%05d.jpg"), filepath.Join(dir, "x_final.mp4"))
	var encErr *EncoderError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected EncoderError, got %v", err)
	}
	if encErr.ExitCode != 3 || !strings.Contains(encErr.Error(), "Could not open file") {
		t.Fatalf("unexpected error details: %v", encErr)
	}
}

func TestAssembleVideoSucceeds(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stub requires a POSIX shell")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "fake-ffmpeg")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	enc := &FFmpegEncoder{Binary: bin}
	if err := enc.AssembleVideo(context.Background(), "in_%05d.jpg", "out.mp4"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestAssembleVideoMissingBinary(t *testing.T) {
	enc := &FFmpegEncoder{Binary: filepath.Join(t.TempDir(), "does-not-exist")}
	err := enc.AssembleVideo(context.Background(), "in_%05d.jpg", "out.mp4")
	var encErr *EncoderError
	if !errors.As(err, &encErr) || encErr.ExitCode != -1 {
		t.Fatalf("expected start failure, got %v", err)
	}
}
