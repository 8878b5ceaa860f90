package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"startrails/internal/config"
)

// EncoderError reports a failed or missing external video encoder.
type EncoderError struct {
	Binary   string
	ExitCode int // -1 when the process never started
	Stderr   string
	Err      error
}

func (e *EncoderError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s could not be started: %v", e.Binary, e.Err)
	}
	msg := fmt.Sprintf("%s exited with status %d", e.Binary, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

func (e *EncoderError) Unwrap() error { return e.Err }

// FFmpegEncoder assembles a numbered still sequence into a video.
type FFmpegEncoder struct {
	Binary      string
	FPS         int
	Size        string
	Codec       string
	PixelFormat string
	Log         *slog.Logger
}

// NewFFmpegEncoder builds an encoder from the video configuration.
func NewFFmpegEncoder(cfg config.Video, log *slog.Logger) *FFmpegEncoder {
	return &FFmpegEncoder{
		Binary:      cfg.Binary,
		FPS:         cfg.FPS,
		Size:        cfg.Size,
		Codec:       cfg.Codec,
		PixelFormat: cfg.PixelFormat,
		Log:         log,
	}
}

// Args returns the encoder arguments for a sequence pattern and output file.
func (e *FFmpegEncoder) Args(pattern, output string) []string {
	fps := e.FPS
	if fps <= 0 {
		fps = 30
	}
	args := []string{"-y", "-framerate", strconv.Itoa(fps), "-i", pattern}
	if e.Size != "" {
		args = append(args, "-s", e.Size)
	}
	codec := e.Codec
	if codec == "" {
		codec = "libx264"
	}
	args = append(args, "-c:v", codec)
	if e.PixelFormat != "" {
		args = append(args, "-pix_fmt", e.PixelFormat)
	}
	return append(args, output)
}

// AssembleVideo runs the encoder and waits for it without a deadline.
func (e *FFmpegEncoder) AssembleVideo(ctx context.Context, pattern, output string) error {
	binary := e.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	args := e.Args(pattern, output)
	log.Info("generating the video", "command", binary+" "+strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &EncoderError{Binary: binary, ExitCode: exitErr.ExitCode(), Stderr: stderr.String(), Err: err}
	}
	return &EncoderError{Binary: binary, ExitCode: -1, Err: err}
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
