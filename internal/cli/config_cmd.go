package cli

import (
	"fmt"
	"io"
	"strings"

	"startrails/internal/config"
)

func showConfig(w io.Writer, cfg *config.Config) error {
	fmt.Fprintf(w, "Config file: %s\n", config.Path())

	output := cfg.Trails.OutputDir
	if output == "" {
		output = "(current directory)"
	}
	exts := "(all)"
	if len(cfg.Trails.Extensions) > 0 {
		exts = strings.Join(cfg.Trails.Extensions, ", ")
	}
	fmt.Fprintf(w, "\nTrails:\n")
	fmt.Fprintf(w, "  Output directory: %s\n", output)
	fmt.Fprintf(w, "  Output prefix: %s\n", cfg.Trails.OutputPrefix)
	fmt.Fprintf(w, "  Extensions: %s\n", exts)
	fmt.Fprintf(w, "  Format: %s (quality %d)\n", cfg.Trails.Format, cfg.Trails.Quality)

	fmt.Fprintf(w, "\nVideo:\n")
	fmt.Fprintf(w, "  Encoder: %s\n", cfg.Video.Binary)
	fmt.Fprintf(w, "  %d fps, size %s, codec %s, pixel format %s\n",
		cfg.Video.FPS, cfg.Video.Size, cfg.Video.Codec, cfg.Video.PixelFormat)

	fmt.Fprintf(w, "\nDecoder mode: %s\n", cfg.Decoder.Mode)
	fmt.Fprintf(w, "Memory check: %t\n", cfg.Processing.MemoryCheck)
	fmt.Fprintf(w, "Database: %s\n", cfg.Paths.DatabasePath)
	fmt.Fprintf(w, "Logging: %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(w, "Server: http %s, grpc %s\n", cfg.Server.HTTPAddr, cfg.Server.GRPCAddr)
	fmt.Fprintf(w, "Watch debounce: %dms\n", cfg.Watch.DebounceMS)
	return nil
}
