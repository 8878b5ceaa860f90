package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"startrails/internal/cli"
	"startrails/internal/config"
	"startrails/internal/logging"
	"startrails/internal/magick"
	"startrails/internal/pipeline"
	"startrails/internal/storage"
	"startrails/internal/tasks"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logging.Setup(cfg)
	if err != nil {
		return err
	}

	store, err := storage.New(cfg.Paths.DatabasePath)
	if err != nil {
		log.Warn("run history disabled", "database", cfg.Paths.DatabasePath, "error", err)
	}
	defer store.Close()

	decoder, err := magick.ForMode(cfg.Decoder.Mode)
	if err != nil {
		return err
	}
	defer magick.Terminate()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &pipeline.TrailsRunner{
		Decoder:     decoder,
		Video:       tasks.NewFFmpegEncoder(cfg.Video, log),
		MemoryCheck: cfg.Processing.MemoryCheck,
		Log:         log,
	}
	pipe := pipeline.New(ctx, cfg.Processing.ParallelJobs, log, store, runner)
	defer pipe.Stop()

	return cli.NewRootCmd(cfg, log, store, pipe, decoder).ExecuteContext(ctx)
}
