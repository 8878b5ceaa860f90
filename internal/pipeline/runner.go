package pipeline

import (
	"context"
	"log/slog"

	"startrails/internal/fsutil"
	"startrails/internal/logging"
	"startrails/internal/tasks"
	"startrails/internal/trails"
)

// TrailsRunner selects the inputs of a job and merges them into a star trail.
type TrailsRunner struct {
	Decoder     trails.Decoder
	Video       trails.VideoAssembler
	MemoryCheck bool
	Log         *slog.Logger

	// memCheck and captureLess are swapped in tests.
	memCheck    func(width, height int) error
	captureLess func(a, b string) bool
}

// Run implements Runner.
func (r *TrailsRunner) Run(ctx context.Context, job Job, observe func(trails.Event)) (trails.Result, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("run", job.ID)

	sel := job.Select
	if job.Order == OrderCapture {
		sel.Less = r.captureOrder(ctx, log)
	}
	selection, err := trails.Select(sel)
	if err != nil {
		return trails.Result{}, err
	}
	logging.LogProcessingStep(log, job.ID, "select", "done", map[string]any{
		"count": len(selection),
		"first": selection[0],
		"order": job.Order,
	})

	if r.MemoryCheck {
		r.checkMemory(log, selection)
	}

	renderer := &trails.Renderer{
		Dir:     job.OutputDir,
		Prefix:  job.Prefix,
		Format:  job.Format,
		Quality: job.Quality,
	}
	if err := renderer.Prepare(); err != nil {
		return trails.Result{}, err
	}

	proc := &trails.Processor{
		Decoder:  r.Decoder,
		Renderer: renderer,
		Video:    r.Video,
		Log:      log,
		Observer: observe,
	}
	return proc.Process(ctx, selection, job.Options)
}

func (r *TrailsRunner) captureOrder(ctx context.Context, log *slog.Logger) func(a, b string) bool {
	if r.captureLess != nil {
		return r.captureLess
	}
	return tasks.NewCaptureClock(ctx, log).Less
}

// checkMemory warns when the first frame suggests the run will not fit in RAM.
func (r *TrailsRunner) checkMemory(log *slog.Logger, selection []string) {
	size, ok := trails.DecodeSize(selection[0])
	if !ok {
		log.Debug("frame size unknown before decoding, skipping memory check", "path", selection[0])
		return
	}
	check := r.memCheck
	if check == nil {
		check = fsutil.CheckFrameMemory
	}
	if err := check(size.X, size.Y); err != nil {
		log.Warn("memory check failed", "error", err)
	}
}
