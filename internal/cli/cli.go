package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"startrails/internal/config"
	"startrails/internal/pipeline"
	"startrails/internal/storage"
	"startrails/internal/tasks"
	"startrails/internal/trails"
)

// Version is reported by the version command.
const Version = "1.0.0"

// Queue is the part of the pipeline the commands drive.
type Queue interface {
	Submit(job pipeline.Job) (<-chan pipeline.Outcome, error)
	Subscribe() (<-chan pipeline.Event, func())
}

type toolManager interface {
	GetToolStatus() map[string]tasks.ToolStatus
}

type toolManagerFactory func(*config.Config) toolManager

type serverFunc func(ctx context.Context, r *Root) error

// Root holds what every command needs.
type Root struct {
	queue       Queue
	cfg         *config.Config
	log         *slog.Logger
	store       *storage.Store
	decoder     trails.Decoder
	toolFactory toolManagerFactory
	serveFn     serverFunc
}

// NewRoot wires the commands to a pipeline and store. decoder is used by the
// watch command, which folds frames outside the pipeline.
func NewRoot(queue Queue, cfg *config.Config, logger *slog.Logger, store *storage.Store, decoder trails.Decoder) *Root {
	if logger == nil {
		logger = slog.Default()
	}
	if decoder == nil {
		decoder = trails.NativeDecoder{}
	}
	r := &Root{
		queue:   queue,
		cfg:     cfg,
		log:     logger,
		store:   store,
		decoder: decoder,
		toolFactory: func(cfg *config.Config) toolManager {
			return tasks.NewToolManager(cfg, logger)
		},
	}
	r.serveFn = defaultServe
	return r
}

// enqueueAndWait submits job and blocks until it finishes or ctx ends.
func (r *Root) enqueueAndWait(ctx context.Context, job pipeline.Job) (trails.Result, error) {
	if err := ctx.Err(); err != nil {
		return trails.Result{}, err
	}
	done, err := r.queue.Submit(job)
	if err != nil {
		return trails.Result{}, err
	}
	r.log.Debug("run queued", "id", job.ID, "paths", job.Select.Paths)

	select {
	case <-ctx.Done():
		return trails.Result{}, ctx.Err()
	case out := <-done:
		return out.Result, out.Err
	}
}

func printResult(w io.Writer, res trails.Result) {
	fmt.Fprintf(w, "Merged %d of %d images", res.Merged, res.Selected)
	if res.Skipped > 0 {
		fmt.Fprintf(w, " (%d skipped)", res.Skipped)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Final image: %s\n", res.FinalPath)
	if res.Stills > 0 {
		fmt.Fprintf(w, "Numbered stills: %d\n", res.Stills)
	}
	if res.VideoPath != "" {
		fmt.Fprintf(w, "Video: %s\n", res.VideoPath)
	}
	if res.VideoError != "" {
		fmt.Fprintf(w, "Warning: video assembly failed, stills were kept: %s\n", res.VideoError)
	}
}

func isEmptySelection(err error) bool {
	return errors.Is(err, trails.ErrEmptySelection)
}
