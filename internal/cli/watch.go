package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"startrails/internal/fsutil"
	"startrails/internal/pipeline"
	"startrails/internal/storage"
	"startrails/internal/tasks"
	"startrails/internal/trails"
)

type watchOptions struct {
	output           string
	prefix           string
	format           string
	quality          int
	keepIntermediate bool
	existing         bool
	debounce         time.Duration
}

func newWatchCmd(root *Root) *cobra.Command {
	opts := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Grow a star trail while a camera writes frames",
		Long: `Watch a directory and fold every new image into a live star trail. The
final image is rewritten after each frame. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.debounce <= 0 {
				opts.debounce = time.Duration(root.cfg.Watch.DebounceMS) * time.Millisecond
			}
			return root.watch(cmd.Context(), args[0], opts, func(format string, a ...any) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.output, "output", "o", root.cfg.Trails.OutputDir, "output directory (default current directory)")
	f.StringVarP(&opts.prefix, "output-prefix", "p", root.cfg.Trails.OutputPrefix, "file name prefix of written images")
	f.StringVar(&opts.format, "format", root.cfg.Trails.Format, "still format: jpg, png or tiff")
	f.IntVar(&opts.quality, "quality", root.cfg.Trails.Quality, "jpeg quality")
	f.BoolVarP(&opts.keepIntermediate, "keep-intermediate", "k", false, "save the trail after every merged frame")
	f.BoolVar(&opts.existing, "existing", false, "merge images already in the directory before watching")
	f.DurationVar(&opts.debounce, "debounce", 0, "quiet period before a written file is merged (default from config)")
	return cmd
}

// watch runs a live stacking session until ctx ends. Frames that fail to decode
// or do not match the trail size are reported and skipped.
func (r *Root) watch(ctx context.Context, dir string, opts watchOptions, printf func(string, ...any)) error {
	renderer := &trails.Renderer{Dir: opts.output, Prefix: opts.prefix, Format: opts.format, Quality: opts.quality}
	if err := renderer.Prepare(); err != nil {
		return err
	}
	live := &trails.LiveStack{
		Decoder:          r.decoder,
		Renderer:         renderer,
		KeepIntermediate: opts.keepIntermediate,
		Log:              r.log,
	}
	session := pipeline.NewID("watch")
	log := r.log.With("session", session)

	add := func(path string, size int64) {
		if isOwnOutput(renderer, path) {
			return
		}
		merged, err := live.Add(path)
		rec := storage.LiveFrame{SessionID: session, Path: path, Index: -1, Size: size}
		switch {
		case err != nil:
			log.Error("frame rejected", "path", path, "error", err)
			rec.Error = err.Error()
		case merged:
			rec.Index = live.Count() - 1
			printf("merged %s (%d frames) -> %s\n", path, live.Count(), renderer.Path(trails.FinalLabel))
		default:
			return
		}
		if err := r.store.RecordLiveFrame(rec); err != nil {
			log.Warn("failed to record live frame", "error", err)
		}
	}

	fsw, err := tasks.NewFileSystemWatcher([]string{dir}, opts.debounce, log)
	if err != nil {
		return err
	}
	if err := fsw.Start(); err != nil {
		fsw.Stop()
		return err
	}
	defer fsw.Stop()

	// Frames written while this runs are picked up twice at most; LiveStack ignores repeats.
	if opts.existing {
		existing, err := trails.Select(trails.SelectOptions{Paths: []string{dir}})
		if err != nil && !isEmptySelection(err) {
			return err
		}
		for _, path := range existing {
			if fsutil.IsImageFile(path) {
				add(path, 0)
			}
		}
	}

	log.Info("live stacking started", "dir", dir, "output", renderer.Dir)
	for {
		select {
		case <-ctx.Done():
			log.Info("live stacking stopped", "frames", live.Count())
			return nil
		case ev := <-fsw.Events:
			add(ev.Path, ev.Size)
		}
	}
}

// isOwnOutput reports whether path is a still written by renderer, which happens
// when the output directory is the watched one.
func isOwnOutput(renderer *trails.Renderer, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	dir, err := filepath.Abs(renderer.Dir)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == dir && strings.HasPrefix(filepath.Base(abs), renderer.Prefix+"_")
}
