package cli

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"startrails/internal/config"
	"startrails/internal/grpcserver"
	"startrails/internal/pipeline"
	"startrails/internal/storage"
	"startrails/internal/tasks"
	"startrails/internal/trails"
)

// NewRootCmd creates the root Cobra command
func NewRootCmd(cfg *config.Config, log *slog.Logger, store *storage.Store, queue Queue, decoder trails.Decoder) *cobra.Command {
	return newRootCmd(NewRoot(queue, cfg, log, store, decoder))
}

func newRootCmd(root *Root) *cobra.Command {
	var req pipeline.Request

	rootCmd := &cobra.Command{
		Use:   "startrails [flags] <paths...>",
		Short: "Merge a night-sky image sequence into a star-trail image",
		Long: `startrails keeps the brightest value of every pixel across a sequence of
exposures taken from a fixed camera, producing a star-trail image. It can also
write the growing trail as a numbered still sequence, prepend a reversed
timelapse and assemble everything into a video with ffmpeg.

Paths may be files, directories (direct children only) or glob patterns.`,
		Example: `  startrails ~/night/*.jpg
  startrails -e jpg -e cr2 -s 2 -o out ~/night
  startrails -k -t -V -p orion ~/night`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Paths = args
			if err := req.Validate(); err != nil {
				return err
			}
			job := req.Job(pipeline.NewID("run"), root.cfg.Trails)
			res, err := root.enqueueAndWait(cmd.Context(), job)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringSliceVarP(&req.Extensions, "extensions", "e", nil, "image extensions to include (repeatable, case-insensitive)")
	f.IntVarP(&req.Skip, "skip", "s", 0, "merge only every Nth image (0 merges all)")
	f.BoolVarP(&req.KeepIntermediate, "keep-intermediate", "k", false, "save the trail after every merged image")
	f.BoolVarP(&req.Reverse, "reverse", "r", false, "process images in reverse order")
	f.BoolVarP(&req.KeepTimelapse, "keep-timelapse", "t", false, "prepend a reversed timelapse (needs --keep-intermediate)")
	f.BoolVarP(&req.SaveVideo, "save-video", "V", false, "assemble the stills into a video (implies --keep-intermediate)")
	f.StringVarP(&req.Output, "output", "o", root.cfg.Trails.OutputDir, "output directory (created if absent, default current directory)")
	f.IntVarP(&req.MaxImages, "max-images", "m", 0, "use at most N images (0 means no limit)")
	f.StringVarP(&req.Prefix, "output-prefix", "p", root.cfg.Trails.OutputPrefix, "file name prefix of written images")
	f.StringVar(&req.Format, "format", root.cfg.Trails.Format, "still format: jpg, png or tiff")
	f.IntVar(&req.Quality, "quality", root.cfg.Trails.Quality, "jpeg quality")
	f.StringVar(&req.Order, "order", pipeline.OrderName, "frame order: name or capture (EXIF time, needs exiftool)")

	rootCmd.AddCommand(newHistoryCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newToolsCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd(root))

	return rootCmd
}

func newHistoryCmd(root *Root) *cobra.Command {
	var (
		limit  int
		remote string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Long: `List recent runs from the local run database, or from a running
startrails server when --remote is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var runs []storage.RunRecord
			var err error
			if remote != "" {
				runs, err = remoteRuns(cmd.Context(), remote, limit)
			} else {
				runs, err = root.store.RecentRuns(limit)
			}
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tCREATED\tINPUTS\tOUTPUT\tERROR")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					run.ID, run.Status, run.CreatedAt.Local().Format(time.DateTime),
					len(run.Inputs), run.OutputDir, run.Error)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&remote, "remote", "", "gRPC address of a startrails server")
	return cmd
}

func remoteRuns(ctx context.Context, addr string, limit int) ([]storage.RunRecord, error) {
	conn, err := grpcserver.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req, err := structpb.NewStruct(map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	resp, err := grpcserver.NewClient(conn).ListRuns(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list runs on %s: %w", addr, err)
	}
	return grpcserver.DecodeRuns(resp)
}

func newToolsCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Show external tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := root.toolFactory(root.cfg).GetToolStatus()
			out := cmd.OutOrStdout()
			for _, name := range tasks.ToolNames(status) {
				st := status[name]
				if st.Available {
					fmt.Fprintf(out, "%-12s available  %s (%s)\n", name, st.Version, st.Path)
				} else {
					fmt.Fprintf(out, "%-12s missing    %v\n", name, st.Error)
				}
			}
			return nil
		},
	}
}

func newConfigCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), root.cfg)
		},
	})
	return cmd
}

func newVersionCmd(root *Root) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("startrails v%s\n", Version)
			cmd.Printf("Built with Go %s\n", runtime.Version())
		},
	}
}
