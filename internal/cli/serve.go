package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"startrails/internal/grpcserver"
	"startrails/internal/server"
)

func newServeCmd(root *Root) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		Long: `Start an HTTP server (run history, run submission, finished stills and a
websocket progress feed) together with a gRPC server offering the same runs.

Examples:
  startrails serve
  startrails serve --http :8081 --grpc :9091`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.serveFn(cmd.Context(), root)
		},
	}

	cmd.Flags().StringVar(&root.cfg.Server.HTTPAddr, "http", root.cfg.Server.HTTPAddr, "HTTP listen address")
	cmd.Flags().StringVar(&root.cfg.Server.GRPCAddr, "grpc", root.cfg.Server.GRPCAddr, "gRPC listen address (empty disables)")
	return cmd
}

// defaultServe runs both servers until ctx ends or one of them fails.
func defaultServe(ctx context.Context, r *Root) error {
	if r.store == nil {
		return fmt.Errorf("serve needs the run database")
	}
	g, ctx := errgroup.WithContext(ctx)

	httpSrv := server.NewServer(r.cfg.Server.HTTPAddr, r.store, r.queue, r.cfg.Trails, r.log)
	g.Go(func() error {
		return httpSrv.Start(ctx)
	})

	if addr := r.cfg.Server.GRPCAddr; addr != "" {
		svc := grpcserver.NewTrailsService(r.store, r.queue, r.cfg.Trails, r.log)
		g.Go(func() error {
			return svc.Serve(ctx, addr)
		})
	}

	r.log.Info("server ready",
		"http", r.cfg.Server.HTTPAddr,
		"grpc", r.cfg.Server.GRPCAddr,
		"endpoints", []string{"/healthz", "/api/runs", "/api/runs/{id}", "/stills/{name}", "/ws"},
	)
	return g.Wait()
}
