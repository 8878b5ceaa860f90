package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"startrails/internal/config"
	"startrails/internal/pipeline"
	"startrails/internal/storage"
)

// Queue is the part of the pipeline the service submits to.
type Queue interface {
	Submit(job pipeline.Job) (<-chan pipeline.Outcome, error)
}

// TrailsService implements TrailsServer on top of the run store and pipeline.
type TrailsService struct {
	store    *storage.Store
	queue    Queue
	defaults config.Trails
	log      *slog.Logger
}

// NewTrailsService creates the service.
func NewTrailsService(store *storage.Store, queue Queue, defaults config.Trails, log *slog.Logger) *TrailsService {
	if log == nil {
		log = slog.Default()
	}
	return &TrailsService{store: store, queue: queue, defaults: defaults, log: log}
}

// Serve listens on addr until ctx is cancelled.
func (s *TrailsService) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on an existing listener until ctx is cancelled.
func (s *TrailsService) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer()
	RegisterTrailsServer(srv, s)

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down grpc server")
		srv.GracefulStop()
	}()

	s.log.Info("grpc server starting", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *TrailsService) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "ok"})
}

func (s *TrailsService) ListRuns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	limit := 50
	if v, ok := in.GetFields()["limit"]; ok {
		limit = int(v.GetNumberValue())
	}
	if limit <= 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must be positive")
	}
	recs, err := s.store.RecentRuns(limit)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	if recs == nil {
		recs = []storage.RunRecord{}
	}
	return toStruct(map[string]any{"runs": recs})
}

func (s *TrailsService) GetRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	rec, err := s.store.Run(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, status.Errorf(codes.NotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	resp := map[string]any{"run": rec}
	if meta, err := s.store.RunMeta(id); err == nil {
		resp["result"] = meta
	}
	return toStruct(resp)
}

func (s *TrailsService) SubmitRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw, err := in.MarshalJSON()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var req pipeline.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := req.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	job := req.Job(pipeline.NewID("run"), s.defaults)
	if _, err := s.queue.Submit(job); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	s.log.Info("run submitted over grpc", "id", job.ID)
	return structpb.NewStruct(map[string]any{"id": job.ID, "status": storage.StatusQueued})
}

// toStruct round-trips v through JSON so struct tags shape the message.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// DecodeRuns extracts the run list of a ListRuns response.
func DecodeRuns(resp *structpb.Struct) ([]storage.RunRecord, error) {
	v, ok := resp.GetFields()["runs"]
	if !ok {
		return nil, nil
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var runs []storage.RunRecord
	if err := json.Unmarshal(data, &runs); err != nil {
		return nil, fmt.Errorf("decode runs: %w", err)
	}
	return runs, nil
}
