// Package grpcserver implements the Supervisor gRPC service.
//
// It delegates all business logic to supervisor.Service and handles only the
// gRPC transport concerns: error mapping and conversion between the domain
// model and the protobuf well-known types the service speaks.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"jobmate/harvester-service/internal/lifecycle"
	"jobmate/harvester-service/internal/model"
	"jobmate/harvester-service/internal/store"
	"jobmate/harvester-service/internal/supervisor"
)

const serviceName = "harvester.v1.Supervisor"

// SupervisorServer is the server API of the Supervisor service.
type SupervisorServer interface {
	Ping(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error)
	ListRuns(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	StartRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StopRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryJobs(context.Context, *wrapperspb.Int32Value) (*structpb.Struct, error)
}

// Server implements SupervisorServer.
type Server struct {
	svc *supervisor.Service
	now func() *timestamppb.Timestamp
}

// NewServer constructs a gRPC Server backed by the given supervisor.Service.
func NewServer(svc *supervisor.Service) *Server {
	return &Server{svc: svc, now: timestamppb.Now}
}

// Register mounts s on gs.
func Register(gs grpc.ServiceRegistrar, s SupervisorServer) {
	gs.RegisterService(&serviceDesc, s)
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// Ping returns the server clock.
func (s *Server) Ping(context.Context, *emptypb.Empty) (*timestamppb.Timestamp, error) {
	return s.now(), nil
}

// ListRuns returns {"runs": [...]} filtered by the optional status.
func (s *Server) ListRuns(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	runs, err := s.svc.ListRuns(ctx, req.GetValue())
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{"runs": runs})
}

// startRequest is the StartRun payload: a catalog entry name or a config.
type startRequest struct {
	model.RunConfig
	Source string `json:"source"`
}

// StartRun launches a run and returns {"platform", "pid"}.
func (s *Server) StartRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in startRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	var (
		started supervisor.Started
		err     error
	)
	if in.Source != "" {
		started, err = s.svc.StartSource(ctx, in.Source)
	} else {
		started, err = s.svc.StartRun(ctx, in.RunConfig)
	}
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(started)
}

type stopRequest struct {
	Platform string `json:"platform"`
	Graceful bool   `json:"graceful"`
}

// StopRun stops a platform. A process that is gone maps to NotFound and a
// refused signal to PermissionDenied.
func (s *Server) StopRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in stopRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if in.Platform == "" {
		return nil, status.Error(codes.InvalidArgument, "platform is required")
	}
	outcome, err := s.svc.StopRun(ctx, in.Platform, in.Graceful)
	if err != nil {
		return nil, toGRPCError(err)
	}
	switch outcome {
	case lifecycle.StopStopped:
		return toStruct(map[string]any{"platform": in.Platform, "outcome": outcome.String()})
	case lifecycle.StopNotFound:
		return nil, status.Errorf(codes.NotFound, "process for %s not found", in.Platform)
	case lifecycle.StopDenied:
		return nil, status.Errorf(codes.PermissionDenied, "not permitted to stop %s", in.Platform)
	}
	return nil, status.Error(codes.Internal, "internal server error")
}

// QueryJobs returns {"jobs": [...]}, newest first.
func (s *Server) QueryJobs(ctx context.Context, req *wrapperspb.Int32Value) (*structpb.Struct, error) {
	jobs, err := s.svc.Jobs(ctx, int(req.GetValue()))
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{"jobs": jobs})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	var ve *supervisor.ValidationError
	switch {
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Msg)
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, supervisor.ErrAlreadyRunning),
		errors.Is(err, supervisor.ErrNotStoppable),
		errors.Is(err, lifecycle.ErrNotRunning):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal server error")
}

// toStruct converts v to a Struct through its JSON form so the field names
// match the HTTP API.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Error(codes.Internal, "encode response")
	}
	return out, nil
}

func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
