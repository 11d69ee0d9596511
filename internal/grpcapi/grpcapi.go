//go:build grpcserver

// Package grpcapi is the optional, authenticated read-only control plane:
// one RPC, GetFleetSnapshot, returning the same data internal/visualize
// pushes over the websocket, for tooling that prefers to pull over gRPC
// instead. Built only with `-tags grpcserver`, mirroring the teacher's own
// build-gated grpcserver package.
package grpcapi

import (
	"context"
	"encoding/json"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Ptozin/droneswarm/internal/auth"
	"github.com/Ptozin/droneswarm/internal/config"
	"github.com/Ptozin/droneswarm/repository"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// FleetServer implements the hand-written FleetService.
type FleetServer struct {
	repo *repository.FleetRepository
}

// NewFleetServer returns a FleetServer reading from repo.
func NewFleetServer(repo *repository.FleetRepository) *FleetServer {
	return &FleetServer{repo: repo}
}

// GetFleetSnapshot returns every drone and warehouse snapshot as a
// structpb.Struct, keyed "drones" and "warehouses", each a list of
// structs built from the same JSON tags the rest of the system uses.
func (s *FleetServer) GetFleetSnapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if _, err := auth.RequireViewer(ctx); err != nil {
		return nil, err
	}

	drones, err := s.repo.ListDrones(ctx)
	if err != nil {
		return nil, err
	}
	warehouses, err := s.repo.ListWarehouses(ctx)
	if err != nil {
		return nil, err
	}

	droneList, err := structListOf(drones)
	if err != nil {
		return nil, err
	}
	warehouseList, err := structListOf(warehouses)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]interface{}{
		"drones":     droneList,
		"warehouses": warehouseList,
	})
}

// structListOf round-trips v through JSON into a []interface{} suitable
// for structpb.NewStruct, since structpb has no direct "from any JSON-
// taggable struct slice" constructor.
func structListOf(v interface{}) ([]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out []interface{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// fleetServiceDesc is the hand-written equivalent of a protoc-generated
// grpc.ServiceDesc: one unary method, GetFleetSnapshot, taking
// emptypb.Empty and returning structpb.Struct.
var fleetServiceDesc = grpc.ServiceDesc{
	ServiceName: "droneswarm.fleet.v1.FleetService",
	HandlerType: (*fleetServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetFleetSnapshot",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(emptypb.Empty)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(fleetServiceServer).GetFleetSnapshot(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/droneswarm.fleet.v1.FleetService/GetFleetSnapshot"}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(fleetServiceServer).GetFleetSnapshot(ctx, req.(*emptypb.Empty))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "droneswarm/fleet/v1/fleet.proto",
}

type fleetServiceServer interface {
	GetFleetSnapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterFleetServiceServer registers impl against srv, the hand-written
// stand-in for protoc-generated registration code.
func RegisterFleetServiceServer(srv *grpc.Server, impl *FleetServer) {
	srv.RegisterService(&fleetServiceDesc, impl)
}

// StartGRPC starts the control-plane server and returns a shutdown function,
// following the teacher's StartGRPC(cfg, ...)/shutdown-func shape.
func StartGRPC(cfg *config.Config, repo *repository.FleetRepository) (func(context.Context) error, error) {
	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(cfg.Auth.JWTSecret, healthCheckMethod)))
	RegisterFleetServiceServer(srv, NewFleetServer(repo))

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
