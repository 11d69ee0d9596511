//go:build grpcserver

package main

import (
	"context"
	"log"

	"github.com/Ptozin/droneswarm/internal/config"
	"github.com/Ptozin/droneswarm/internal/grpcapi"
	"github.com/Ptozin/droneswarm/repository"
)

func startGRPC(cfg *config.Config, repo *repository.FleetRepository) (func(context.Context) error, error) {
	shutdown, err := grpcapi.StartGRPC(cfg, repo)
	if err != nil {
		return nil, err
	}
	log.Printf("gRPC fleet service listening on %s", cfg.GRPC.Address)
	return shutdown, nil
}
