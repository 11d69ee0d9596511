//go:build !grpcserver

package main

import (
	"context"

	"github.com/Ptozin/droneswarm/internal/config"
	"github.com/Ptozin/droneswarm/repository"
)

// startGRPC is a no-op when built without -tags grpcserver.
func startGRPC(_ *config.Config, _ *repository.FleetRepository) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
