//go:build grpcserver

package grpcapi

import (
	"context"
	"testing"

	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/Ptozin/droneswarm/internal/auth"
	"github.com/Ptozin/droneswarm/internal/testutil"
	"github.com/Ptozin/droneswarm/models"
	"github.com/Ptozin/droneswarm/repository"
)

func TestGetFleetSnapshot_RequiresViewer(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := repository.NewFleetRepository(db)
	s := NewFleetServer(repo)

	if _, err := s.GetFleetSnapshot(context.Background(), &emptypb.Empty{}); err == nil {
		t.Fatalf("expected error without a principal in context")
	}
}

func TestGetFleetSnapshot_ReturnsFleetData(t *testing.T) {
	db := testutil.OpenInMemoryDB(t)
	repo := repository.NewFleetRepository(db)
	ctx := context.Background()

	if err := repo.UpsertDrone(ctx, models.Drone{ID: "d1", State: models.DroneStateAvailable}); err != nil {
		t.Fatalf("UpsertDrone: %v", err)
	}
	if err := repo.UpsertWarehouse(ctx, models.Warehouse{ID: "wh-1", FreeOrders: 1}); err != nil {
		t.Fatalf("UpsertWarehouse: %v", err)
	}

	s := NewFleetServer(repo)
	vctx := auth.WithPrincipal(ctx, &auth.Principal{Name: "dashboard", Kind: "viewer"})

	snap, err := s.GetFleetSnapshot(vctx, &emptypb.Empty{})
	if err != nil {
		t.Fatalf("GetFleetSnapshot: %v", err)
	}
	fields := snap.GetFields()
	if _, ok := fields["drones"]; !ok {
		t.Fatalf("expected a drones field, got %+v", fields)
	}
	if _, ok := fields["warehouses"]; !ok {
		t.Fatalf("expected a warehouses field, got %+v", fields)
	}
}
