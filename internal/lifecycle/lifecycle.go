// Package lifecycle bootstraps one run: load the CSV fixtures, start one
// goroutine per warehouse and one per drone, wait for every drone to reach
// Dead, then stop the warehouses. Warehouses never die on their own (spec
// §4.3/§7); the controller is what ends their goroutines.
package lifecycle

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Ptozin/droneswarm/internal/config"
	"github.com/Ptozin/droneswarm/internal/drone"
	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/internal/ingest"
	"github.com/Ptozin/droneswarm/internal/mailbox"
	"github.com/Ptozin/droneswarm/internal/matrix"
	"github.com/Ptozin/droneswarm/internal/warehouse"
	"github.com/Ptozin/droneswarm/repository"
)

// Run loads cfg.Simulation.DataDir's fixtures (the caller resolves it to a
// path, e.g. "data/original" or "data/small", matching the Python source's
// DATA_FOLDER convention), starts the fleet, waits for every drone to
// terminate, and stops the warehouses. repo may be nil when no
// visualization/admin consumer is wired.
func Run(ctx context.Context, cfg *config.Config, repo *repository.FleetRepository) error {
	dataset, err := ingest.Load(cfg.Simulation.DataDir)
	if err != nil {
		return errors.Wrap(err, "lifecycle: ingest")
	}

	dir := mailbox.NewDirectory()
	whCtx, stopWarehouses := context.WithCancel(ctx)
	defer stopWarehouses()

	warehousePositions := make(map[string]geo.Point, len(dataset.Warehouses))
	warehouses := make([]*warehouse.Warehouse, 0, len(dataset.Warehouses))

	for _, whSpec := range dataset.Warehouses {
		m, err := matrix.New(whSpec.Lat, whSpec.Lon, whSpec.Orders, cfg.Simulation.GridDimension, cfg.Simulation.CapacityMultiplier, cfg.Simulation.ReservationTTL)
		if err != nil {
			stopWarehouses()
			return errors.Wrapf(err, "lifecycle: build matrix for warehouse %s", whSpec.ID)
		}
		wh := warehouse.New(whSpec.ID, whSpec.Lat, whSpec.Lon, whSpec.Orders, dir, m)
		if repo != nil {
			wh.SetRepository(repo)
		}
		warehouses = append(warehouses, wh)
		warehousePositions[whSpec.ID] = geo.Point{Lat: whSpec.Lat, Lon: whSpec.Lon}
	}

	for _, wh := range warehouses {
		go wh.Run(whCtx)
	}

	droneParams := drone.Params{
		TickRate:       cfg.Simulation.TickRate,
		TimeMultiplier: cfg.Simulation.TimeMultiplier,
		RequestTimeout: cfg.Simulation.RequestTimeout,
		SuggestRetries: cfg.Simulation.SuggestRetries,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range dataset.Drones {
		start, ok := warehousePositions[spec.InitialWH]
		if !ok {
			stopWarehouses()
			return errors.Errorf("lifecycle: drone %s: unknown initial warehouse %q", spec.ID, spec.InitialWH)
		}

		d := drone.New(spec.ID, spec.CapacityKG, spec.AutonomyM, spec.VelocityMS, start.Lat, start.Lon, clonePositions(warehousePositions), dir, droneParams)
		if repo != nil {
			d.SetRepository(repo)
		}

		g.Go(func() error {
			d.Run(gctx, cfg.Simulation.MetricsDir)
			return nil
		})
	}

	err = g.Wait()
	stopWarehouses()
	return err
}

// clonePositions gives each drone its own map, since drone.stepSuggest
// deletes entries for warehouses that refuse it.
func clonePositions(in map[string]geo.Point) map[string]geo.Point {
	out := make(map[string]geo.Point, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
