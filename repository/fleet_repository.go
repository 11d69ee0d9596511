// Package repository is the snapshot store behind the visualization bridge
// and the optional admin control plane: the latest known position/state of
// every drone and warehouse, keyed for cheap point lookups and full-fleet
// listing. It holds no negotiation state — that lives exclusively inside
// each agent's own goroutine in internal/drone and internal/warehouse.
package repository

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/Ptozin/droneswarm/models"
)

func droneKey(id string) string     { return "drone:" + id }
func warehouseKey(id string) string { return "warehouse:" + id }

// FleetRepository stores the latest snapshot of every agent in the run.
type FleetRepository struct {
	db *buntdb.DB
}

// NewFleetRepository wraps an already-open buntdb handle (internal/db.Open).
func NewFleetRepository(db *buntdb.DB) *FleetRepository {
	return &FleetRepository{db: db}
}

// UpsertDrone stores d's latest snapshot, replacing any prior one. ctx is
// accepted for call-site consistency with the rest of the repository
// surface; buntdb has no context-aware API to forward it to.
func (r *FleetRepository) UpsertDrone(ctx context.Context, d models.Drone) error {
	b, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "repository: marshal drone snapshot")
	}
	if err := r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(droneKey(d.ID), string(b), nil)
		return err
	}); err != nil {
		return errors.Wrapf(err, "repository: upsert drone %s", d.ID)
	}
	return nil
}

// UpsertWarehouse stores w's latest snapshot, replacing any prior one.
func (r *FleetRepository) UpsertWarehouse(ctx context.Context, w models.Warehouse) error {
	b, err := json.Marshal(w)
	if err != nil {
		return errors.Wrap(err, "repository: marshal warehouse snapshot")
	}
	if err := r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(warehouseKey(w.ID), string(b), nil)
		return err
	}); err != nil {
		return errors.Wrapf(err, "repository: upsert warehouse %s", w.ID)
	}
	return nil
}

// ListDrones returns every drone snapshot currently stored, in key order.
func (r *FleetRepository) ListDrones(ctx context.Context) ([]models.Drone, error) {
	var out []models.Drone
	if err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("drone:*", func(key, value string) bool {
			var d models.Drone
			if err := json.Unmarshal([]byte(value), &d); err == nil {
				out = append(out, d)
			}
			return true
		})
	}); err != nil {
		return nil, errors.Wrap(err, "repository: list drones")
	}
	return out, nil
}

// ListWarehouses returns every warehouse snapshot currently stored, in key order.
func (r *FleetRepository) ListWarehouses(ctx context.Context) ([]models.Warehouse, error) {
	var out []models.Warehouse
	if err := r.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("warehouse:*", func(key, value string) bool {
			var w models.Warehouse
			if err := json.Unmarshal([]byte(value), &w); err == nil {
				out = append(out, w)
			}
			return true
		})
	}); err != nil {
		return nil, errors.Wrap(err, "repository: list warehouses")
	}
	return out, nil
}
