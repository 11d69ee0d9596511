package ingest

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// Dataset is everything needed to bootstrap a run: one drone spec per
// introduced drone, and one warehouse spec (with its free orders) per
// delivery_center{N}.csv file found in the data directory.
type Dataset struct {
	Drones     []DroneSpec
	Warehouses []WarehouseSpec
}

// Load reads delivery_drones.csv and every delivery_center{N}.csv under dir,
// in lexicographic file-name order (so delivery_center10.csv sorts before
// delivery_center2.csv), rejecting the whole run on the first malformed row
// or missing file (spec §7 kind 5).
func Load(dir string) (Dataset, error) {
	drones, err := LoadDrones(filepath.Join(dir, "delivery_drones.csv"))
	if err != nil {
		return Dataset{}, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "delivery_center*.csv"))
	if err != nil {
		return Dataset{}, errors.Wrapf(err, "ingest: glob delivery centers in %s", dir)
	}
	if len(matches) == 0 {
		return Dataset{}, errors.Errorf("ingest: %s: no delivery_center*.csv files found", dir)
	}
	sort.Strings(matches)

	warehouses := make([]WarehouseSpec, 0, len(matches))
	for _, path := range matches {
		wh, err := LoadWarehouse(path)
		if err != nil {
			return Dataset{}, err
		}
		warehouses = append(warehouses, wh)
	}

	return Dataset{Drones: drones, Warehouses: warehouses}, nil
}
