package drone

import (
	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/models"
)

// TasksInRange walks path in sequence, accumulating distance, and returns
// the index in path of max_deliverable_order: the deepest order O such
// that distance_so_far + distance(O.dest -> closest warehouse) <=
// currAutonomy. If that deepest candidate is the final order in path, it
// returns -1 (no forced warehouse return; spec §4.4 "max_deliverable_order
// is cleared").
func TasksInRange(path []models.Order, from geo.Point, warehousePositions []geo.Point, currAutonomy float64) int {
	if len(path) == 0 || len(warehousePositions) == 0 {
		return -1
	}

	deepest := -1
	cur := from
	distSoFar := 0.0
	for i, o := range path {
		d := dest(o)
		distSoFar += geo.Distance(cur, d)
		cur = d

		if distSoFar+nearestWarehouseDistance(d, warehousePositions) <= currAutonomy {
			deepest = i
		}
	}
	if deepest == len(path)-1 {
		return -1
	}
	return deepest
}

func nearestWarehouseDistance(from geo.Point, warehouses []geo.Point) float64 {
	best := geo.Distance(from, warehouses[0])
	for _, w := range warehouses[1:] {
		if d := geo.Distance(from, w); d < best {
			best = d
		}
	}
	return best
}

// NearestWarehouse returns the index of the closest warehouse position to from.
func NearestWarehouse(from geo.Point, warehouses []geo.Point) int {
	best := 0
	bestDist := geo.Distance(from, warehouses[0])
	for i := 1; i < len(warehouses); i++ {
		if d := geo.Distance(from, warehouses[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
