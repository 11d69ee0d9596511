// Package drone implements the drone agent: the bundle-selection utility
// function (spec §4.2) and the five-state FSM (spec §4.4).
package drone

import (
	"math"

	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/models"
)

// negativeInfinity is the utility of an empty or infeasible bundle.
const negativeInfinity = math.Inf(-1)

// Path reorders orders into a nearest-neighbor tour starting from the order
// closest to from, repeatedly appending the nearest unvisited destination.
// Ties are broken by input order, making Path deterministic (spec §8).
func Path(orders []models.Order, from geo.Point) []models.Order {
	if len(orders) == 0 {
		return nil
	}
	remaining := append([]models.Order(nil), orders...)
	out := make([]models.Order, 0, len(orders))

	cur := from
	for len(remaining) > 0 {
		bestIdx := 0
		bestDist := geo.Distance(cur, dest(remaining[0]))
		for i := 1; i < len(remaining); i++ {
			d := geo.Distance(cur, dest(remaining[i]))
			if d < bestDist {
				bestDist = d
				bestIdx = i
			}
		}
		next := remaining[bestIdx]
		out = append(out, next)
		cur = dest(next)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return out
}

func dest(o models.Order) geo.Point {
	return geo.Point{Lat: o.DestLat, Lon: o.DestLon}
}

// TravelDistance is great-circle(from, path[0]) + sum of consecutive
// great-circle legs along an already nearest-neighbor-ordered path.
func TravelDistance(path []models.Order, from geo.Point) float64 {
	if len(path) == 0 {
		return 0
	}
	total := geo.Distance(from, dest(path[0]))
	for i := 0; i+1 < len(path); i++ {
		total += geo.Distance(dest(path[i]), dest(path[i+1]))
	}
	return total
}

// CapacityLevel is min(1, total weight / capacity).
func CapacityLevel(orders []models.Order, capacityKG int) float64 {
	if capacityKG <= 0 {
		return 0
	}
	sum := 0
	for _, o := range orders {
		sum += o.WeightKG
	}
	level := float64(sum) / float64(capacityKG)
	if level > 1 {
		return 1
	}
	return level
}

// Utility scores a bundle: -inf if empty or if travel exceeds autonomy,
// otherwise capLevel + (1 - travel/autonomy). Higher is better.
func Utility(bundleLen int, travel, autonomy, capLevel float64) float64 {
	if bundleLen == 0 {
		return negativeInfinity
	}
	if travel > autonomy {
		return negativeInfinity
	}
	return capLevel + (1 - travel/autonomy)
}

// TotalWeight sums an order bundle's weight.
func TotalWeight(orders []models.Order) int {
	sum := 0
	for _, o := range orders {
		sum += o.WeightKG
	}
	return sum
}
