package drone

import (
	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/models"
)

// maxEnumerable caps the subset enumeration in BestAvailableOrders. The
// matrix's ~3x over-offer keeps proposals well under this in practice
// (spec §4.2's "bounded because proposals are already capped"); this is a
// backstop against a pathological proposal list, not a normal code path.
const maxEnumerable = 20

// Bundle is a candidate subset of proposed orders plus its evaluated score.
type Bundle struct {
	Orders  []models.Order
	Path    []models.Order
	Travel  float64
	Utility float64
}

// BestAvailableOrders enumerates every subset of proposals whose total
// weight fits freeCapacity (bounded exhaustive search over a bitmask, per
// spec §4.2's explicit allowance) and returns the subset of maximum
// utility, reproducing the documented >= tie-break: the last bundle
// evaluated wins on an equal score. Subsets whose utility is -inf (empty,
// or travel beyond maxAutonomy) never win; if no subset is feasible the
// returned Bundle has no orders.
func BestAvailableOrders(proposals []models.Order, from geo.Point, freeCapacity int, maxAutonomy float64) Bundle {
	n := len(proposals)
	if n > maxEnumerable {
		n = maxEnumerable
		proposals = proposals[:n]
	}

	best := Bundle{Utility: negativeInfinity}
	total := 1 << n
	for mask := 0; mask < total; mask++ {
		var subset []models.Order
		weight := 0
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				subset = append(subset, proposals[i])
				weight += proposals[i].WeightKG
			}
		}
		if weight > freeCapacity {
			continue
		}
		path := Path(subset, from)
		travel := TravelDistance(path, from)
		capLevel := CapacityLevel(subset, freeCapacity)
		u := Utility(len(subset), travel, maxAutonomy, capLevel)
		if u == negativeInfinity {
			continue
		}
		if u >= best.Utility {
			best = Bundle{Orders: subset, Path: path, Travel: travel, Utility: u}
		}
	}
	return best
}

// WarehouseBundle pairs a warehouse id with the bundle it offered.
type WarehouseBundle struct {
	WarehouseID string
	Bundle      Bundle
}

// BestOrders compares each warehouse's best bundle against each other and
// against keeping the drone's current inventory only, returning the
// winning warehouse id ("" meaning stay with current inventory) and its
// bundle. This is the canonical utility-comparing version named in spec §9
// as the one to implement (not the first-by-insertion-order variant).
// Candidates are compared with >=, so a warehouse whose utility equals the
// current best wins over staying, and later candidates win over earlier ones.
func BestOrders(candidates []WarehouseBundle, currentInventory []models.Order, from geo.Point, maxAutonomy float64, capacityKG int) (winnerID string, winner Bundle) {
	currentPath := Path(currentInventory, from)
	currentTravel := TravelDistance(currentPath, from)
	currentCap := CapacityLevel(currentInventory, capacityKG)
	winner = Bundle{
		Orders:  currentInventory,
		Path:    currentPath,
		Travel:  currentTravel,
		Utility: Utility(len(currentInventory), currentTravel, maxAutonomy, currentCap),
	}
	winnerID = ""

	for _, c := range candidates {
		if c.Bundle.Utility >= winner.Utility {
			winnerID = c.WarehouseID
			winner = c.Bundle
		}
	}
	return winnerID, winner
}
