package drone

import (
	"math"
	"testing"

	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/models"
)

func ord(id string, lat, lon float64, weight int) models.Order {
	return models.Order{ID: id, DestLat: lat, DestLon: lon, WeightKG: weight}
}

func TestPath_VisitsEachOnceNearestNeighbor(t *testing.T) {
	orders := []models.Order{
		ord("far", 1, 1, 1),
		ord("near", 0.001, 0.001, 1),
		ord("mid", 0.01, 0.01, 1),
	}
	p := Path(orders, geo.Point{Lat: 0, Lon: 0})
	if len(p) != 3 {
		t.Fatalf("expected 3 orders in path, got %d", len(p))
	}
	if p[0].ID != "near" {
		t.Fatalf("expected nearest-neighbor tour to start with 'near', got %s", p[0].ID)
	}
}

func TestPath_Empty(t *testing.T) {
	if p := Path(nil, geo.Point{}); p != nil {
		t.Fatalf("expected nil path for empty input, got %+v", p)
	}
}

func TestUtility_EmptyBundleIsNegativeInfinity(t *testing.T) {
	if u := Utility(0, 0, 100, 0.5); !math.IsInf(u, -1) {
		t.Fatalf("expected -Inf for empty bundle, got %v", u)
	}
}

func TestUtility_InfeasibleTravelIsNegativeInfinity(t *testing.T) {
	if u := Utility(1, 200, 100, 0.5); !math.IsInf(u, -1) {
		t.Fatalf("expected -Inf when travel > autonomy, got %v", u)
	}
}

func TestUtility_FeasibleScore(t *testing.T) {
	u := Utility(1, 50, 100, 0.5)
	want := 0.5 + (1 - 50.0/100.0)
	if u != want {
		t.Fatalf("expected %v, got %v", want, u)
	}
}

func TestBestAvailableOrders_RespectsCapacity(t *testing.T) {
	proposals := []models.Order{ord("o1", 0.001, 0.001, 5)}
	got := BestAvailableOrders(proposals, geo.Point{}, 1, 10000)
	if len(got.Orders) != 0 {
		t.Fatalf("expected order heavier than free capacity to be excluded, got %+v", got.Orders)
	}
}

func TestBestAvailableOrders_InfeasibleDistanceExcluded(t *testing.T) {
	proposals := []models.Order{ord("o1", 5, 5, 1)} // ~780km away
	got := BestAvailableOrders(proposals, geo.Point{}, 10, 1000)
	if len(got.Orders) != 0 {
		t.Fatalf("expected order farther than autonomy to be excluded, got %+v", got.Orders)
	}
}

func TestBestAvailableOrders_PicksHigherUtilitySubset(t *testing.T) {
	proposals := []models.Order{
		ord("close", 0.001, 0.001, 1),
		ord("far", 1, 1, 1),
	}
	got := BestAvailableOrders(proposals, geo.Point{}, 2, 10000)
	found := false
	for _, o := range got.Orders {
		if o.ID == "close" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the close order in the winning bundle, got %+v", got.Orders)
	}
}

func TestTasksInRange_ClearedWhenLastOrderReachable(t *testing.T) {
	path := []models.Order{ord("o1", 0.001, 0.001, 1), ord("o2", 0.002, 0.002, 1)}
	wh := []geo.Point{{Lat: 0, Lon: 0}}
	idx := TasksInRange(path, geo.Point{Lat: 0, Lon: 0}, wh, 1_000_000)
	if idx != -1 {
		t.Fatalf("expected no forced warehouse return when full path is reachable, got index %d", idx)
	}
}

func TestTasksInRange_SetWhenAutonomyLimited(t *testing.T) {
	path := []models.Order{ord("o1", 0.001, 0.001, 1), ord("o2", 5, 5, 1)}
	wh := []geo.Point{{Lat: 0, Lon: 0}}
	idx := TasksInRange(path, geo.Point{Lat: 0, Lon: 0}, wh, 500)
	if idx != 0 {
		t.Fatalf("expected max_deliverable_order at index 0, got %d", idx)
	}
}
