// Package matrix implements the OrdersMatrix: a D×D spatial grid of Free
// orders backed by an in-memory buntdb spatial index, plus a per-owner
// reservation set with timeout-based rollback.
package matrix

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/Ptozin/droneswarm/internal/db"
	"github.com/Ptozin/droneswarm/models"
)

// cellBufferDeg pads the computed bounding box on every side so that
// destinations sitting exactly on the box edge still land inside a cell.
const cellBufferDeg = 0.01

const destIndex = "dest"

// ReservedOrder is one order currently held by an owner, along with the
// cell it was removed from so undo can restore it exactly.
type ReservedOrder struct {
	Order    models.Order
	CellI, CellJ int
}

// Matrix is one warehouse's OrdersMatrix. It is only ever touched from the
// owning warehouse's own goroutine in normal operation (spec §5); the
// internal mutex exists so tests (and the visualization snapshot reader)
// can safely inspect it from another goroutine without racing a select.
type Matrix struct {
	db   *buntdb.DB
	dim  int
	minLat, maxLat, minLon, maxLon float64

	capacityMultiplier float64
	reservationTimeout time.Duration

	mu           sync.Mutex
	reservations map[string][]ReservedOrder
	lastSeen     map[string]time.Time
}

// New builds the bounding box over the warehouse position and every order's
// destination, opens an in-memory buntdb spatial index, and inserts every
// order as Free.
func New(warehouseLat, warehouseLon float64, orders []models.Order, dim int, capacityMultiplier float64, reservationTimeout time.Duration) (*Matrix, error) {
	if dim <= 0 {
		dim = 5
	}
	minLat, maxLat := warehouseLat, warehouseLat
	minLon, maxLon := warehouseLon, warehouseLon
	for _, o := range orders {
		minLat, maxLat = math.Min(minLat, o.DestLat), math.Max(maxLat, o.DestLat)
		minLon, maxLon = math.Min(minLon, o.DestLon), math.Max(maxLon, o.DestLon)
	}
	minLat -= cellBufferDeg
	maxLat += cellBufferDeg
	minLon -= cellBufferDeg
	maxLon += cellBufferDeg

	bdb, err := db.Open(":memory:")
	if err != nil {
		return nil, errors.Wrap(err, "matrix: open buntdb")
	}
	if err := bdb.CreateSpatialIndex(destIndex, "order:*", destRect); err != nil {
		_ = bdb.Close()
		return nil, errors.Wrap(err, "matrix: create spatial index")
	}

	m := &Matrix{
		db:                 bdb,
		dim:                dim,
		minLat:             minLat,
		maxLat:             maxLat,
		minLon:             minLon,
		maxLon:             maxLon,
		capacityMultiplier: capacityMultiplier,
		reservationTimeout: reservationTimeout,
		reservations:       make(map[string][]ReservedOrder),
		lastSeen:           make(map[string]time.Time),
	}
	if err := bdb.Update(func(tx *buntdb.Tx) error {
		for _, o := range orders {
			b, err := json.Marshal(o)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(orderKey(o.ID), string(b), nil); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, errors.Wrap(err, "matrix: seed free orders")
	}
	return m, nil
}

// Close releases the underlying buntdb instance.
func (m *Matrix) Close() error {
	return m.db.Close()
}

// HasReservations reports whether any owner currently holds a reservation,
// used by the warehouse to decide quiescence (spec §4.3 termination rule).
func (m *Matrix) HasReservations() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, list := range m.reservations {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

// ReservationCount returns the total number of orders currently reserved
// across all owners, for the visualization/admin snapshot.
func (m *Matrix) ReservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, list := range m.reservations {
		n += len(list)
	}
	return n
}

func orderKey(id string) string {
	return fmt.Sprintf("order:%s", id)
}

// destRect extracts a degenerate (point) rect from an order's destination,
// in [lon, lat] order to match buntdb's own convention for geographic data.
func destRect(item string) (min, max []float64) {
	var o models.Order
	if err := json.Unmarshal([]byte(item), &o); err != nil {
		return nil, nil
	}
	pt := []float64{o.DestLon, o.DestLat}
	return pt, pt
}

// cellOf returns the grid cell covering (lat, lon), clamped to the grid.
func (m *Matrix) cellOf(lat, lon float64) (i, j int) {
	i = clampCell(int((lat-m.minLat)/m.latStep()), m.dim)
	j = clampCell(int((lon-m.minLon)/m.lonStep()), m.dim)
	return i, j
}

func (m *Matrix) latStep() float64 { return (m.maxLat - m.minLat) / float64(m.dim) }
func (m *Matrix) lonStep() float64 { return (m.maxLon - m.minLon) / float64(m.dim) }

func clampCell(c, dim int) int {
	if c < 0 {
		return 0
	}
	if c >= dim {
		return dim - 1
	}
	return c
}

// cellBounds returns the [minLon,minLat],[maxLon,maxLat] rect string for
// buntdb's Intersects covering cell (i, j).
func (m *Matrix) cellBounds(i, j int) string {
	lat0 := m.minLat + float64(i)*m.latStep()
	lat1 := lat0 + m.latStep()
	lon0 := m.minLon + float64(j)*m.lonStep()
	lon1 := lon0 + m.lonStep()
	return buntdb.Rect([]float64{lon0, lat0}, []float64{lon1, lat1})
}

