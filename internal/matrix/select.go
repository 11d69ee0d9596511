package matrix

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/Ptozin/droneswarm/internal/telemetry"
	"github.com/Ptozin/droneswarm/models"
)

type cellCoord struct{ i, j int }

// SelectOrders implements spec §4.1's select_orders: sweep expired
// reservations, then breadth-first traverse cells from the one covering
// (lat, lon) filling a budget = freeCapacity * capacityMultiplier, and
// reserve everything it picks to owner.
func (m *Matrix) SelectOrders(lat, lon float64, freeCapacity float64, owner string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepExpiredLocked(time.Now())

	budget := freeCapacity * m.capacityMultiplier
	startI, startJ := m.cellOf(lat, lon)

	visited := map[cellCoord]bool{{startI, startJ}: true}
	queue := []cellCoord{{startI, startJ}}

	var selected []models.Order
	var selectedCells []cellCoord
	cum := 0.0

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		cellOrders, err := m.ordersInCell(c.i, c.j)
		if err != nil {
			return nil, errors.Wrap(err, "matrix: select_orders")
		}

		cellSum := 0.0
		for _, o := range cellOrders {
			cellSum += float64(o.WeightKG)
		}

		if cum+cellSum <= budget {
			for _, o := range cellOrders {
				selected = append(selected, o)
				selectedCells = append(selectedCells, c)
			}
			cum += cellSum

			for _, n := range neighbors(c, m.dim) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
			continue
		}

		for _, o := range cellOrders {
			if cum+float64(o.WeightKG) <= budget {
				selected = append(selected, o)
				selectedCells = append(selectedCells, c)
				cum += float64(o.WeightKG)
			}
		}
		break
	}

	if len(selected) == 0 {
		return nil, nil
	}

	if err := m.db.Update(func(tx *buntdb.Tx) error {
		for _, o := range selected {
			if _, err := tx.Delete(orderKey(o.ID)); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "matrix: reserve selection")
	}

	for i, o := range selected {
		m.reservations[owner] = append(m.reservations[owner], ReservedOrder{
			Order: o,
			CellI: selectedCells[i].i,
			CellJ: selectedCells[i].j,
		})
	}
	m.lastSeen[owner] = time.Now()

	return selected, nil
}

// RemoveOrder permanently drops orderID from owner's reservation set
// (spec §4.1 remove_order); it is not returned to any cell.
func (m *Matrix) RemoveOrder(orderID, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeOrderLocked(orderID, owner)
}

func (m *Matrix) removeOrderLocked(orderID, owner string) {
	list := m.reservations[owner]
	for idx, r := range list {
		if r.Order.ID == orderID {
			m.reservations[owner] = append(list[:idx], list[idx+1:]...)
			return
		}
	}
}

// UndoReservations re-inserts every order still held by owner back into its
// original cell, then clears owner's reservation set and timestamp
// (spec §4.1 undo_reservations).
func (m *Matrix) UndoReservations(owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.undoReservationsLocked(owner)
}

func (m *Matrix) undoReservationsLocked(owner string) error {
	list := m.reservations[owner]
	if len(list) == 0 {
		delete(m.reservations, owner)
		delete(m.lastSeen, owner)
		return nil
	}
	if err := m.db.Update(func(tx *buntdb.Tx) error {
		for _, r := range list {
			b, err := json.Marshal(r.Order)
			if err != nil {
				return err
			}
			if _, _, err := tx.Set(orderKey(r.Order.ID), string(b), nil); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return errors.Wrap(err, "matrix: undo_reservations")
	}
	delete(m.reservations, owner)
	delete(m.lastSeen, owner)
	return nil
}

// sweepExpiredLocked rolls back every owner whose last reservation is older
// than reservationTimeout. Called at the top of every SelectOrders, per
// spec §4.1: "Before selecting, sweep the per-owner timestamp map."
func (m *Matrix) sweepExpiredLocked(now time.Time) {
	for owner, ts := range m.lastSeen {
		if now.Sub(ts) > m.reservationTimeout {
			_ = m.undoReservationsLocked(owner)
			telemetry.ReservationTimeouts.Inc()
		}
	}
}

func (m *Matrix) ordersInCell(i, j int) ([]models.Order, error) {
	var out []models.Order
	bounds := m.cellBounds(i, j)
	if err := m.db.View(func(tx *buntdb.Tx) error {
		return tx.Intersects(destIndex, bounds, func(key, value string) bool {
			var o models.Order
			if err := json.Unmarshal([]byte(value), &o); err == nil {
				out = append(out, o)
			}
			return true
		})
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func neighbors(c cellCoord, dim int) []cellCoord {
	cands := []cellCoord{
		{c.i - 1, c.j},
		{c.i + 1, c.j},
		{c.i, c.j - 1},
		{c.i, c.j + 1},
	}
	var out []cellCoord
	for _, n := range cands {
		if n.i >= 0 && n.i < dim && n.j >= 0 && n.j < dim {
			out = append(out, n)
		}
	}
	return out
}
