package matrix

import (
	"testing"
	"time"

	"github.com/Ptozin/droneswarm/models"
)

func order(id string, lat, lon float64, weight int) models.Order {
	return models.Order{
		ID:        id,
		OriginLat: 0,
		OriginLon: 0,
		DestLat:   lat,
		DestLon:   lon,
		WeightKG:  weight,
		Status:    models.OrderStatusFree,
	}
}

func newTestMatrix(t *testing.T, orders []models.Order, timeout time.Duration) *Matrix {
	t.Helper()
	m, err := New(0, 0, orders, 5, 3.0, timeout)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSelectOrders_FitsUnderBudget(t *testing.T) {
	orders := []models.Order{
		order("o1", 0.001, 0.001, 2),
		order("o2", 0.002, 0.002, 2),
	}
	m := newTestMatrix(t, orders, 5*time.Second)

	got, err := m.SelectOrders(0, 0, 3, "drone-1")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both orders selected under budget 9 (3*3x), got %d", len(got))
	}
}

func TestSelectOrders_ReservationExclusivity(t *testing.T) {
	orders := []models.Order{order("o1", 0.001, 0.001, 2)}
	m := newTestMatrix(t, orders, 5*time.Second)

	first, err := m.SelectOrders(0, 0, 3, "drone-1")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 order reserved, got %d", len(first))
	}

	second, err := m.SelectOrders(0, 0, 3, "drone-2")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected reserved order not to be offered to a second owner, got %d", len(second))
	}
}

func TestUndoReservations_ReturnsOrderToCell(t *testing.T) {
	orders := []models.Order{order("o1", 0.001, 0.001, 2)}
	m := newTestMatrix(t, orders, 5*time.Second)

	if _, err := m.SelectOrders(0, 0, 3, "drone-1"); err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if err := m.UndoReservations("drone-1"); err != nil {
		t.Fatalf("UndoReservations: %v", err)
	}

	again, err := m.SelectOrders(0, 0, 3, "drone-2")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("expected order back in its cell after undo, got %d", len(again))
	}
}

func TestRemoveOrder_NotReturnedByUndo(t *testing.T) {
	orders := []models.Order{order("o1", 0.001, 0.001, 2), order("o2", 0.002, 0.002, 2)}
	m := newTestMatrix(t, orders, 5*time.Second)

	got, err := m.SelectOrders(0, 0, 4, "drone-1")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both orders, got %d", len(got))
	}

	m.RemoveOrder("o1", "drone-1")
	if err := m.UndoReservations("drone-1"); err != nil {
		t.Fatalf("UndoReservations: %v", err)
	}

	again, err := m.SelectOrders(0, 0, 4, "drone-2")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(again) != 1 || again[0].ID != "o2" {
		t.Fatalf("expected only o2 back in its cell, got %+v", again)
	}
}

func TestSelectOrders_TimeoutRollback(t *testing.T) {
	orders := []models.Order{order("o1", 0.001, 0.001, 2)}
	m := newTestMatrix(t, orders, 20*time.Millisecond)

	if _, err := m.SelectOrders(0, 0, 3, "drone-1"); err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	again, err := m.SelectOrders(0, 0, 3, "drone-2")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("expected reservation to roll back after timeout, got %d", len(again))
	}
}

func TestSelectOrders_PartialFitStopsTraversal(t *testing.T) {
	orders := []models.Order{
		order("big", 0.001, 0.001, 3),
		order("small", 0.001, 0.001, 1),
		order("far", 0.9, 0.9, 1),
	}
	m := newTestMatrix(t, orders, 5*time.Second)

	got, err := m.SelectOrders(0, 0, 1, "drone-1")
	if err != nil {
		t.Fatalf("SelectOrders: %v", err)
	}
	total := 0
	for _, o := range got {
		total += o.WeightKG
	}
	if total > 3 {
		t.Fatalf("expected selection to respect budget (1*3x=3), got total weight %d", total)
	}
	for _, o := range got {
		if o.ID == "far" {
			t.Fatalf("expected traversal to stop before reaching a farther cell once a cell only partially fit")
		}
	}
}
