package models

// Warehouse is the snapshot shape pushed to the visualization bridge and the
// optional admin control plane. The live inventory, reservation matrix and
// pending-pickup bookkeeping live in internal/warehouse, owned exclusively
// by the warehouse's own goroutine.
type Warehouse struct {
	ID            string `json:"id"`
	Lat           float64 `json:"latitude"`
	Lon           float64 `json:"longitude"`
	FreeOrders    int     `json:"free_orders"`
	ReservedCount int     `json:"reserved_count"`
	PendingPickup int     `json:"pending_pickup"`
}
