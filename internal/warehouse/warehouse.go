// Package warehouse implements the warehouse agent: a single Idle state
// that dispatches each inbound message to a one-shot handler keyed by the
// message's next_behaviour, per spec §4.3.
package warehouse

import (
	"context"
	"log"
	"time"

	"github.com/Ptozin/droneswarm/internal/mailbox"
	"github.com/Ptozin/droneswarm/internal/matrix"
	"github.com/Ptozin/droneswarm/models"
	"github.com/Ptozin/droneswarm/repository"
)

// idleTimeout is the liveness-probe timeout on the Idle receive loop
// (spec §5); a timeout here is recoverable, the loop just continues.
const idleTimeout = 5 * time.Second

// Warehouse is one warehouse agent. Its inventory, pending-pickup map and
// OrdersMatrix are touched only from this agent's own Run goroutine.
type Warehouse struct {
	ID  string
	Lat float64
	Lon float64

	directory *mailbox.Directory
	matrix    *matrix.Matrix

	inventory     map[string]models.Order   // Free orders, by id
	pendingPickup map[string][]models.Order // owner -> Taken orders awaiting pickup

	repo *repository.FleetRepository // optional; nil when no visualization/admin consumer is wired
}

// New constructs a warehouse agent over its initial Free order set.
func New(id string, lat, lon float64, orders []models.Order, directory *mailbox.Directory, m *matrix.Matrix) *Warehouse {
	inv := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		inv[o.ID] = o
	}
	return &Warehouse{
		ID:            id,
		Lat:           lat,
		Lon:           lon,
		directory:     directory,
		matrix:        m,
		inventory:     inv,
		pendingPickup: make(map[string][]models.Order),
	}
}

// SetRepository wires the optional snapshot store. Must be called before
// Run; once running, the warehouse's own goroutine is the only writer.
func (w *Warehouse) SetRepository(repo *repository.FleetRepository) {
	w.repo = repo
}

// Run is the warehouse's Idle loop: receive, dispatch, repeat, until ctx is
// cancelled by the lifecycle controller (after every drone has terminated).
func (w *Warehouse) Run(ctx context.Context) {
	inbox := w.directory.Register(w.ID)
	defer w.directory.Unregister(w.ID)

	w.publishSnapshot(ctx)
	for {
		msg, err := mailbox.Receive(ctx, inbox, idleTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Idle timeout is a liveness probe only; just loop (spec §5).
			continue
		}
		w.handle(ctx, msg)
		w.publishSnapshot(ctx)
	}
}

// publishSnapshot pushes the current state to the optional fleet
// repository. Only ever called from this goroutine, so it is race-free
// with the unexported-field reads inside Snapshot.
func (w *Warehouse) publishSnapshot(ctx context.Context) {
	if w.repo == nil {
		return
	}
	if err := w.repo.UpsertWarehouse(ctx, w.Snapshot()); err != nil {
		log.Printf("warehouse %s: publish snapshot: %v", w.ID, err)
	}
}

func (w *Warehouse) handle(ctx context.Context, msg mailbox.Message) {
	switch msg.NextBehaviour {
	case mailbox.BehaviourSuggest:
		w.handleSuggest(ctx, msg)
	case mailbox.BehaviourDecide:
		w.handleDecide(msg)
	case mailbox.BehaviourPickup:
		w.handlePickup(ctx, msg)
	default:
		log.Printf("warehouse %s: protocol violation: unknown next_behaviour %q from %s", w.ID, msg.NextBehaviour, msg.Sender)
	}
}

// quiescent reports whether this warehouse has nothing left to offer:
// empty inventory, no pending pickups, and no outstanding reservations.
func (w *Warehouse) quiescent() bool {
	return len(w.inventory) == 0 && len(w.pendingPickup) == 0 && !w.matrix.HasReservations()
}

func (w *Warehouse) handleSuggest(ctx context.Context, msg mailbox.Message) {
	if msg.Suggest == nil {
		log.Printf("warehouse %s: protocol violation: suggest with no body from %s", w.ID, msg.Sender)
		return
	}
	if w.quiescent() {
		_ = w.directory.Send(ctx, mailbox.Message{
			Sender:        w.ID,
			Recipient:     msg.Sender,
			Performative:  mailbox.PerformativeRefuse,
			CorrelationID: msg.CorrelationID,
		})
		return
	}

	freeCapacity := msg.Suggest.CapacityKG
	offered, err := w.matrix.SelectOrders(w.Lat, w.Lon, float64(freeCapacity), msg.Sender)
	if err != nil {
		log.Printf("warehouse %s: select_orders for %s: %v", w.ID, msg.Sender, err)
		return
	}

	_ = w.directory.Send(ctx, mailbox.Message{
		Sender:        w.ID,
		Recipient:     msg.Sender,
		Performative:  mailbox.PerformativePropose,
		CorrelationID: msg.CorrelationID,
		Orders:        toOrderBodies(offered),
	})
}

func (w *Warehouse) handleDecide(msg mailbox.Message) {
	switch msg.Performative {
	case mailbox.PerformativeAcceptProposal:
		for _, ob := range msg.Orders {
			w.matrix.RemoveOrder(ob.ID, msg.Sender)
			if o, ok := w.inventory[ob.ID]; ok {
				o.Status = models.OrderStatusTaken
				w.pendingPickup[msg.Sender] = append(w.pendingPickup[msg.Sender], o)
				delete(w.inventory, ob.ID)
			}
		}
		if err := w.matrix.UndoReservations(msg.Sender); err != nil {
			log.Printf("warehouse %s: undo_reservations after accept for %s: %v", w.ID, msg.Sender, err)
		}
	case mailbox.PerformativeRejectProposal:
		if err := w.matrix.UndoReservations(msg.Sender); err != nil {
			log.Printf("warehouse %s: undo_reservations after reject for %s: %v", w.ID, msg.Sender, err)
		}
	default:
		log.Printf("warehouse %s: protocol violation: decide with performative %q from %s", w.ID, msg.Performative, msg.Sender)
	}
}

func (w *Warehouse) handlePickup(ctx context.Context, msg mailbox.Message) {
	if _, ok := w.pendingPickup[msg.Sender]; !ok {
		log.Printf("warehouse %s: protocol violation: pickup for unknown owner %s", w.ID, msg.Sender)
		return
	}
	delete(w.pendingPickup, msg.Sender)
	_ = w.directory.Send(ctx, mailbox.Message{
		Sender:        w.ID,
		Recipient:     msg.Sender,
		Performative:  mailbox.PerformativeConfirm,
		CorrelationID: msg.CorrelationID,
		OrderIDs:      msg.OrderIDs,
	})
}

func toOrderBodies(orders []models.Order) []mailbox.OrderBody {
	out := make([]mailbox.OrderBody, 0, len(orders))
	for _, o := range orders {
		out = append(out, mailbox.OrderBody{
			ID:        o.ID,
			OriginLat: o.OriginLat,
			OriginLon: o.OriginLon,
			DestLat:   o.DestLat,
			DestLon:   o.DestLon,
			WeightKG:  o.WeightKG,
		})
	}
	return out
}

// Snapshot returns the read-only view consumed by the visualization bridge
// and the optional control plane.
func (w *Warehouse) Snapshot() models.Warehouse {
	return models.Warehouse{
		ID:            w.ID,
		Lat:           w.Lat,
		Lon:           w.Lon,
		FreeOrders:    len(w.inventory),
		ReservedCount: w.matrix.ReservationCount(),
		PendingPickup: len(w.pendingPickup),
	}
}
