package drone

import (
	"context"
	"time"

	"github.com/Ptozin/droneswarm/internal/mailbox"
	"github.com/Ptozin/droneswarm/internal/telemetry"
	"github.com/Ptozin/droneswarm/models"
)

// stepSuggest evaluates every collected proposal, drops refused warehouses,
// and picks a winner by utility (spec §4.2/§4.4).
func (d *Drone) stepSuggest(ctx context.Context) {
	proposals := d.pendingProposals
	d.pendingProposals = nil

	if len(proposals) == 0 {
		d.finish(false)
		return
	}

	var candidates []WarehouseBundle
	var active []proposal
	for _, p := range proposals {
		if p.refused {
			delete(d.warehousePositions, p.warehouseID)
			continue
		}
		active = append(active, p)
		bundle := BestAvailableOrders(p.orders, d.pos(), d.freeCapacity(), d.currAutonomy)
		if len(bundle.Orders) == 0 {
			continue
		}
		candidates = append(candidates, WarehouseBundle{WarehouseID: p.warehouseID, Bundle: bundle})
	}

	winnerID, winner := BestOrders(candidates, d.nextOrders, d.pos(), d.currAutonomy, d.CapacityKG)

	for _, p := range active {
		if p.warehouseID == winnerID {
			_ = d.directory.Send(ctx, mailbox.Message{
				Sender: d.ID, Recipient: p.warehouseID,
				Performative: mailbox.PerformativeAcceptProposal, NextBehaviour: mailbox.BehaviourDecide,
				Orders: toOrderBodies(winner.Orders),
			})
		} else {
			_ = d.directory.Send(ctx, mailbox.Message{
				Sender: d.ID, Recipient: p.warehouseID,
				Performative: mailbox.PerformativeRejectProposal, NextBehaviour: mailbox.BehaviourDecide,
			})
		}
	}

	if winnerID != "" {
		d.nextWarehouse = winnerID
		d.pendingPickupOrders = winner.Orders
		d.state = StatePickup
		return
	}

	if len(d.nextOrders) > 0 {
		d.state = StateDeliver
		return
	}
	d.finish(true)
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

// stepPickup tick-steps toward the winning warehouse, then on arrival
// recharges autonomy, sends pickup, and awaits confirm (spec §4.4).
func (d *Drone) stepPickup(ctx context.Context) {
	target := d.warehousePositions[d.nextWarehouse]

	for {
		if ctx.Err() != nil {
			d.finish(false)
			return
		}
		arrived, _ := d.moveToward(target)
		if arrived {
			break
		}
		if d.currAutonomy < 0 {
			d.finish(false)
			return
		}
		d.publishSnapshot(ctx)
		time.Sleep(d.params.TickRate)
	}

	d.currAutonomy = d.AutonomyM

	// The trip's distance is the sum of delivery legs flown since the
	// previous warehouse arrival, flushed here rather than measured as
	// the return leg itself (spec §6 "Total/Min/Max/Avg Distance").
	if d.tripDistanceAccum > 0 {
		d.metrics.RecordTrip(d.tripDistanceAccum)
	}
	d.tripDistanceAccum = 0

	ids := make([]string, 0, len(d.pendingPickupOrders))
	for _, o := range d.pendingPickupOrders {
		ids = append(ids, o.ID)
	}
	_ = d.directory.Send(ctx, mailbox.Message{
		Sender: d.ID, Recipient: d.nextWarehouse,
		Performative: mailbox.PerformativeRequest, NextBehaviour: mailbox.BehaviourPickup,
		OrderIDs: ids,
	})

	reply, err := mailbox.Receive(ctx, d.inbox, d.params.RequestTimeout)
	if err != nil || reply.Performative != mailbox.PerformativeConfirm {
		d.finish(false)
		return
	}

	for i := range d.pendingPickupOrders {
		d.pendingPickupOrders[i].Status = models.OrderStatusTaken
	}
	d.nextOrders = append(d.nextOrders, d.pendingPickupOrders...)
	d.nextOrders = Path(d.nextOrders, d.pos())
	d.pendingPickupOrders = nil
	d.currCapacity = TotalWeight(d.nextOrders)
	d.deliveredThisTrip = 0

	warehouses := d.warehousePositionList()
	d.maxDeliverableIdx = TasksInRange(d.nextOrders, d.pos(), warehouses, d.currAutonomy)

	d.state = StateDeliver
}

// stepDeliver tick-steps toward the next order in nearest-neighbor order and,
// on arrival, drops exactly that one order and returns to Available — one
// delivery per invocation (spec §4.4's Deliver row), letting the Available
// round re-suggest and potentially win a better bundle before the next
// Deliver leg, rather than draining the whole batch in one call.
func (d *Drone) stepDeliver(ctx context.Context) {
	if len(d.nextOrders) == 0 {
		d.state = StateAvailable
		return
	}

	target := dest(d.nextOrders[0])
	for {
		if ctx.Err() != nil {
			d.finish(false)
			return
		}
		arrived, covered := d.moveToward(target)
		d.tripDistanceAccum += covered
		if arrived {
			break
		}
		if d.currAutonomy < 0 {
			d.finish(false)
			return
		}
		d.publishSnapshot(ctx)
		time.Sleep(d.params.TickRate)
	}

	order := d.nextOrders[0]
	capLevel := CapacityLevel(d.nextOrders, d.CapacityKG)
	d.nextOrders = d.nextOrders[1:]
	order.Status = models.OrderStatusDelivered
	d.currCapacity -= order.WeightKG
	d.metrics.RecordDelivery(order, capLevel)
	telemetry.OrdersDelivered.Inc()

	if d.deliveredThisTrip == d.maxDeliverableIdx && d.maxDeliverableIdx >= 0 {
		nearest := NearestWarehouse(d.pos(), d.warehousePositionList())
		d.requiredWarehouse = d.warehouseIDAt(nearest)
	}
	d.deliveredThisTrip++

	d.state = StateAvailable
}
