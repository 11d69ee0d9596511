package drone

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/Ptozin/droneswarm/internal/geo"
	"github.com/Ptozin/droneswarm/internal/mailbox"
	"github.com/Ptozin/droneswarm/internal/metrics"
	"github.com/Ptozin/droneswarm/internal/telemetry"
	"github.com/Ptozin/droneswarm/models"
	"github.com/Ptozin/droneswarm/repository"
)

// State is the drone's FSM state, owned exclusively by its own goroutine.
type State int

const (
	StateAvailable State = iota
	StateSuggest
	StatePickup
	StateDeliver
	StateDead
)

func (s State) String() string {
	switch s {
	case StateAvailable:
		return string(models.DroneStateAvailable)
	case StateSuggest:
		return string(models.DroneStateSuggest)
	case StatePickup:
		return string(models.DroneStatePickup)
	case StateDeliver:
		return string(models.DroneStateDeliver)
	default:
		return string(models.DroneStateDead)
	}
}

// Params configures the timing/retry constants spec §4.4/§5 name.
type Params struct {
	TickRate       time.Duration
	TimeMultiplier float64
	RequestTimeout time.Duration
	SuggestRetries int
}

// proposal is one warehouse's reply to a suggest round.
type proposal struct {
	warehouseID string
	refused     bool
	orders      []models.Order
}

// Drone is one drone agent.
type Drone struct {
	ID         string
	CapacityKG int
	AutonomyM  float64
	VelocityMS float64

	Lat, Lon float64

	currCapacity int
	currAutonomy float64

	warehousePositions map[string]geo.Point
	nextWarehouse      string
	requiredWarehouse  string

	nextOrders          []models.Order
	maxDeliverableIdx   int
	deliveredThisTrip   int
	tripDistanceAccum   float64
	pendingProposals    []proposal
	pendingPickupOrders []models.Order

	state            State
	diedSuccessfully bool

	directory *mailbox.Directory
	params    Params
	metrics   *metrics.Collector
	repo      *repository.FleetRepository // optional; nil when no visualization/admin consumer is wired

	inbox <-chan mailbox.Message
}

// SetRepository wires the optional snapshot store. Must be called before
// Run; once running, the drone's own goroutine is the only writer.
func (d *Drone) SetRepository(repo *repository.FleetRepository) {
	d.repo = repo
}

// publishSnapshot pushes the current state to the optional fleet
// repository. Only ever called from this goroutine.
func (d *Drone) publishSnapshot(ctx context.Context) {
	if d.repo == nil {
		return
	}
	if err := d.repo.UpsertDrone(ctx, d.Snapshot()); err != nil {
		log.Printf("drone %s: publish snapshot: %v", d.ID, err)
	}
}

// New constructs a drone at the position of its initial warehouse.
func New(id string, capacityKG int, autonomyM, velocityMS float64, startLat, startLon float64, warehousePositions map[string]geo.Point, directory *mailbox.Directory, params Params) *Drone {
	return &Drone{
		ID:                 id,
		CapacityKG:         capacityKG,
		AutonomyM:          autonomyM,
		VelocityMS:         velocityMS,
		Lat:                startLat,
		Lon:                startLon,
		currCapacity:       0,
		currAutonomy:       autonomyM,
		warehousePositions: warehousePositions,
		maxDeliverableIdx:  -1,
		state:              StateAvailable,
		directory:          directory,
		params:             params,
		metrics: metrics.NewCollector(models.DroneParameters{
			ID:         id,
			CapacityKG: capacityKG,
			AutonomyM:  autonomyM,
			VelocityMS: velocityMS,
		}),
	}
}

// Run drives the FSM loop until it reaches Dead, writing the metrics sink
// as a side effect of the terminal state, then returns.
func (d *Drone) Run(ctx context.Context, metricsDir string) {
	d.inbox = d.directory.Register(d.ID)
	defer d.directory.Unregister(d.ID)

	telemetry.DronesAlive.Inc()
	defer telemetry.DronesAlive.Dec()

	for d.state != StateDead {
		if ctx.Err() != nil {
			d.state = StateDead
			break
		}
		d.step(ctx)
		d.publishSnapshot(ctx)
	}
	d.publishSnapshot(ctx)

	log.Printf("drone %s: terminated (died_successfully=%v, delivered orders written to sink)", d.ID, d.diedSuccessfully)
	if err := d.metrics.WriteSink(metricsDir, d.AutonomyM); err != nil {
		log.Printf("drone %s: write metrics sink: %v", d.ID, err)
	}
}

func (d *Drone) step(ctx context.Context) {
	switch d.state {
	case StateAvailable:
		d.stepAvailable(ctx)
	case StateSuggest:
		d.stepSuggest(ctx)
	case StatePickup:
		d.stepPickup(ctx)
	case StateDeliver:
		d.stepDeliver(ctx)
	}
}

func (d *Drone) pos() geo.Point { return geo.Point{Lat: d.Lat, Lon: d.Lon} }

func (d *Drone) freeCapacity() int { return d.CapacityKG - d.currCapacity }

func (d *Drone) targets() []string {
	if d.requiredWarehouse != "" {
		if _, ok := d.warehousePositions[d.requiredWarehouse]; ok {
			return []string{d.requiredWarehouse}
		}
	}
	return d.warehouseIDs()
}

// stepAvailable sends a suggest request to every candidate warehouse
// (retrying each up to SuggestRetries on timeout) and collects responses.
func (d *Drone) stepAvailable(ctx context.Context) {
	targets := d.targets()
	if len(targets) == 0 {
		// Nothing left to ask (every warehouse has refused and been
		// dropped): keep delivering whatever is already held, or
		// terminate successfully if there is nothing left at all
		// (spec §7 kind 4, empty world).
		if len(d.nextOrders) > 0 {
			d.state = StateDeliver
		} else {
			d.finish(true)
		}
		return
	}

	var proposals []proposal
	for _, whID := range targets {
		p, ok := d.suggestOne(ctx, whID)
		if !ok {
			d.finish(false)
			return
		}
		proposals = append(proposals, p)
	}

	d.pendingProposals = proposals
	d.state = StateSuggest
}

func (d *Drone) suggestOne(ctx context.Context, warehouseID string) (proposal, bool) {
	corrID, err := mailbox.NewCorrelationID()
	if err != nil {
		corrID = warehouseID
	}
	req := mailbox.Message{
		Sender:        d.ID,
		Recipient:     warehouseID,
		Performative:  mailbox.PerformativeRequest,
		NextBehaviour: mailbox.BehaviourSuggest,
		CorrelationID: corrID,
		Suggest: &mailbox.SuggestBody{
			ID:         d.ID,
			CapacityKG: d.freeCapacity(),
			AutonomyM:  d.currAutonomy,
			VelocityMS: d.VelocityMS,
		},
	}

	for attempt := 0; attempt < d.params.SuggestRetries; attempt++ {
		if err := d.directory.Send(ctx, req); err != nil {
			return proposal{}, false
		}
		reply, err := mailbox.Receive(ctx, d.inbox, d.params.RequestTimeout)
		// Discard late replies that belong to another suggest round.
		for err == nil && reply.CorrelationID != corrID {
			reply, err = mailbox.Receive(ctx, d.inbox, d.params.RequestTimeout)
		}
		if err != nil {
			continue
		}
		switch reply.Performative {
		case mailbox.PerformativeRefuse:
			return proposal{warehouseID: warehouseID, refused: true}, true
		case mailbox.PerformativePropose:
			return proposal{warehouseID: warehouseID, orders: fromOrderBodies(reply.Orders)}, true
		}
	}
	return proposal{}, false
}

func fromOrderBodies(bodies []mailbox.OrderBody) []models.Order {
	out := make([]models.Order, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, models.Order{
			ID:        b.ID,
			OriginLat: b.OriginLat,
			OriginLon: b.OriginLon,
			DestLat:   b.DestLat,
			DestLon:   b.DestLon,
			WeightKG:  b.WeightKG,
			Status:    models.OrderStatusTaken,
		})
	}
	return out
}

func (d *Drone) finish(successfully bool) {
	d.diedSuccessfully = successfully
	d.state = StateDead
}

// moveToward advances the drone one tick toward target (spec §4.5),
// subtracting the distance covered from curr_autonomy, and reports whether
// it has arrived along with the distance covered this tick.
func (d *Drone) moveToward(target geo.Point) (arrived bool, covered float64) {
	stepMeters := d.VelocityMS * d.params.TimeMultiplier * d.params.TickRate.Seconds()
	next, covered, arrived := geo.Step(d.pos(), target, stepMeters)
	d.Lat, d.Lon = next.Lat, next.Lon
	d.currAutonomy -= covered
	d.metrics.RecordMovement(covered)
	return arrived, covered
}

// warehousePositionList and warehouseIDAt give a stable-for-one-call
// pairing between index and warehouse id, used by TasksInRange/NearestWarehouse.
func (d *Drone) warehousePositionList() []geo.Point {
	ids := d.warehouseIDs()
	out := make([]geo.Point, len(ids))
	for i, id := range ids {
		out[i] = d.warehousePositions[id]
	}
	return out
}

func (d *Drone) warehouseIDAt(idx int) string {
	ids := d.warehouseIDs()
	if idx < 0 || idx >= len(ids) {
		return ""
	}
	return ids[idx]
}

func (d *Drone) warehouseIDs() []string {
	ids := make([]string, 0, len(d.warehousePositions))
	for id := range d.warehousePositions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DiedSuccessfully reports the terminal outcome, valid once State() == StateDead.
func (d *Drone) DiedSuccessfully() bool { return d.diedSuccessfully }

// State returns the drone's current FSM state.
func (d *Drone) State() State { return d.state }

// Snapshot returns the read-only view consumed by the visualization bridge
// and the optional control plane.
func (d *Drone) Snapshot() models.Drone {
	return models.Drone{
		ID:            d.ID,
		Lat:           d.Lat,
		Lon:           d.Lon,
		State:         models.DroneState(d.state.String()),
		CurrCapacity:  d.currCapacity,
		MaxCapacity:   d.CapacityKG,
		CurrAutonomyM: d.currAutonomy,
		MaxAutonomyM:  d.AutonomyM,
	}
}
