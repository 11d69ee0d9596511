// Package metrics accumulates per-drone counters over a run and writes the
// logs/{drone_id}.json sink spec §6 describes on termination.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/Ptozin/droneswarm/models"
)

// PathPoint is one delivered order's destination, keyed by order id in the
// sink's Path array, matching spec §6's `{orderId: {latitude,longitude}}`.
type PathPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Summary is the exact JSON shape written to logs/{drone_id}.json.
type Summary struct {
	DroneParameters models.DroneParameters    `json:"Drone_parameters"`
	Metrics         Counters                  `json:"Metrics"`
	Path            []map[string]PathPoint    `json:"Path"`
}

// Counters holds the aggregate figures named in spec §6.
type Counters struct {
	TotalTrips        int     `json:"Total Trips"`
	TotalDistance      float64 `json:"Total Distance"`
	MinDistance        float64 `json:"Min Distance"`
	MaxDistance        float64 `json:"Max Distance"`
	AvgDistance        float64 `json:"Avg Distance"`
	OrdersDelivered    int     `json:"Orders Delivered"`
	OccupianceRate     float64 `json:"Occupiance Rate"`
	EnergyConsumptionP float64 `json:"Energy Consumption%"`
}

// Collector accumulates one drone's metrics across its whole lifetime.
// It is only ever touched from that drone's own goroutine.
type Collector struct {
	droneID        string
	params         models.DroneParameters
	tripDistances  []float64
	ordersDelivered int
	path           []map[string]PathPoint
	capacitySum    float64 // sum of per-delivery capacity-level snapshots
	capacitySamples int
	energyUsed     float64 // total meters travelled
}

// NewCollector starts a collector for a drone, recording its introduction
// parameters (persisted verbatim as Drone_parameters in the sink).
func NewCollector(params models.DroneParameters) *Collector {
	return &Collector{droneID: params.ID, params: params}
}

// RecordTrip appends the distance of one trip. The drone records a trip on
// each warehouse arrival, passing the delivery legs flown since the
// previous arrival.
func (c *Collector) RecordTrip(distanceM float64) {
	c.tripDistances = append(c.tripDistances, distanceM)
}

// RecordDelivery marks one order delivered at its destination, and takes a
// capacity-level-at-delivery sample for the occupancy-rate average.
func (c *Collector) RecordDelivery(o models.Order, capacityLevel float64) {
	c.ordersDelivered++
	c.path = append(c.path, map[string]PathPoint{
		o.ID: {Latitude: o.DestLat, Longitude: o.DestLon},
	})
	c.capacitySum += capacityLevel
	c.capacitySamples++
}

// RecordMovement accumulates total meters travelled, for the energy
// consumption percentage.
func (c *Collector) RecordMovement(distanceM float64) {
	c.energyUsed += distanceM
}

// Finalize computes the Counters block given the drone's max autonomy.
func (c *Collector) Finalize(maxAutonomyM float64) Counters {
	total, min, max := 0.0, 0.0, 0.0
	for i, d := range c.tripDistances {
		total += d
		if i == 0 || d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	avg := 0.0
	if len(c.tripDistances) > 0 {
		avg = total / float64(len(c.tripDistances))
	}
	occupancy := 0.0
	if c.capacitySamples > 0 {
		occupancy = c.capacitySum / float64(c.capacitySamples)
	}
	energyPct := 0.0
	if maxAutonomyM > 0 {
		energyPct = (c.energyUsed / maxAutonomyM) * 100
		if energyPct > 100 {
			energyPct = 100
		}
	}
	return Counters{
		TotalTrips:         len(c.tripDistances),
		TotalDistance:      total,
		MinDistance:        min,
		MaxDistance:        max,
		AvgDistance:        avg,
		OrdersDelivered:    c.ordersDelivered,
		OccupianceRate:     occupancy,
		EnergyConsumptionP: energyPct,
	}
}

// WriteSink writes logs/{drone_id}.json under dir, creating dir if needed.
func (c *Collector) WriteSink(dir string, maxAutonomyM float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "metrics: create logs dir")
	}
	summary := Summary{
		DroneParameters: c.params,
		Metrics:         c.Finalize(maxAutonomyM),
		Path:            c.path,
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return errors.Wrap(err, "metrics: marshal summary")
	}
	path := filepath.Join(dir, fmt.Sprintf("%s.json", c.droneID))
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return errors.Wrapf(err, "metrics: write %s", path)
	}
	return nil
}
