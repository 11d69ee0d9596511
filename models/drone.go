package models

// DroneState names the five-state FSM driving a drone agent (spec §4.4).
type DroneState string

const (
	DroneStateAvailable DroneState = "available"
	DroneStateSuggest   DroneState = "suggest"
	DroneStatePickup    DroneState = "pickup"
	DroneStateDeliver   DroneState = "deliver"
	DroneStateDead      DroneState = "dead"
)

// DroneParameters holds a drone's fixed introduction parameters (max
// capacity, max autonomy, velocity), the shape persisted under
// "Drone_parameters" in the metrics sink (spec §6). Suggest requests carry
// mailbox.SuggestBody instead, with the drone's free capacity and current
// autonomy.
type DroneParameters struct {
	ID         string  `json:"id"`
	CapacityKG int     `json:"capacity"`
	AutonomyM  float64 `json:"autonomy"`
	VelocityMS float64 `json:"velocity"`
}

// Drone is the snapshot shape pushed to the visualization bridge and the
// optional admin control plane — never the live FSM state itself, which is
// owned exclusively by the drone's own goroutine.
type Drone struct {
	ID            string     `json:"id"`
	Lat           float64    `json:"latitude"`
	Lon           float64    `json:"longitude"`
	State         DroneState `json:"state"`
	CurrCapacity  int        `json:"curr_capacity"`
	MaxCapacity   int        `json:"max_capacity"`
	CurrAutonomyM float64    `json:"curr_autonomy"`
	MaxAutonomyM  float64    `json:"max_autonomy"`
}
