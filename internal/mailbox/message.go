// Package mailbox defines the Message envelope exchanged between warehouse
// and drone agents, and the in-process directory that routes messages to
// each agent's own inbound channel.
package mailbox

import "encoding/json"

// Performative is the speech-act tag carried by every Message.
type Performative string

const (
	PerformativeRequest        Performative = "request"
	PerformativePropose        Performative = "propose"
	PerformativeRefuse         Performative = "refuse"
	PerformativeAcceptProposal Performative = "accept-proposal"
	PerformativeRejectProposal Performative = "reject-proposal"
	PerformativeConfirm        Performative = "confirm"
)

// NextBehaviour is the routing hint a request carries, selecting which
// warehouse handler dispatches the message.
type NextBehaviour string

const (
	BehaviourSuggest NextBehaviour = "suggest"
	BehaviourDecide  NextBehaviour = "decide"
	BehaviourPickup  NextBehaviour = "pickup"
)

// OrderBody is the wire shape of an order inside a propose/accept-proposal
// body, matching the JSON field names spec §6 names.
type OrderBody struct {
	ID        string  `json:"id"`
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_long"`
	DestLat   float64 `json:"dest_lat"`
	DestLon   float64 `json:"dest_long"`
	WeightKG  int     `json:"weight"`
}

// SuggestBody is the introduction payload a drone sends with a suggest request.
type SuggestBody struct {
	ID         string  `json:"id"`
	CapacityKG int     `json:"capacity"`
	AutonomyM  float64 `json:"autonomy"`
	VelocityMS float64 `json:"velocity"`
}

// Message is the typed envelope every agent-to-agent exchange uses.
// At most one of Suggest, Orders and OrderIDs is populated, selected by
// Performative and NextBehaviour (refuse and reject-proposal carry none);
// CorrelationID lets a drone match a propose/refuse reply to the suggest
// round that produced it even when replies from different warehouses
// interleave (spec §9's flagged correlation-token option).
type Message struct {
	Sender        string
	Recipient     string
	Performative  Performative
	NextBehaviour NextBehaviour
	CorrelationID string

	Suggest  *SuggestBody
	Orders   []OrderBody
	OrderIDs []string
}

// MarshalJSON is used only for logging/debugging; the live message never
// crosses a process boundary, so this is not on any hot path.
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(alias(m))
}
