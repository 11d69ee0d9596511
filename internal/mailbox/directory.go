package mailbox

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/Ptozin/droneswarm/internal/telemetry"
)

// inboxCapacity buffers the handful of messages a single negotiation round
// produces for one agent (a suggest round fans out to every warehouse and
// collects one reply each); it is not a backpressure mechanism.
const inboxCapacity = 16

// Directory routes Messages to per-agent inboxes. Registration and lookup
// are safe for concurrent use by every agent goroutine; a given agent's own
// inbox is only ever read by that agent's own goroutine, so no lock is
// needed once the channel reference has been obtained.
type Directory struct {
	mu      sync.RWMutex
	inboxes map[string]chan Message
}

// NewDirectory returns an empty agent directory.
func NewDirectory() *Directory {
	return &Directory{inboxes: make(map[string]chan Message)}
}

// Register creates (or replaces) the inbound channel for agentID and
// returns it, so the agent's own Run loop can receive from it directly.
func (d *Directory) Register(agentID string) <-chan Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	ch := make(chan Message, inboxCapacity)
	d.inboxes[agentID] = ch
	return ch
}

// Unregister removes an agent's inbox once it has terminated.
func (d *Directory) Unregister(agentID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inboxes, agentID)
}

// Send delivers msg to msg.Recipient's inbox. FIFO per (sender, recipient)
// pair falls out directly from Go channel semantics: all messages from one
// sender to one recipient travel through the same channel, so they arrive
// in send order with no extra bookkeeping. Send blocks until the inbox has
// room or ctx is cancelled; it never blocks on anything else.
func (d *Directory) Send(ctx context.Context, msg Message) error {
	d.mu.RLock()
	ch, ok := d.inboxes[msg.Recipient]
	d.mu.RUnlock()
	if !ok {
		return errors.Errorf("mailbox: unknown recipient %q", msg.Recipient)
	}
	select {
	case ch <- msg:
		telemetry.MessagesRouted.WithLabelValues(string(msg.Performative)).Inc()
		return nil
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "mailbox: send to %q", msg.Recipient)
	}
}
