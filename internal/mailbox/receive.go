package mailbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/teris-io/shortid"
)

// ErrTimeout is returned by Receive when no message arrives before timeout
// elapses.
var ErrTimeout = errors.New("mailbox: receive timed out")

// Receive waits for the next message on inbox, up to timeout, or until
// ctx is cancelled. It is the one suspension point spec §5 names for both
// the drone's Available/Pickup awaits and the warehouse's Idle liveness
// probe.
func Receive(ctx context.Context, inbox <-chan Message, timeout time.Duration) (Message, error) {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case msg := <-inbox:
		return msg, nil
	case <-tctx.Done():
		if ctx.Err() != nil {
			return Message{}, errors.Wrap(ctx.Err(), "mailbox: receive")
		}
		return Message{}, ErrTimeout
	}
}

// NewCorrelationID mints a short, unique token to tag a suggest round so a
// drone can match replies to it even when responses from different
// warehouses interleave (spec §9's flagged correlation-token option).
func NewCorrelationID() (string, error) {
	return shortid.Generate()
}
