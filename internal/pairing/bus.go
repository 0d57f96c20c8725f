package pairing

import (
	"context"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
)

// Endpoint is one side of an in-process pairing. Sends are delivered
// synchronously to the peer's handlers.
type Endpoint struct {
	name string
	subs *subscribers
	peer *Endpoint
}

// NewPair returns two linked endpoints
func NewPair() (*Endpoint, *Endpoint) {
	primary := &Endpoint{name: "primary", subs: newSubscribers()}
	companion := &Endpoint{name: "companion", subs: newSubscribers()}
	primary.peer = companion
	companion.peer = primary
	return primary, companion
}

func (e *Endpoint) Send(ctx context.Context, doc models.StoredParams) {
	if err := ctx.Err(); err != nil {
		logger.Warn("Dropping sync message from %s: %v", e.name, err)
		return
	}

	envelope := NewEnvelope(doc)
	delivered, err := e.peer.subs.dispatch(envelope)
	if err != nil {
		logger.Error("Sync message %s from %s failed on %s: %v", envelope.ID, e.name, e.peer.name, err)
		return
	}
	if delivered == 0 {
		logger.Warn("Sync message from %s had no receiver on %s", e.name, e.peer.name)
		return
	}
	logger.Debug("Sync message from %s delivered to %d handler(s)", e.name, delivered)
}

func (e *Endpoint) OnReceive(handler Handler) func() {
	return e.subs.add(handler)
}
