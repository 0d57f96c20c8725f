// Package pairing relays saved wallet parameters from the primary device to a
// paired companion.
package pairing

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/kelsos/wallet-watch/internal/models"
)

// Handler is invoked once per inbound envelope. A non-nil error means the
// envelope was not applied and the sender should deliver it again.
type Handler func(models.SyncEnvelope) error

// Sender pushes a parameters document to the paired device. Delivery failures
// are logged and never returned.
type Sender interface {
	Send(ctx context.Context, doc models.StoredParams)
}

// Receiver registers inbound handlers. The returned function removes the
// registration and is safe to call more than once.
type Receiver interface {
	OnReceive(handler Handler) (unsubscribe func())
}

// NewEnvelope wraps doc with a fresh delivery id
func NewEnvelope(doc models.StoredParams) models.SyncEnvelope {
	return models.SyncEnvelope{
		ID:           uuid.New().String(),
		DataEnvelope: models.DataEnvelope[models.StoredParams]{Data: doc},
	}
}

type subscribers struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func newSubscribers() *subscribers {
	return &subscribers{handlers: make(map[string]Handler)}
}

func (s *subscribers) add(handler Handler) func() {
	id := uuid.New().String()

	s.mu.Lock()
	s.handlers[id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.handlers, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// dispatch calls handlers outside the lock so a handler may unsubscribe itself.
// Every handler runs even when an earlier one fails.
func (s *subscribers) dispatch(envelope models.SyncEnvelope) (int, error) {
	s.mu.RLock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, handler := range s.handlers {
		handlers = append(handlers, handler)
	}
	s.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(envelope); err != nil {
			errs = append(errs, err)
		}
	}
	return len(handlers), errors.Join(errs...)
}
