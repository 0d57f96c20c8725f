package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/pairing"
	"github.com/kelsos/wallet-watch/internal/storage"
)

// ErrSaveFailed is returned when the parameters document could not be written
var ErrSaveFailed = errors.New("failed to save wallet parameters")

// ParamsService owns the wallet parameters document on the primary device
type ParamsService struct {
	store  storage.Store
	sender pairing.Sender
}

// NewParamsService creates the service. A nil sender disables pairing.
func NewParamsService(store storage.Store, sender pairing.Sender) *ParamsService {
	return &ParamsService{store: store, sender: sender}
}

// Save validates and stores params, then pushes the stored document to the
// paired device. Pairing failures are logged by the sender and never returned.
func (s *ParamsService) Save(ctx context.Context, params models.WalletParams) (models.StoredParams, error) {
	params = params.Normalize()
	if err := params.Validate(); err != nil {
		return models.StoredParams{}, fmt.Errorf("invalid wallet parameters: %w", err)
	}

	doc := models.StoredParams{BitcoinParams: &params}
	if !storage.StoreParams(s.store, doc) {
		return models.StoredParams{}, ErrSaveFailed
	}
	logger.Info("Saved wallet parameters: %s", params.String())

	if s.sender != nil {
		s.sender.Send(ctx, doc)
	} else {
		logger.Debug("No paired device configured, skipping sync")
	}

	return doc, nil
}

// Load returns the stored parameters document. A missing document is reported
// through its Error field.
func (s *ParamsService) Load() models.StoredParams {
	return storage.GetStoredParams(s.store)
}

// Companion persists every parameters document received from the primary
// device. The last received document wins.
type Companion struct {
	store       storage.Store
	onSaved     func(models.StoredParams)
	unsubscribe func()
}

// NewCompanion subscribes to receiver. onSaved may be nil.
func NewCompanion(store storage.Store, receiver pairing.Receiver, onSaved func(models.StoredParams)) *Companion {
	c := &Companion{store: store, onSaved: onSaved}
	c.unsubscribe = receiver.OnReceive(c.handle)
	return c
}

func (c *Companion) handle(envelope models.SyncEnvelope) error {
	if !storage.StoreParams(c.store, envelope.Data) {
		logger.Error("Failed to persist synced parameters %s", envelope.ID)
		return fmt.Errorf("synced parameters %s: %w", envelope.ID, ErrSaveFailed)
	}

	logger.Info("Persisted synced parameters %s", envelope.ID)
	if c.onSaved != nil {
		c.onSaved(envelope.Data)
	}
	return nil
}

// Close removes the subscription
func (c *Companion) Close() {
	c.unsubscribe()
}
