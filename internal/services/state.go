package services

import (
	"sync"
	"time"

	"github.com/kelsos/wallet-watch/internal/models"
)

// StateView is a point-in-time copy of AppState
type StateView struct {
	Current     models.BitcoinData
	Variation   models.Variation
	DarkMode    bool
	Currency    string
	Configured  bool
	LastRefresh time.Time
	LastError   string
}

// AppState is the presentation-owned state the refresh pipeline reads its
// baseline from and writes its results to. Safe for concurrent use.
type AppState struct {
	mu   sync.RWMutex
	view StateView
}

func NewAppState() *AppState {
	return &AppState{}
}

// Snapshot returns a copy of the current state
func (s *AppState) Snapshot() StateView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// ApplyParams takes the display preferences from a parameters document
func (s *AppState) ApplyParams(params *models.WalletParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params == nil {
		s.view.Configured = false
		return
	}
	s.view.Configured = true
	s.view.DarkMode = params.DarkMode
	s.view.Currency = params.Currency
}

// SetError records a message for the toast line. An empty message clears it.
func (s *AppState) SetError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.LastError = msg
}

func (s *AppState) current() models.BitcoinData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.Current
}

func (s *AppState) loadSnapshot(data models.BitcoinData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Current = data
}

func (s *AppState) applyRefresh(data models.BitcoinData, variation models.Variation, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Current = data
	s.view.Variation = variation
	s.view.LastRefresh = at
}
