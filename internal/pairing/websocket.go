package pairing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/patrickmn/go-cache"

	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
)

const (
	// PairPath is the HTTP path the companion listens on
	PairPath = "/pair"

	maxEnvelopeSize = 64 * 1024
	ackTimeout      = 10 * time.Second
	writeTimeout    = 10 * time.Second
	seenTTL         = 10 * time.Minute
)

var (
	errRejected  = errors.New("companion rejected the document")
	errNotStored = errors.New("companion could not apply the document")
)

// WSServer is the companion side of a WebSocket pairing. Envelopes carrying an
// id that every handler already applied are acknowledged but not dispatched
// again.
type WSServer struct {
	upgrader websocket.Upgrader
	subs     *subscribers
	seen     *cache.Cache
}

func NewWSServer() *WSServer {
	return &WSServer{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: newSubscribers(),
		seen: cache.New(seenTTL, time.Minute),
	}
}

func (s *WSServer) OnReceive(handler Handler) func() {
	return s.subs.add(handler)
}

// ServeHTTP upgrades the connection and handles envelopes until the peer closes it
func (s *WSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade pairing connection: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxEnvelopeSize)
	logger.Debug("Pairing connection from %s", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Pairing connection closed unexpectedly: %v", err)
			}
			return
		}

		ack := s.handle(data)

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(ack); err != nil {
			logger.Error("Failed to acknowledge sync message %s: %v", ack.ID, err)
			return
		}
	}
}

func (s *WSServer) handle(data []byte) models.SyncAck {
	var envelope models.SyncEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		logger.Error("Received malformed sync message: %v", err)
		return models.SyncAck{OK: false}
	}

	if envelope.ID != "" {
		if _, found := s.seen.Get(envelope.ID); found {
			logger.Debug("Ignoring duplicate sync message %s", envelope.ID)
			return models.SyncAck{ID: envelope.ID, OK: true}
		}
	}

	handled, err := s.subs.dispatch(envelope)
	if err != nil {
		logger.Error("Failed to apply sync message %s: %v", envelope.ID, err)
		return models.SyncAck{ID: envelope.ID, OK: false}
	}

	if envelope.ID != "" {
		s.seen.Set(envelope.ID, struct{}{}, cache.DefaultExpiration)
	}
	logger.Info("Received sync message %s (%d handler(s))", envelope.ID, handled)
	return models.SyncAck{ID: envelope.ID, OK: true}
}

// ListenAndServe serves the pairing endpoint on addr until ctx is cancelled
func (s *WSServer) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(PairPath, s)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Pairing server shutdown: %v", err)
		}
	}()

	logger.Info("Listening for paired devices on ws://%s%s", addr, PairPath)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("pairing server failed: %w", err)
	}
	return nil
}

// WSSender is the primary side of a WebSocket pairing. Each document is
// retried with exponential backoff until the companion acknowledges it.
type WSSender struct {
	url        string
	dialer     websocket.Dialer
	maxTries   uint
	retryDelay time.Duration
}

func NewWSSender(url string, maxRetries int, retryDelay time.Duration) *WSSender {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}

	return &WSSender{
		url:        url,
		dialer:     websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		maxTries:   uint(maxRetries),
		retryDelay: retryDelay,
	}
}

func (s *WSSender) Send(ctx context.Context, doc models.StoredParams) {
	if err := s.Deliver(ctx, doc); err != nil {
		logger.Error("Failed to sync parameters to %s: %v", s.url, err)
	}
}

// Deliver sends doc under a single envelope id and waits for the acknowledgement
func (s *WSSender) Deliver(ctx context.Context, doc models.StoredParams) error {
	envelope := NewEnvelope(doc)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryDelay
	policy.MaxInterval = s.retryDelay * 10

	notify := func(err error, d time.Duration) {
		logger.Warn("Sync message %s not delivered, retrying in %v: %v", envelope.ID, d, err)
	}

	operation := func() (struct{}, error) {
		return struct{}{}, s.deliverOnce(ctx, envelope)
	}

	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(notify)); err != nil {
		return err
	}

	logger.Info("Sync message %s delivered", envelope.ID)
	return nil
}

func (s *WSSender) deliverOnce(ctx context.Context, envelope models.SyncEnvelope) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(envelope); err != nil {
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(ackTimeout))
	var ack models.SyncAck
	if err := conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("failed to read acknowledgement: %w", err)
	}

	if ack.ID != envelope.ID {
		if !ack.OK && ack.ID == "" {
			return backoff.Permanent(errRejected)
		}
		return fmt.Errorf("acknowledgement for %q does not match %q", ack.ID, envelope.ID)
	}
	if !ack.OK {
		return errNotStored
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return nil
}
