package hass

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// Reconnection constants.
const (
	// initialRetryDelay is the first reconnect delay after a dropped
	// connection; doubles up to maxRetryDelay.
	initialRetryDelay = 1 * time.Second

	// maxRetryDelay caps the reconnect backoff.
	maxRetryDelay = 60 * time.Second

	// handshakeTimeout bounds the dial plus authentication exchange.
	handshakeTimeout = 10 * time.Second

	// subscriptionID is the command id used for the single
	// subscribe_events request on each connection.
	subscriptionID = 1
)

// RecordHandler receives one decoded state-change record per event.
type RecordHandler func(rec metric.ChangeRecord) error

// Logger is the minimal logging interface the client needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Client connects to the Home Assistant WebSocket API and streams
// state_changed events.
//
// Thread Safety:
//   - Run must not be called concurrently; the handler is invoked
//     sequentially on Run's goroutine.
type Client struct {
	cfg    config.HassConfig
	dialer *websocket.Dialer
	log    Logger
}

// New creates a Client. No connection is attempted until Run.
func New(cfg config.HassConfig, log Logger) *Client {
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		log: log,
	}
}

// Run streams events until the context is cancelled.
//
// Each dropped connection is retried with exponential backoff; the
// backoff resets once a connection reaches the subscribed state. An
// authentication rejection is returned immediately, since retrying
// with the same token cannot succeed.
//
// Parameters:
//   - ctx: Cancels the stream and any pending reconnect wait
//   - handler: Callback invoked with each decoded record; handler
//     errors are logged and do not stop the stream
//
// Returns:
//   - error: Context error on cancellation, or ErrAuthFailed
func (c *Client) Run(ctx context.Context, handler RecordHandler) error {
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	delay := initialRetryDelay
	for {
		subscribed, err := c.stream(ctx, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrAuthFailed) {
			return err
		}
		if subscribed {
			delay = initialRetryDelay
		}

		c.log.Warn("event stream interrupted",
			"error", err,
			"retry_in", delay.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > maxRetryDelay {
			delay = maxRetryDelay
		}
	}
}

// stream runs one connection: dial, authenticate, subscribe, then read
// events until the connection drops or the context is cancelled. The
// bool reports whether the subscription was established.
func (c *Client) stream(ctx context.Context, handler RecordHandler) (bool, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer conn.Close()

	// Closing the connection is the only way to unblock ReadJSON when
	// the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	if err := c.authenticate(conn); err != nil {
		return false, err
	}
	if err := c.subscribe(conn); err != nil {
		return false, err
	}
	c.log.Info("subscribed to state changes", "url", c.cfg.URL)

	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return true, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
		}
		if msg.Type != "event" {
			continue
		}

		rec, ok, err := msg.record()
		if err != nil {
			c.log.Warn("skipping event", "error", err)
			continue
		}
		if !ok {
			continue
		}
		if err := handler(rec); err != nil {
			c.log.Warn("record handler failed", "entity_id", rec.EntityID, "error", err)
		}
	}
}

// authenticate performs the auth_required / auth / auth_ok exchange.
func (c *Client) authenticate(conn *websocket.Conn) error {
	var greeting serverMessage
	if err := conn.ReadJSON(&greeting); err != nil {
		return fmt.Errorf("%w: reading greeting: %w", ErrConnectionFailed, err)
	}
	if greeting.Type != "auth_required" {
		return fmt.Errorf("%w: unexpected greeting %q", ErrBadMessage, greeting.Type)
	}

	auth := map[string]string{
		"type":         "auth",
		"access_token": c.cfg.Token,
	}
	if err := conn.WriteJSON(auth); err != nil {
		return fmt.Errorf("%w: sending token: %w", ErrConnectionFailed, err)
	}

	var verdict serverMessage
	if err := conn.ReadJSON(&verdict); err != nil {
		return fmt.Errorf("%w: reading auth result: %w", ErrConnectionFailed, err)
	}
	if verdict.Type != "auth_ok" {
		return fmt.Errorf("%w: server answered %q", ErrAuthFailed, verdict.Type)
	}
	return nil
}

// subscribe requests state_changed events and waits for the result.
func (c *Client) subscribe(conn *websocket.Conn) error {
	req := map[string]any{
		"id":         subscriptionID,
		"type":       "subscribe_events",
		"event_type": "state_changed",
	}
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	// The result for our command id arrives before any event.
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
		}
		if msg.Type != "result" || msg.ID != subscriptionID {
			continue
		}
		if msg.Success == nil || !*msg.Success {
			return fmt.Errorf("%w: server refused subscription", ErrSubscribeFailed)
		}
		return nil
	}
}
