package hass

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/statebridge/internal/infrastructure/config"
	"github.com/nerrad567/statebridge/internal/metric"
)

// ============================================================================
// Test Server
// ============================================================================

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// newTestServer runs script against each incoming WebSocket connection
// and returns the ws:// URL.
func newTestServer(t *testing.T, script func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// handshake performs the server side of auth and subscription.
func handshake(t *testing.T, conn *websocket.Conn, wantToken string) bool {
	t.Helper()

	if err := conn.WriteJSON(map[string]any{"type": "auth_required"}); err != nil {
		return false
	}
	var auth map[string]string
	if err := conn.ReadJSON(&auth); err != nil {
		return false
	}
	if wantToken != "" && auth["access_token"] != wantToken {
		conn.WriteJSON(map[string]any{"type": "auth_invalid"})
		return false
	}
	if err := conn.WriteJSON(map[string]any{"type": "auth_ok"}); err != nil {
		return false
	}

	var sub map[string]any
	if err := conn.ReadJSON(&sub); err != nil {
		return false
	}
	return conn.WriteJSON(map[string]any{
		"id": subscriptionID, "type": "result", "success": true,
	}) == nil
}

func stateEvent(entity, state string) map[string]any {
	return map[string]any{
		"id":   subscriptionID,
		"type": "event",
		"event": map[string]any{
			"event_type": "state_changed",
			"data": map[string]any{
				"entity_id": entity,
				"new_state": map[string]any{
					"entity_id":    entity,
					"state":        state,
					"attributes":   map[string]any{"friendly_name": "Test"},
					"last_updated": "2023-06-01T12:00:00Z",
				},
			},
		},
	}
}

// ============================================================================
// Streaming Tests
// ============================================================================

func TestRun_StreamsStateChanges(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn) {
		if !handshake(t, conn, "token-1") {
			return
		}
		conn.WriteJSON(stateEvent("sensor.temp", "21.5"))
		conn.WriteJSON(stateEvent("switch.fan", "on"))
		// Hold the connection open until the client goes away.
		conn.ReadJSON(&struct{}{})
	})

	client := New(config.HassConfig{URL: url, Token: "token-1"}, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records := make(chan metric.ChangeRecord, 2)
	errc := make(chan error, 1)
	go func() {
		errc <- client.Run(ctx, func(rec metric.ChangeRecord) error {
			records <- rec
			return nil
		})
	}()

	var got []metric.ChangeRecord
	for len(got) < 2 {
		select {
		case rec := <-records:
			got = append(got, rec)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for records")
		}
	}
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}

	if got[0].EntityID != "sensor.temp" || got[0].State != "21.5" {
		t.Errorf("first record = %+v, want sensor.temp/21.5", got[0])
	}
	if got[1].EntityID != "switch.fan" || got[1].State != "on" {
		t.Errorf("second record = %+v, want switch.fan/on", got[1])
	}
}

func TestRun_AuthRejectionIsTerminal(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn) {
		handshake(t, conn, "the-real-token")
	})

	client := New(config.HassConfig{URL: url, Token: "wrong"}, nopLogger{})

	err := client.Run(context.Background(), func(metric.ChangeRecord) error { return nil })
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Run() error = %v, want ErrAuthFailed", err)
	}
}

func TestRun_NilHandler(t *testing.T) {
	client := New(config.HassConfig{URL: "ws://example.invalid"}, nopLogger{})

	err := client.Run(context.Background(), nil)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Run(nil) error = %v, want ErrSubscribeFailed", err)
	}
}

func TestStream_SubscriptionRefused(t *testing.T) {
	url := newTestServer(t, func(conn *websocket.Conn) {
		conn.WriteJSON(map[string]any{"type": "auth_required"})
		conn.ReadJSON(&struct{}{})
		conn.WriteJSON(map[string]any{"type": "auth_ok"})
		conn.ReadJSON(&struct{}{})
		conn.WriteJSON(map[string]any{
			"id": subscriptionID, "type": "result", "success": false,
		})
	})

	client := New(config.HassConfig{URL: url, Token: "t"}, nopLogger{})

	subscribed, err := client.stream(context.Background(), func(metric.ChangeRecord) error { return nil })
	if subscribed {
		t.Error("stream() subscribed = true, want false")
	}
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("stream() error = %v, want ErrSubscribeFailed", err)
	}
}

func TestStream_DialFailure(t *testing.T) {
	client := New(config.HassConfig{URL: "ws://127.0.0.1:1", Token: "t"}, nopLogger{})

	_, err := client.stream(context.Background(), func(metric.ChangeRecord) error { return nil })
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("stream() error = %v, want ErrConnectionFailed", err)
	}
}

// ============================================================================
// Event Decoding Tests
// ============================================================================

func TestRecord_NonStateEventSkipped(t *testing.T) {
	msg := serverMessage{Type: "event"}

	_, ok, err := msg.record()
	if err != nil {
		t.Fatalf("record() error = %v", err)
	}
	if ok {
		t.Error("record() ok = true for event without payload, want false")
	}
}

func TestRecord_RemovalSkipped(t *testing.T) {
	var msg serverMessage
	msg.Event = &struct {
		EventType string `json:"event_type"`
		Data      struct {
			EntityID string         `json:"entity_id"`
			NewState *stateDocument `json:"new_state"`
		} `json:"data"`
	}{EventType: "state_changed"}
	msg.Event.Data.EntityID = "sensor.gone"

	_, ok, err := msg.record()
	if err != nil {
		t.Fatalf("record() error = %v", err)
	}
	if ok {
		t.Error("record() ok = true for removal, want false")
	}
}
