//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/statebridge/internal/metric"
)

// Integration tests for broker connectivity and eventstream delivery.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func TestIntegration_ConnectAndHealth(t *testing.T) {
	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_EventstreamRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Topic = "statebridge-test/eventstream"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	records := make(chan metric.ChangeRecord, 1)
	err = client.SubscribeEvents(func(rec metric.ChangeRecord) error {
		records <- rec
		return nil
	})
	if err != nil {
		t.Fatalf("SubscribeEvents() error = %v", err)
	}

	event := map[string]any{
		"event_type": "state_changed",
		"event_data": map[string]any{
			"entity_id": "sensor.temp",
			"new_state": map[string]any{
				"entity_id":    "sensor.temp",
				"state":        "21.5",
				"attributes":   map[string]any{"unit_of_measurement": "°C"},
				"last_updated": "2023-06-01T12:00:00Z",
			},
		},
	}
	payload, _ := json.Marshal(event)
	token := client.client.Publish(cfg.Topic, byte(cfg.QoS), false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		t.Fatal("publish timed out")
	}

	select {
	case rec := <-records:
		if rec.EntityID != "sensor.temp" || rec.State != "21.5" {
			t.Errorf("record = %+v, want sensor.temp/21.5", rec)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no record received")
	}
}
