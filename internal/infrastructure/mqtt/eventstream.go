package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/statebridge/internal/metric"
)

// stateDocument is the Home Assistant state object carried inside a
// state_changed event.
type stateDocument struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated string         `json:"last_updated"`
}

// eventDocument is the envelope published by the mqtt_eventstream
// integration: every bus event, one JSON document per message.
type eventDocument struct {
	EventType string `json:"event_type"`
	EventData struct {
		EntityID string         `json:"entity_id"`
		NewState *stateDocument `json:"new_state"`
	} `json:"event_data"`
}

// RecordHandler receives one decoded state-change record per event.
type RecordHandler func(rec metric.ChangeRecord) error

// SubscribeEvents subscribes to the configured eventstream topic and
// invokes the handler for every state_changed event.
//
// Events of other types, and state_changed events without a new state
// (entity removals), are silently discarded. Payloads that fail to
// decode are reported through the client's logger and do not stop the
// subscription.
//
// Parameters:
//   - handler: Callback invoked with each decoded record
//
// Returns:
//   - error: If the underlying subscribe fails
func (c *Client) SubscribeEvents(handler RecordHandler) error {
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	return c.Subscribe(c.cfg.Topic, byte(c.cfg.QoS), func(_ string, payload []byte) error {
		rec, ok, err := decodeEvent(payload)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return handler(rec)
	})
}

// decodeEvent parses one eventstream payload. The second return is
// false for events that are valid but carry no state change.
func decodeEvent(payload []byte) (metric.ChangeRecord, bool, error) {
	var doc eventDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return metric.ChangeRecord{}, false, fmt.Errorf("%w: %w", ErrBadEvent, err)
	}

	if doc.EventType != "state_changed" || doc.EventData.NewState == nil {
		return metric.ChangeRecord{}, false, nil
	}

	st := doc.EventData.NewState
	entity := st.EntityID
	if entity == "" {
		entity = doc.EventData.EntityID
	}
	if entity == "" {
		return metric.ChangeRecord{}, false, fmt.Errorf("%w: missing entity_id", ErrBadEvent)
	}

	// The record time is the entity's own update time; broker transit
	// delay must not shift samples.
	when := time.Now().UTC()
	if st.LastUpdated != "" {
		if ts, err := time.Parse(time.RFC3339Nano, st.LastUpdated); err == nil {
			when = ts
		}
	}

	return metric.ChangeRecord{
		EntityID:   entity,
		State:      st.State,
		Time:       when,
		Attributes: metric.DecodeAttributes(st.Attributes),
	}, true, nil
}
