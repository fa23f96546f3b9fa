package hass

import (
	"fmt"
	"time"

	"github.com/nerrad567/statebridge/internal/metric"
)

// serverMessage is the envelope for every message the WebSocket API
// sends: greetings, command results and events share the shape.
type serverMessage struct {
	ID      int    `json:"id"`
	Type    string `json:"type"`
	Success *bool  `json:"success,omitempty"`
	Event   *struct {
		EventType string `json:"event_type"`
		Data      struct {
			EntityID string         `json:"entity_id"`
			NewState *stateDocument `json:"new_state"`
		} `json:"data"`
	} `json:"event,omitempty"`
}

// stateDocument is the Home Assistant state object inside a
// state_changed event.
type stateDocument struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated string         `json:"last_updated"`
}

// record converts an event message into a change record. The second
// return is false for events that are valid but carry no state change,
// such as entity removals and non-state events.
func (m *serverMessage) record() (metric.ChangeRecord, bool, error) {
	if m.Event == nil || m.Event.EventType != "state_changed" {
		return metric.ChangeRecord{}, false, nil
	}
	st := m.Event.Data.NewState
	if st == nil {
		return metric.ChangeRecord{}, false, nil
	}

	entity := st.EntityID
	if entity == "" {
		entity = m.Event.Data.EntityID
	}
	if entity == "" {
		return metric.ChangeRecord{}, false, fmt.Errorf("%w: missing entity_id", ErrBadMessage)
	}

	// The record time is the entity's own update time, not arrival time.
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
